// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/appform-bd/cardapply/app/dto"
	"github.com/appform-bd/cardapply/app/handlers"
	"github.com/appform-bd/cardapply/app/middleware"
	"github.com/appform-bd/cardapply/config"
	_ "github.com/appform-bd/cardapply/docs"
	"github.com/appform-bd/cardapply/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers bundles every handler the router mounts
type Handlers struct {
	Session     handlers.ApplicationSessionHandlerInterface
	Draft       handlers.DraftHandlerInterface
	Wizard      handlers.WizardHandlerInterface
	OTP         handlers.OTPHandlerInterface
	Submission  handlers.SubmissionHandlerInterface
	CardProduct handlers.CardProductHandlerInterface
	StaffAuth   handlers.StaffAuthHandlerInterface
	Review      handlers.ReviewHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	cfg      *config.ProductionConfig
	handlers Handlers
	auth     *middleware.AuthMiddleware
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, auth *middleware.AuthMiddleware) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Card Application API",
		ServerHeader: "cardapply",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:      app,
		cfg:      cfg,
		handlers: h,
		auth:     auth,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	if r.cfg.Metrics.EnablePrometheus {
		api.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Swagger UI outside production
	if os.Getenv("APP_ENV") != "production" {
		api.Get("/swagger.json", r.serveSwaggerJSON)
		r.app.Get("/swagger", r.serveSwaggerUI)
		log.Println("API documentation enabled")
	}

	// General rate limiting for all API routes (aligned with nginx)
	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	r.setupPublicRoutes(api)
	r.setupApplicantRoutes(api)
	r.setupStaffRoutes(api)

	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupPublicRoutes mounts the unauthenticated surface. Endpoints that mint
// credentials share the stricter auth limiter, attached per route so the
// group prefix stays unthrottled.
func (r *FiberRouter) setupPublicRoutes(api fiber.Router) {
	authLimiter := r.authRateLimiter()

	api.Get("/card-products", r.handlers.CardProduct.ListCardProducts)

	api.Post("/applications/start", r.handlers.Session.StartApplication, authLimiter)

	api.Get("/staff/captcha", r.handlers.StaffAuth.GenerateCaptcha, authLimiter)
	api.Post("/staff/login", r.handlers.StaffAuth.Login, authLimiter)
	api.Post("/staff/refresh", r.handlers.StaffAuth.RefreshTokens, authLimiter)
}

// setupApplicantRoutes mounts the session-scoped wizard surface
func (r *FiberRouter) setupApplicantRoutes(api fiber.Router) {
	apps := api.Group("/applications")
	apps.Use(r.auth.AuthenticateSession())

	apps.Get("/session", r.handlers.Session.SessionState)
	apps.Post("/session/refresh", r.handlers.Session.RefreshSession)

	apps.Get("/draft", r.handlers.Draft.FetchDraft)
	apps.Delete("/draft", r.handlers.Draft.DiscardDraft)
	apps.Put("/draft/steps", r.handlers.Draft.SaveStep)

	apps.Post("/draft/bank-accounts", r.handlers.Draft.AddBankAccount)
	apps.Put("/draft/bank-accounts/:id", r.handlers.Draft.UpdateBankAccount)
	apps.Delete("/draft/bank-accounts/:id", r.handlers.Draft.RemoveBankAccount)

	apps.Post("/draft/credit-facilities", r.handlers.Draft.AddCreditFacility)
	apps.Put("/draft/credit-facilities/:id", r.handlers.Draft.UpdateCreditFacility)
	apps.Delete("/draft/credit-facilities/:id", r.handlers.Draft.RemoveCreditFacility)

	apps.Post("/draft/references", r.handlers.Draft.AddReference)
	apps.Put("/draft/references/:id", r.handlers.Draft.UpdateReference)
	apps.Delete("/draft/references/:id", r.handlers.Draft.RemoveReference)

	apps.Put("/draft/supplementary", r.handlers.Draft.SetSupplementaryCard)
	apps.Put("/draft/acceptance", r.handlers.Draft.SetAcceptance)

	apps.Post("/draft/advance", r.handlers.Wizard.Advance)
	apps.Post("/draft/retreat", r.handlers.Wizard.Retreat)
	apps.Post("/draft/goto", r.handlers.Wizard.JumpTo)

	otpLimiter := r.authRateLimiter()
	apps.Post("/otp/request", r.handlers.OTP.RequestOTP, otpLimiter)
	apps.Post("/otp/verify", r.handlers.OTP.VerifyOTP, otpLimiter)
	apps.Get("/otp/state", r.handlers.OTP.OTPState)

	apps.Post("/submit", r.handlers.Submission.Submit)
}

// setupStaffRoutes mounts the staff back-office surface
func (r *FiberRouter) setupStaffRoutes(api fiber.Router) {
	staff := api.Group("/staff")
	staff.Use(r.auth.AuthenticateStaff())

	staff.Post("/logout", r.handlers.StaffAuth.Logout)
	staff.Post("/sessions", r.handlers.Session.StartAssisted)

	staff.Get("/applications", r.handlers.Review.ListApplications)
	staff.Get("/applications/export", r.handlers.Review.ExportApplications)
	staff.Get("/applications/:uuid", r.handlers.Review.GetApplication)
	staff.Post("/applications/:uuid/review", r.handlers.Review.StartReview)
	staff.Post("/applications/:uuid/request-documents", r.handlers.Review.RequestDocuments)
	staff.Post("/applications/:uuid/approve", r.handlers.Review.Approve)
	staff.Post("/applications/:uuid/reject", r.handlers.Review.Reject)
	staff.Post("/applications/:uuid/issue-card", r.handlers.Review.IssueCard)
}

// authRateLimiter builds the stricter limiter for credential-minting and OTP
// endpoints.
func (r *FiberRouter) authRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        r.cfg.Security.AuthRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: rateLimitReached,
	})
}

func rateLimitReached(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: "Too many requests. Please try again later.",
		Error: dto.ErrorDetail{
			Code: "RATE_LIMIT_EXCEEDED",
		},
	})
}

// SetupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         r.cfg.Security.XSSProtection,
		ContentTypeNosniff:    r.cfg.Security.XContentTypeOptions,
		XFrameOptions:         r.cfg.Security.XFrameOptions,
		HSTSMaxAge:            r.cfg.Security.HSTSMaxAge,
		HSTSExcludeSubdomains: !r.cfg.Security.HSTSIncludeSubDoms,
		ContentSecurityPolicy: r.cfg.Security.CSPPolicy,
		ReferrerPolicy:        r.cfg.Security.ReferrerPolicy,
	}))

	// CORS middleware with production settings
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	// Compression middleware for performance
	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.Level(r.cfg.Server.CompressionLevel),
		}))
	}

	// Prometheus HTTP metrics
	if r.cfg.Metrics.EnablePrometheus {
		r.app.Use(middleware.Metrics())
	}

	// Structured access logging
	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Next: func(c fiber.Ctx) bool {
				// Skip logging for health checks in production
				return c.Path() == "/api/v1/health"
			},
		}))
	}

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Log panic with request context
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Deployment.Version,
			"service":   "cardapply-api",
		},
	})
}

// Serve Swagger UI HTML page
func (r *FiberRouter) serveSwaggerUI(c fiber.Ctx) error {
	htmlContent := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Card Application API - Swagger UI</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css" />
    <style>
        body {
            margin:0;
            background: #fafafa;
        }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: '/api/v1/swagger.json',
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIStandalonePreset
                ],
                layout: "StandaloneLayout",
                validatorUrl: null
            });
        };
    </script>
</body>
</html>`

	c.Set("Content-Type", "text/html")
	return c.SendString(htmlContent)
}

// Serve Swagger JSON specification
func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	swaggerData, err := os.ReadFile("docs/swagger.json")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error: dto.ErrorDetail{
				Code: "SWAGGER_LOAD_ERROR",
			},
		})
	}

	c.Set("Content-Type", "application/json")
	return c.Send(swaggerData)
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/appform-bd/cardapply/app/dto"
	businessflow "github.com/appform-bd/cardapply/business_flow"
	"github.com/gofiber/fiber/v3"
)

// CardProductHandlerInterface defines the contract for card catalog handlers
type CardProductHandlerInterface interface {
	ListCardProducts(c fiber.Ctx) error
}

// CardProductHandler serves the public card catalog
type CardProductHandler struct {
	productFlow businessflow.CardProductFlow
}

// NewCardProductHandler creates a new card product handler
func NewCardProductHandler(productFlow businessflow.CardProductFlow) *CardProductHandler {
	return &CardProductHandler{productFlow: productFlow}
}

func (h *CardProductHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CardProductHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListCardProducts returns the active card catalog
// @Summary List Card Products
// @Description Get the active card catalog offered on the card selection step
// @Tags Card Products
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CardProductListResponse} "Card products retrieved successfully"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/card-products [get]
func (h *CardProductHandler) ListCardProducts(c fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.productFlow.ListCardProducts(ctx)
	if err != nil {
		log.Println("List card products failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve card products", "LIST_CARD_PRODUCTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Card products retrieved successfully", result)
}

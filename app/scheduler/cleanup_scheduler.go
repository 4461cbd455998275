// Package scheduler
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/appform-bd/cardapply/config"
	"github.com/appform-bd/cardapply/models"
	"github.com/appform-bd/cardapply/repository"
	"github.com/appform-bd/cardapply/utils"
)

// CleanupScheduler periodically retires expired wizard sessions and purges
// draft applications that sat untouched past the retention window. Submitted
// applications are never purged.
type CleanupScheduler struct {
	applicationRepo repository.CardApplicationRepository
	stepRepo        repository.ApplicationStepRepository
	sessionRepo     repository.ApplicantSessionRepository
	snapshotRepo    repository.DraftSnapshotRepository
	auditRepo       repository.AuditLogRepository
	logger          *log.Logger
	interval        time.Duration
	retention       time.Duration
	batchSize       int

	db *gorm.DB

	logFile *os.File
}

func NewCleanupScheduler(
	applicationRepo repository.CardApplicationRepository,
	stepRepo repository.ApplicationStepRepository,
	sessionRepo repository.ApplicantSessionRepository,
	snapshotRepo repository.DraftSnapshotRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
	wizardCfg config.WizardConfig,
) *CleanupScheduler {
	interval := wizardCfg.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}
	retention := wizardCfg.DraftRetention
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	batchSize := wizardCfg.CleanupBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	s := &CleanupScheduler{
		applicationRepo: applicationRepo,
		stepRepo:        stepRepo,
		sessionRepo:     sessionRepo,
		snapshotRepo:    snapshotRepo,
		auditRepo:       auditRepo,
		db:              db,
		interval:        interval,
		retention:       retention,
		batchSize:       batchSize,
	}

	// Initialize scheduler-specific logger (to stdout and persistent file)
	if err := s.initSchedulerLogger(); err != nil {
		// Fallback to default stdout logger if file logger init fails
		s.logger = log.Default()
		s.logger.Printf("cleanup: failed to initialize file logger: %v", err)
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a persistent file under data/ (or /data)
func (s *CleanupScheduler) initSchedulerLogger() error {
	// Prefer relative data/ then fallback to /data for containerized environments
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "cleanup.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		s.logFile = f
		mw := io.MultiWriter(os.Stdout, f)
		s.logger = log.New(mw, "cleanup ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create cleanup log file in any candidate directory")
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *CleanupScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				if s.logFile != nil {
					_ = s.logFile.Close()
				}
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *CleanupScheduler) runOnce(ctx context.Context) {
	s.deactivateExpiredSessions(ctx)
	s.purgeStaleDrafts(ctx)
}

func (s *CleanupScheduler) deactivateExpiredSessions(ctx context.Context) {
	n, err := s.sessionRepo.DeactivateExpired(ctx, utils.UTCNow())
	if err != nil {
		s.logger.Printf("cleanup: deactivate expired sessions failed: %v", err)
		return
	}
	if n > 0 {
		s.logger.Printf("cleanup: deactivated %d expired sessions", n)
	}
}

func (s *CleanupScheduler) purgeStaleDrafts(ctx context.Context) {
	cutoff := utils.UTCNow().Add(-s.retention)

	stale, err := s.applicationRepo.ListStaleDrafts(ctx, cutoff, s.batchSize)
	if err != nil {
		s.logger.Printf("cleanup: list stale drafts failed: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}
	s.logger.Printf("cleanup: %d stale drafts past retention", len(stale))

	purged := 0
	for _, app := range stale {
		if ctx.Err() != nil {
			return
		}
		if err := s.purgeDraft(ctx, app); err != nil {
			s.logger.Printf("cleanup: purge draft %s failed: %v", app.UUID, err)
			continue
		}
		purged++
	}
	if purged > 0 {
		s.logger.Printf("cleanup: purged %d stale drafts", purged)
	}
}

// purgeDraft removes the draft row, its step records and its cache mirror,
// leaving an audit trace of the purge.
func (s *CleanupScheduler) purgeDraft(ctx context.Context, app *models.CardApplication) error {
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.stepRepo.DeleteByApplication(txCtx, app.ID); err != nil {
			return err
		}
		if err := s.applicationRepo.Delete(txCtx, app.ID); err != nil {
			return err
		}

		description := fmt.Sprintf("Draft purged after %s of inactivity", s.retention)
		audit := &models.AuditLog{
			Action:      models.AuditActionDraftPurged,
			Description: &description,
			Success:     utils.ToPtr(true),
			Metadata:    json.RawMessage(fmt.Sprintf(`{"application_uuid":%q}`, app.UUID)),
		}
		return s.auditRepo.Save(txCtx, audit)
	})
	if err != nil {
		return err
	}

	// The cache mirror is cleared outside the transaction; a leftover
	// snapshot ages out via its TTL anyway.
	if err := s.snapshotRepo.Clear(ctx, app.UUID); err != nil {
		s.logger.Printf("cleanup: clear snapshot for %s failed: %v", app.UUID, err)
	}
	return nil
}

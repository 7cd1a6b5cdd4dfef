// Package app assembles the configured components into the two runnable
// programs: the long-lived service (scheduler + admin API) and the one-shot
// portal scraper.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"PrazoScanner/internal/classify"
	"PrazoScanner/internal/config"
	"PrazoScanner/internal/extract"
	"PrazoScanner/internal/infrastructure/browser"
	"PrazoScanner/internal/infrastructure/calendar"
	"PrazoScanner/internal/infrastructure/mail"
	"PrazoScanner/internal/infrastructure/scheduler"
	"PrazoScanner/internal/infrastructure/storage"
	"PrazoScanner/internal/ingest"
	"PrazoScanner/internal/logging"
	"PrazoScanner/internal/ports"
	"PrazoScanner/internal/server"
	"PrazoScanner/internal/usecase"
)

// App is the long-lived service: periodic mailbox sweep plus the admin API.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	db        *sql.DB
	email     *ingest.Email
	scheduler *scheduler.Ticker
	http      *http.Server
}

// New connects the database, ensures the schema and wires every component.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.ValidateMail(); err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Logging.Level)

	db, err := storage.Open(ctx, cfg.Database.DSN, logging.Component(logger, "storage"))
	if err != nil {
		return nil, err
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	store := storage.NewStore(db, logging.Component(logger, "storage"))

	classifier := classify.NewSector(
		cfg.Classify.FinancialQueue, cfg.Classify.DefaultQueue, cfg.Classify.Keywords)

	var cal ports.CalendarSync
	if cfg.Calendar.CredentialsFile != "" {
		google, err := calendar.NewGoogle(ctx, cfg.Calendar.CredentialsFile,
			cfg.Calendar.CalendarID, cfg.Calendar.Timezone,
			logging.Component(logger, "calendar"))
		if err != nil {
			db.Close()
			return nil, err
		}
		cal = google
	} else {
		logger.Info("calendar mirroring disabled, no credentials configured")
	}

	email := ingest.NewEmail(
		func(context.Context) (ports.Mailbox, error) {
			return mail.Dial(cfg.Mail.Server, cfg.Mail.Address, cfg.Mail.Password,
				logging.Component(logger, "mail"))
		},
		store,
		storage.Agenda{Store: store},
		storage.Watermarks{Store: store},
		classifier,
		buildRegistry(cfg.Mail.CourtSenders),
		logging.Component(logger, "email"),
	)
	email.Folders = cfg.Mail.Folders
	email.CourtSenders = cfg.Mail.CourtSenders
	email.DigestSender = cfg.Mail.DigestSender
	email.ExamSender = cfg.Mail.ExamSender
	email.Location = cfg.PJe.Location()

	records := usecase.NewRecords(store, storage.Agenda{Store: store}, cal,
		logging.Component(logger, "records"))
	api := server.New(records, logging.Component(logger, "api"))

	return &App{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		email:     email,
		scheduler: scheduler.NewTicker(cfg.Scheduler.Interval, logging.Component(logger, "scheduler")),
		http:      &http.Server{Addr: cfg.Server.Addr, Handler: api.Router()},
	}, nil
}

// buildRegistry maps each court sender to its extraction strategy. The TRF-2
// eproc layout differs from the TRT one; everything else shares the TRT
// labels.
func buildRegistry(courtSenders []string) *extract.Registry {
	reg := extract.NewRegistry()
	for _, sender := range courtSenders {
		if strings.Contains(strings.ToLower(sender), "trf2") {
			reg.Register(extract.NewTRF2(sender))
		} else {
			reg.Register(extract.NewTRT1(sender))
		}
	}
	return reg
}

// Run blocks until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	err := a.scheduler.Start(ctx, func(time.Time) {
		if _, err := a.email.Run(ctx); err != nil {
			a.logger.Error("mailbox sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	httpErr := make(chan error, 1)
	go func() {
		a.logger.Info("admin api listening", "addr", a.cfg.Server.Addr)
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	select {
	case err := <-httpErr:
		return fmt.Errorf("admin api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("admin api shutdown", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Error("scheduler shutdown", "error", err)
	}
	return a.db.Close()
}

// NewPJeScanner wires the one-shot portal scraper. The caller owns the
// returned close function.
func NewPJeScanner(ctx context.Context, cfg config.Config, dryRun bool) (*ingest.PJe, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.Logging.Level)

	db, err := storage.Open(ctx, cfg.Database.DSN, logging.Component(logger, "storage"))
	if err != nil {
		return nil, nil, err
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	store := storage.NewStore(db, logging.Component(logger, "storage"))

	classifier := classify.NewSector(
		cfg.Classify.FinancialQueue, cfg.Classify.DefaultQueue, cfg.Classify.Keywords)
	renderer := browser.NewChrome(cfg.PJe.BaseURL, cfg.PJe.OABNumber,
		logging.Component(logger, "browser"))

	pje := ingest.NewPJe(renderer, store, storage.Watermarks{Store: store}, classifier,
		cfg.PJe.OABNumber, cfg.PJe.Location(), logging.Component(logger, "pje"))
	pje.DryRun = dryRun
	return pje, db.Close, nil
}

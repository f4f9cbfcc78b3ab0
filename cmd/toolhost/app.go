package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/matiasleandrokruk/toolhost/internal/domain/audit"
	"github.com/matiasleandrokruk/toolhost/internal/domain/market"
	"github.com/matiasleandrokruk/toolhost/internal/domain/tool"
	"github.com/matiasleandrokruk/toolhost/internal/infra/config"
	"github.com/matiasleandrokruk/toolhost/internal/infra/eventbus"
	"github.com/matiasleandrokruk/toolhost/internal/infra/logging"
	"github.com/matiasleandrokruk/toolhost/internal/infra/sqlite"
)

// app holds the components shared by every command that dispatches tools.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sql.DB
	audit      *audit.AuditService
	recorder   *audit.Recorder
	dispatcher *tool.Dispatcher
}

// newApp opens the database, seeds the catalog and builds the sealed
// registry. The caller must run the recorder and close the app.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	db, err := sqlite.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	store := market.NewStore(db)
	if cfg.Database.SeedCatalog {
		companies, err := market.DefaultCatalog()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		added, err := store.Seed(ctx, companies)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		if added > 0 {
			logger.Info("seeded company catalog", slog.Int("added", added))
		}
	}

	registry := tool.NewToolRegistry()
	if err := tool.RegisterBuiltins(registry, tool.BuiltinServices{
		Companies: store,
		Quoter:    market.NewQuoter(),
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("register builtins: %w", err)
	}
	registry.Seal()

	bus := eventbus.New()
	auditService := audit.NewAuditService(db)

	return &app{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		audit:      auditService,
		recorder:   audit.NewRecorder(auditService, bus, logging.Component(logger, "audit")),
		dispatcher: tool.NewDispatcher(registry, tool.WithObserver(audit.NewPublisher(bus))),
	}, nil
}

// runRecorder starts the audit recorder and returns a func that stops it
// after flushing buffered records.
func (a *app) runRecorder(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.recorder.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (a *app) Close() error {
	return a.db.Close()
}

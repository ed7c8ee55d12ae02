package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/casaledger/casa-ledger/internal/domain/auth"
	"github.com/casaledger/casa-ledger/internal/domain/categorization"
	"github.com/casaledger/casa-ledger/internal/domain/expense"
	"github.com/casaledger/casa-ledger/internal/domain/import/ai"
	importhandler "github.com/casaledger/casa-ledger/internal/domain/import/handler"
	importservice "github.com/casaledger/casa-ledger/internal/domain/import/service"
	"github.com/casaledger/casa-ledger/internal/domain/insights"
	"github.com/casaledger/casa-ledger/internal/domain/refdata"
	"github.com/casaledger/casa-ledger/pkg/config"
	"github.com/casaledger/casa-ledger/pkg/cron"
	"github.com/casaledger/casa-ledger/pkg/db"
	"github.com/casaledger/casa-ledger/pkg/money"
	"github.com/casaledger/casa-ledger/pkg/storage"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB // nil in demo mode
	Logger  *slog.Logger
	Catalog *refdata.Catalog

	ExpenseRepo expense.Repository
	SearchIndex *categorization.ExpenseIndex
	Archive     storage.Archive

	AuthService           *auth.Service
	ExpenseService        *expense.Service
	ImportService         *importservice.ImportService
	InsightsService       *insights.Service
	CategorizationService *categorization.Service
	Scheduler             *cron.Scheduler

	AuthHandler           *auth.Handler
	ExpenseHandler        *expense.Handler
	ImportHandler         *importhandler.ImportHandler
	InsightsHandler       *insights.Handler
	CategorizationHandler *categorization.Handler
	RefdataHandler        *refdata.Handler
}

// InitDependencies wires the whole application.
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg, Logger: logger}

	catalog, err := refdata.Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	deps.Catalog = catalog

	if err := deps.initStore(); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	if err := deps.initServices(ctx); err != nil {
		return nil, fmt.Errorf("init services: %w", err)
	}
	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("init handlers: %w", err)
	}

	logger.Info("all dependencies initialized")
	return deps, nil
}

// initStore connects Postgres and runs migrations, or seeds an in-memory
// repository when demo mode is on.
func (d *Dependencies) initStore() error {
	if d.Config.Server.DemoMode {
		repo := expense.NewMemoryRepository()
		if err := repo.SeedDemo(d.Catalog, 6); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		d.ExpenseRepo = repo
		d.Logger.Info("demo mode: in-memory store seeded")
		return nil
	}

	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	if err := database.RunMigrations(); err != nil {
		database.Close()
		return fmt.Errorf("run migrations: %w", err)
	}

	d.DB = database
	d.ExpenseRepo = expense.NewPostgresRepository(database.Pool)
	d.Logger.Info("database connected and migrations applied")
	return nil
}

func (d *Dependencies) initServices(ctx context.Context) error {
	if !d.Config.Server.DemoMode {
		authService, err := auth.NewService(d.Config.Auth.PasswordHash, d.Config.Auth.SigningKey, d.Logger)
		if err != nil {
			return fmt.Errorf("init auth: %w", err)
		}
		d.AuthService = authService
	}

	index, err := categorization.NewExpenseIndex(d.Config.Search.IndexPath)
	if err != nil {
		return fmt.Errorf("init search index: %w", err)
	}
	d.SearchIndex = index

	fmtr := money.NewFormatter(money.DefaultCurrency)
	d.InsightsService = insights.NewService(d.ExpenseRepo, fmtr, d.Logger)
	d.CategorizationService = categorization.NewService(d.Catalog, index, d.ExpenseRepo, d.Logger)

	d.ExpenseService = expense.NewService(d.ExpenseRepo, d.Catalog, d.Logger).
		WithSink(&writeSink{insights: d.InsightsService, search: d.CategorizationService})

	d.ImportService = importservice.NewImportService(d.Catalog, d.ExpenseService, d.Logger)

	archive, err := storage.New(&storage.Config{LocalPath: d.Config.Storage.ArchivePath})
	if err != nil {
		return fmt.Errorf("init archive: %w", err)
	}
	d.Archive = archive
	d.ImportService.WithArchive(archive)

	if d.Config.Gemini.AIEnabled() {
		extractor, err := ai.NewExtractor(ctx, d.Catalog, d.Logger)
		if err != nil {
			return fmt.Errorf("init pdf extractor: %w", err)
		}
		d.ImportService.WithPDFExtractor(extractor.WithModel(d.Config.Gemini.Model))
		d.Logger.Info("pdf statement extraction enabled")
	}

	if err := d.CategorizationService.Reindex(ctx); err != nil {
		// Search lags behind the store; the weekly job will catch it up.
		d.Logger.Warn("initial search index build failed", "error", err)
	}

	d.Scheduler = cron.NewScheduler(d.InsightsService, d.CategorizationService, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() error {
	if d.AuthService != nil {
		d.AuthHandler = auth.NewHandler(d.AuthService, d.Config.Auth.SecureCookies)
	}
	d.ExpenseHandler = expense.NewHandler(d.ExpenseService, d.Logger)
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Logger).WithArchive(d.Archive)
	d.InsightsHandler = insights.NewHandler(d.InsightsService, d.Logger)
	d.CategorizationHandler = categorization.NewHandler(d.CategorizationService, d.Logger)
	d.RefdataHandler = refdata.NewHandler(d.Catalog)

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources.
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.SearchIndex != nil {
		if err := d.SearchIndex.Close(); err != nil {
			d.Logger.Warn("failed to close search index", "error", err)
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}

// writeSink fans committed expense writes out to the read-side caches.
type writeSink struct {
	insights *insights.Service
	search   *categorization.Service
}

func (s *writeSink) ExpensesChanged(expenses []expense.Expense) {
	s.insights.Invalidate()
	s.search.IndexBatch(expenses)
}

func (s *writeSink) ExpenseDeleted(id string) {
	s.insights.Invalidate()
	s.search.Remove(id)
}

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	coachinadapter "intent/internal/modules/coach/adapter/in"
	coachservice "intent/internal/modules/coach/service"
	coachusecase "intent/internal/modules/coach/usecase"
	eventloginadapter "intent/internal/modules/eventlog/adapter/in"
	eventlogoutadapter "intent/internal/modules/eventlog/adapter/out"
	eventlogdomain "intent/internal/modules/eventlog/domain"
	eventlogservice "intent/internal/modules/eventlog/service"
	eventlogusecase "intent/internal/modules/eventlog/usecase"
	riskinadapter "intent/internal/modules/risk/adapter/in"
	riskoutadapter "intent/internal/modules/risk/adapter/out"
	riskservice "intent/internal/modules/risk/service"
	riskusecase "intent/internal/modules/risk/usecase"
	sessioninadapter "intent/internal/modules/session/adapter/in"
	sessionoutadapter "intent/internal/modules/session/adapter/out"
	sessiondomain "intent/internal/modules/session/domain"
	sessiondto "intent/internal/modules/session/dto"
	sessionservice "intent/internal/modules/session/service"
	sessionusecase "intent/internal/modules/session/usecase"
	transferinadapter "intent/internal/modules/transfer/adapter/in"
	transferusecase "intent/internal/modules/transfer/usecase"
	"intent/internal/platform/catalog"
	"intent/internal/platform/clock"
	"intent/internal/platform/config"
	"intent/internal/platform/id"
	"intent/internal/platform/kv"
	"intent/internal/platform/shield"
	"intent/internal/platform/telemetry"
	"intent/internal/platform/tx"
	uiapp "intent/internal/ui/app"
)

const serviceName = "intent"

// Version is stamped at build time.
var Version = "dev"

type App struct {
	EventLogCLI eventloginadapter.CLIHandler
	SessionCLI  sessioninadapter.CLIHandler
	RiskCLI     riskinadapter.CLIHandler
	CoachCLI    coachinadapter.CLIHandler
	TransferCLI transferinadapter.CLIHandler
	Sweeper     *sessioninadapter.Sweeper
	Shield      *shield.Recorder
	Logger      *slog.Logger
	Config      config.Config
	AppIDs      []string

	store    *kv.SQLiteStore
	shutdown telemetry.Shutdown
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := NewLogger(cfg.LogLevel)

	shutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, serviceName, Version)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	apps, err := catalog.LoadFile(cfg.AppsPath)
	if err != nil {
		return nil, err
	}
	store, err := kv.NewSQLiteStore(cfg.DBPath, cfg.QuotaKB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	clk := clock.SystemClock{Location: cfg.Location}
	ids := id.UUID{}
	txm := tx.NewMutexManager()

	logStore := eventlogoutadapter.NewKVLogStore(store)
	norm := eventlogdomain.Normalizer{Catalog: apps, IDs: ids, Clock: clk}
	eventLog := eventlogservice.NewEventLogService(norm, logStore, logger)
	migrator := eventlogservice.NewMigrator(apps, logStore, logStore, logger)
	if _, err := migrator.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate event log: %w", err)
	}
	eventLogUC := eventlogusecase.NewInteractor(eventLog, migrator, txm)

	activeStore := sessionoutadapter.NewKVActiveSessionStore(store)
	policy := sessiondomain.Policy{StaleAfter: cfg.StaleAfter, ActiveMaxAge: cfg.ActiveMaxAge}
	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewSessionService(clk, ids, apps, policy),
		eventLog,
		activeStore,
		txm,
		logger,
	)

	riskUC := riskusecase.NewInteractor(
		riskservice.NewRiskService(clk, apps),
		eventLog,
		riskoutadapter.NewKVPingStore(store),
		txm,
		logger,
	)

	coachUC := coachusecase.NewInteractor(coachservice.NewCoachService(clk), eventLog, riskUC, txm, logger)

	recorder := shield.NewRecorder(store, clk)
	transferUC := transferusecase.NewInteractor(transferusecase.Deps{
		Log:     eventLog,
		Schema:  migrator,
		Active:  activeStore,
		Errors:  recorder,
		Storage: store,
		Clock:   clk,
		Tx:      txm,
		Logger:  logger,
	})

	sweeper := sessioninadapter.NewSweeper(sessionUC, cfg.SweepInterval, logger)
	sweeper.Once(ctx)

	return &App{
		EventLogCLI: eventloginadapter.NewCLIHandler(eventLogUC),
		SessionCLI:  sessioninadapter.NewCLIHandler(sessionUC),
		RiskCLI:     riskinadapter.NewCLIHandler(riskUC),
		CoachCLI:    coachinadapter.NewCLIHandler(coachUC),
		TransferCLI: transferinadapter.NewCLIHandler(transferUC),
		Sweeper:     sweeper,
		Shield:      recorder,
		Logger:      logger,
		Config:      cfg,
		AppIDs:      apps.IDs(),
		store:       store,
		shutdown:    shutdown,
	}, nil
}

// Close flushes telemetry and closes the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close app: %v", errs)
	}
	return nil
}

// NewLogger writes text logs to stderr so command output on stdout stays
// machine-readable.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// RunTUI runs the dashboard with the staleness sweeper alongside it. Quitting
// the dashboard stops the sweeper.
func RunTUI(ctx context.Context, app *App) error {
	model := uiapp.NewModel(app.SessionCLI, app.RiskCLI, app.CoachCLI, app.AppIDs, app.Config.SweepInterval)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	app.Sweeper.OnSweep(func(out sessiondto.SweepOutput) {
		program.Send(uiapp.SweptMsg{Out: out})
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Sweeper.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if err != nil && ctx.Err() != nil {
			return nil
		}
		return err
	})
	return g.Wait()
}

// Watch runs only the staleness sweeper until ctx is cancelled.
func Watch(ctx context.Context, app *App, report func(sessiondto.SweepOutput)) error {
	app.Sweeper.OnSweep(report)
	return app.Sweeper.Run(ctx)
}

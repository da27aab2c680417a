package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/alexanderramin/budgetops/internal/cli"
	"github.com/alexanderramin/budgetops/internal/config"
	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprint(os.Stderr, cli.RenderError(err))
		os.Exit(cli.ExitCode(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()

	// Open database
	var (
		database *sql.DB
		conn     db.DBTX
		uow      db.UnitOfWork
	)
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		database, err = db.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		conn = db.NewPostgresConn(database)
		uow = db.NewPostgresUnitOfWork(database)
	default:
		database, err = db.OpenSQLite(cfg.Database.Path, cfg.Database.BusyTimeoutMs)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		conn = database
		uow = db.NewSQLiteUnitOfWork(database)
	}
	defer database.Close()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithNotesMaxLength(cfg.Workflow.StepNotesMaxLength),
		service.WithTrackerType(cfg.Workflow.TrackerType),
	}
	if cfg.Log.UseCases {
		opts = append(opts, service.WithObserver(service.NewLogUseCaseObserver(os.Stderr)))
	}

	// Wire services
	app := &cli.App{
		BudgetLines:  service.NewBudgetLineService(conn, uow, opts...),
		Reviews:      service.NewReviewService(conn, uow, opts...),
		Trackers:     service.NewProcurementTrackerService(conn, uow, opts...),
		Agreements:   service.NewAgreementService(conn, uow, opts...),
		History:      service.NewHistoryService(conn),
		Actors:       service.NewActorService(conn),
		DefaultActor: cfg.Actor,
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

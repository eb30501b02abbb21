package container

import (
	"context"
	"fmt"
	"log"

	"trialstats/adapters/postgres"
	"trialstats/app"
	"trialstats/internal"
	"trialstats/internal/api"
	"trialstats/internal/config"
	"trialstats/internal/migration"
	"trialstats/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer); nil without a database
	RunRepo *postgres.RunRepository

	// Application services
	Resolver *app.SourceResolver
	Service  *app.AnalysisService
	Exporter *app.Exporter
	Hub      *api.RunHub
}

// New creates a container working from files only. Call InitWithDatabase to
// add the PostgreSQL source and run history.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:   cfg,
		Logger:   internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
		Exporter: app.NewExporter(cfg.Output.Dir, cfg.Output.Formats),
		Hub:      api.NewRunHub(),
	}
	c.initServices()
	return c, nil
}

// InitWithDatabase migrates the schema and rebuilds the services on top of db
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.RunRepo = postgres.NewRunRepository(db)
	c.initServices()

	log.Printf("Container initialized successfully with database connection")
	return nil
}

// initServices wires the resolver and analysis service for the current
// infrastructure.
func (c *Container) initServices() {
	var history ports.RunHistory
	if c.RunRepo != nil {
		history = c.RunRepo
	}
	c.Resolver = app.NewSourceResolver(c.Config.Input.File, c.DB, c.Config.Database.TrialQuery)
	c.Service = app.NewAnalysisService(c.Resolver, history, c.Config.Pipeline.MaxConcurrency, c.Logger)
}

// Analyses returns the definitions of ANALYSES_FILE, or the default
// analysis over INPUT_FILE when no file is configured.
func (c *Container) Analyses() ([]config.Analysis, error) {
	if c.Config.Input.AnalysesFile == "" {
		return []config.Analysis{config.DefaultAnalysis(c.Config.Input.File)}, nil
	}
	file, err := config.LoadAnalyses(c.Config.Input.AnalysesFile)
	if err != nil {
		return nil, err
	}
	return file.Analyses, nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

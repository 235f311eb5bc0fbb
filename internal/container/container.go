package container

import (
	"context"
	"fmt"
	"os"

	"equivproof/adapters/groundtruth"
	"equivproof/adapters/postgres"
	"equivproof/internal"
	"equivproof/internal/config"
	"equivproof/internal/harness"
	"equivproof/internal/ledger"
	"equivproof/internal/migration"
	"equivproof/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	Ledger      *ledger.Ledger
	Harness     *harness.Harness
	GroundTruth ports.GroundTruthPort
	Archive     ports.LedgerArchivePort
}

// New creates a new dependency injection container with an empty ledger
func New(cfg *config.Config, logger *internal.Logger, opts ...ledger.Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	l := ledger.New(append([]ledger.Option{ledger.WithLogger(logger)}, opts...)...)
	c := &Container{
		Config:      cfg,
		Logger:      logger,
		Ledger:      l,
		Harness:     harness.New(l, cfg, logger),
		GroundTruth: groundtruth.NewDirReader(cfg.GroundTruth.Dir, logger),
	}
	return c, nil
}

// OpenDatabase connects to DATABASE_URL when it is set. Without it the
// container runs without an archive.
func (c *Container) OpenDatabase(ctx context.Context) error {
	if c.Config.Ledger.DatabaseURL == "" {
		c.Logger.Debug("DATABASE_URL not set; ledger archive disabled")
		return nil
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Ledger.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return c.InitWithDatabase(ctx, db)
}

// InitWithDatabase migrates the schema and enables the ledger archive
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	if err := migration.NewRunner(c.Logger).Run(ctx, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.Archive = postgres.NewArchiveRepository(db)
	c.Logger.Info("Container initialized successfully with database connection")
	return nil
}

// Shutdown archives pending attempts, writes the ledger export and closes
// the database.
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	if c.Archive != nil {
		if err := c.Ledger.Archive(ctx, c.Archive); err != nil {
			c.Logger.Error("failed to archive ledger: %v", err)
			firstErr = err
		}
	}
	if path := c.Config.Ledger.ExportPath; path != "" && len(c.Ledger.Targets()) > 0 {
		if err := c.Ledger.Export(path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LoadLedger replaces the container's ledger with one read from path. A
// missing file keeps the current (empty) ledger.
func (c *Container) LoadLedger(path string, opts ...ledger.Option) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c.Logger.Debug("no ledger at %s; starting fresh", path)
		return nil
	}
	l, err := ledger.Load(path, append([]ledger.Option{ledger.WithLogger(c.Logger)}, opts...)...)
	if err != nil {
		return err
	}
	c.Ledger = l
	c.Harness.Ledger = l
	return nil
}

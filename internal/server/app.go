// Package server wires the application together: configuration, logging,
// database, blob storage and the archival services, plus signal handling
// for a clean shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/archivekeeper/internal/logging"
	"github.com/dmitrijs2005/archivekeeper/internal/server/blob"
	"github.com/dmitrijs2005/archivekeeper/internal/server/config"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/archivekeeper/internal/server/services"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	repos     repomanager.RepositoryManager
	sink      blob.Sink
	replica   *blob.ReplicatedSink
	tree      *services.TreeService
	authz     *services.AuthzService
	audit     *services.AuditService
	lifecycle *services.LifecycleService
	sharing   *services.SharingService
	search    *services.SearchService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()

	fsSink, err := blob.NewFSSink(c.StorageBasePath)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	var sink blob.Sink = fsSink
	var replica *blob.ReplicatedSink
	if c.S3ReplicaEnabled {
		s3Sink, err := blob.NewS3Sink(ctx, blob.S3Config{
			User:         c.S3RootUser,
			Password:     c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 replica init error: %w", err)
		}
		replica = blob.NewReplicatedSink(fsSink, logger, s3Sink)
		sink = replica
	}

	tree := services.NewTreeService(db, repos, c.MaxTreeDepth, c.MaxTreeNodes)
	authz := services.NewAuthzService(db, repos, tree)
	audit := services.NewAuditService(db, repos, c.AuditLogLimit)

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		repos:     repos,
		sink:      sink,
		replica:   replica,
		tree:      tree,
		authz:     authz,
		audit:     audit,
		lifecycle: services.NewLifecycleService(db, repos, sink, tree, authz, audit, logger),
		sharing:   services.NewSharingService(db, repos, authz, audit, logger),
		search:    services.NewSearchService(db, repos),
	}, nil
}

// Service accessors for embedding transports (HTTP, gRPC, CLI).

func (app *App) Tree() *services.TreeService           { return app.tree }
func (app *App) Authz() *services.AuthzService         { return app.authz }
func (app *App) Audit() *services.AuditService         { return app.audit }
func (app *App) Lifecycle() *services.LifecycleService { return app.lifecycle }
func (app *App) Sharing() *services.SharingService     { return app.sharing }
func (app *App) Search() *services.SearchService       { return app.search }

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run migrates the schema and then blocks until the context is cancelled or
// a termination signal arrives. Shutdown drains pending blob replication
// before closing the database.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	migrationCtx, cancelMigration := context.WithTimeout(ctx, app.config.MigrationTimeout)
	defer cancelMigration()
	if err := app.repos.RunMigrations(migrationCtx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	<-ctx.Done()

	app.logger.Info(context.Background(), "shutting down")
	if app.replica != nil {
		app.replica.Wait()
	}
	return app.db.Close()
}

// Package server assembles and runs the application.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/juanroddotdev/LeadForge/internal/api"
	"github.com/juanroddotdev/LeadForge/internal/archive"
	archivegcs "github.com/juanroddotdev/LeadForge/internal/archive/gcs"
	archivelocal "github.com/juanroddotdev/LeadForge/internal/archive/local"
	archivememory "github.com/juanroddotdev/LeadForge/internal/archive/memory"
	"github.com/juanroddotdev/LeadForge/internal/clock/system"
	"github.com/juanroddotdev/LeadForge/internal/config"
	"github.com/juanroddotdev/LeadForge/internal/discovery"
	"github.com/juanroddotdev/LeadForge/internal/email"
	"github.com/juanroddotdev/LeadForge/internal/enrich"
	"github.com/juanroddotdev/LeadForge/internal/hash/sha256"
	"github.com/juanroddotdev/LeadForge/internal/id/uuid"
	"github.com/juanroddotdev/LeadForge/internal/ingest"
	"github.com/juanroddotdev/LeadForge/internal/lead"
	"github.com/juanroddotdev/LeadForge/internal/logging"
	memorypublisher "github.com/juanroddotdev/LeadForge/internal/publish/memory"
	gcppublisher "github.com/juanroddotdev/LeadForge/internal/publish/pubsub"
	memorystore "github.com/juanroddotdev/LeadForge/internal/store/memory"
	pgstore "github.com/juanroddotdev/LeadForge/internal/store/postgres"
	"github.com/juanroddotdev/LeadForge/internal/telemetry"
	"github.com/juanroddotdev/LeadForge/internal/verify"
)

// App contains the application's dependencies.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	apiServer    *api.Server
	store        lead.Store
	pubsubClient *pubsub.Client
	pubsubTopic  *pubsub.Topic
	gcsClient    *storage.Client
}

// Build creates the application's dependencies from configuration.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	telemetry.Init()

	app := &App{cfg: cfg, logger: logger}
	logger.Info("building application dependencies",
		zap.Int("port", cfg.Server.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("archive_backend", cfg.Archive.Backend),
	)

	if err := setupStore(ctx, app); err != nil {
		return nil, err
	}

	archiver, err := setupArchive(ctx, app)
	if err != nil {
		return nil, err
	}

	publisher, err := setupPublisher(ctx, app)
	if err != nil {
		return nil, err
	}

	searcher := discovery.NewGoogleSearcher(discovery.GoogleConfig{
		APIKey:            cfg.Search.APIKey,
		EngineID:          cfg.Search.EngineID,
		Endpoint:          cfg.Search.Endpoint,
		ResultsPerQuery:   cfg.Search.ResultsPerQuery,
		Timeout:           cfg.SearchTimeout(),
		RequestsPerSecond: cfg.Search.RequestsPerSecond,
	}, logger.Named("search"))
	if !searcher.Configured() {
		logger.Warn("search credentials not configured, website discovery will be skipped")
	}

	discoverer := discovery.New(searcher, discovery.Config{
		QuotaPause: cfg.QuotaPause(),
	}, logger.Named("discovery"))

	verifier := verify.New(verify.Config{
		UserAgent: cfg.Verify.UserAgent,
		Timeout:   cfg.VerifyTimeout(),
	}, logger.Named("verify"))

	enricher := enrich.New(app.store, discoverer, verifier, publisher, enrich.Config{
		RequestsPerSecond: cfg.Enrich.RequestsPerSecond,
		Topic:             cfg.Enrich.Topic,
	}, system.New(), logger.Named("enrich"))

	generator := email.NewGeminiClient(email.GeminiConfig{
		APIKey:   cfg.Generation.APIKey,
		Endpoint: cfg.Generation.Endpoint,
		Model:    cfg.Generation.Model,
		Timeout:  cfg.GenerationTimeout(),
	}, logger.Named("gemini"))
	drafter := email.NewService(generator, logger.Named("email"))

	mappings := ingest.NewMappingRegistry()
	idGen := uuid.New()

	if cfg.Server.SeedFile != "" {
		if err := seedStore(ctx, app, mappings, idGen); err != nil {
			return nil, err
		}
	}

	app.apiServer = api.NewServer(*cfg, app.store, mappings, enricher, drafter,
		archiver, idGen, logger.Named("api"))

	return app, nil
}

// Run starts the HTTP server and blocks until the context is canceled or a
// termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	return a.Close(shutdownCtx)
}

// Close gracefully releases external resources.
func (a *App) Close(context.Context) error {
	if a.pubsubTopic != nil {
		a.pubsubTopic.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if pg, ok := a.store.(*pgstore.Store); ok {
		pg.Close()
	}
	if err := a.logger.Sync(); err != nil {
		a.logger.Warn("logger sync failed", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
	return nil
}

func setupStore(ctx context.Context, app *App) error {
	switch app.cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := pgstore.New(ctx, pgstore.Config{
			DSN:             app.cfg.Store.DSN,
			Table:           app.cfg.Store.Table,
			MaxConns:        app.cfg.Store.MaxConns,
			MinConns:        app.cfg.Store.MinConns,
			MaxConnLifetime: app.cfg.Store.MaxConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("postgres store init failed: %w", err)
		}
		app.store = pg
		app.logger.Info("using postgres business store")
	default:
		app.store = memorystore.NewStore()
		app.logger.Info("using in-memory business store")
	}
	return nil
}

func setupArchive(ctx context.Context, app *App) (*archive.Writer, error) {
	var blobStore lead.BlobStore
	switch app.cfg.Archive.Backend {
	case config.ArchiveBackendNone, "":
		app.logger.Info("upload archival disabled")
		return nil, nil
	case config.ArchiveBackendGCS:
		var err error
		app.gcsClient, err = storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		blobStore, err = archivegcs.New(app.gcsClient, archivegcs.Config{
			Bucket: app.cfg.Archive.Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		app.logger.Info("using GCS archive backend", zap.String("bucket", app.cfg.Archive.Bucket))
	case config.ArchiveBackendLocal:
		var err error
		blobStore, err = archivelocal.New(archivelocal.Config{
			BaseDir: app.cfg.Archive.Local.BaseDir,
		})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		app.logger.Info("using local archive backend", zap.String("path", app.cfg.Archive.Local.BaseDir))
	default:
		blobStore = archivememory.NewBlobStore()
		app.logger.Info("using in-memory archive backend")
	}

	return archive.NewWriter(blobStore, sha256.New(), system.New(),
		app.cfg.Archive.Prefix, app.cfg.Archive.ContentType,
		app.logger.Named("archive")), nil
}

func setupPublisher(ctx context.Context, app *App) (lead.Publisher, error) {
	if app.cfg.PubSub.ProjectID == "" || app.cfg.PubSub.Topic == "" {
		app.logger.Info("no Pub/Sub topic configured, using in-memory publisher")
		return memorypublisher.New(), nil
	}
	var err error
	app.pubsubClient, err = pubsub.NewClient(ctx, app.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client init failed: %w", err)
	}
	app.pubsubTopic = app.pubsubClient.Topic(app.cfg.PubSub.Topic)
	app.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", app.cfg.PubSub.ProjectID),
		zap.String("topic", app.cfg.PubSub.Topic),
	)
	return gcppublisher.New(app.pubsubTopic), nil
}

// seedStore loads an initial dataset from a canonical-format CSV so the API
// starts with data without requiring an upload.
func seedStore(ctx context.Context, app *App, mappings *ingest.MappingRegistry, idGen lead.IDGenerator) error {
	path := app.cfg.Server.SeedFile
	f, err := os.Open(path) // #nosec G304 -- operator-supplied seed path
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	records, err := ingest.FromCanonicalCSV(f, mappings.Snapshot(), idGen)
	if err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := app.store.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	telemetry.SetStoreRecords(len(records))
	app.logger.Info("store seeded", zap.String("file", path), zap.Int("records", len(records)))
	return nil
}

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/atvirokodosprendimai/actionlog/internal/adapters/events"
	"github.com/atvirokodosprendimai/actionlog/internal/adapters/httpapi"
	sqliteadapter "github.com/atvirokodosprendimai/actionlog/internal/adapters/sqlite"
	"github.com/atvirokodosprendimai/actionlog/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
	"github.com/atvirokodosprendimai/actionlog/internal/core/ports"
	"github.com/atvirokodosprendimai/actionlog/internal/core/usecase"
	"github.com/atvirokodosprendimai/actionlog/migrations"
)

type Config struct {
	Addr   string
	DBPath string
	Source string

	DisableBus     bool
	WebhookURL     string
	WebhookSecret  string
	WebhookTimeout time.Duration
	PublishBuffer  int

	BootstrapAPIKey    string
	BootstrapKeyName   string
	BootstrapUserID    int64
	BootstrapAccountID int64
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type jobCloser struct {
	jobs *usecase.JobRunner
}

func (c jobCloser) Close() error {
	c.jobs.Close()
	return nil
}

// NewServer wires the full service: sqlite persistence, directory and
// recorder use cases, the event bus and the HTTP surface. The returned
// closer drains in-flight jobs and queued bus events before closing the
// database.
func NewServer(ctx context.Context, cfg Config, logger *slog.Logger) (*http.Server, io.Closer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := gormsqlite.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migCtx, writeSQLDB); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	eventStore := sqliteadapter.NewEventStore(db)
	directoryRepo := sqliteadapter.NewDirectoryRepository(db)
	apiKeyRepo := sqliteadapter.NewAPIKeyRepository(db)

	var bus ports.EventBus
	var busCloser io.Closer
	switch {
	case cfg.DisableBus:
		bus = nil
	case cfg.WebhookURL != "":
		async := events.NewAsyncPublisher(
			events.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookSecret, cfg.WebhookTimeout),
			cfg.PublishBuffer,
			logger,
		)
		bus = async
		busCloser = async
	default:
		bus = events.NewLogPublisher(logger)
	}

	describer := usecase.NewDescriber(directoryRepo, directoryRepo, directoryRepo, logger)
	recorder := usecase.NewRecorder(eventStore, directoryRepo, directoryRepo, describer, bus, cfg.Source, logger)
	directoryService := usecase.NewDirectoryService(directoryRepo, recorder)
	queryService := usecase.NewEventQueryService(eventStore)
	authService := usecase.NewAuthService(apiKeyRepo)
	jobs := usecase.NewJobRunner(recorder, logger)

	if cfg.BootstrapAPIKey != "" {
		name := cfg.BootstrapKeyName
		if name == "" {
			name = "bootstrap"
		}

		bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := apiKeyRepo.Upsert(bootstrapCtx, domain.APIKey{
			TokenHash: usecase.HashToken(cfg.BootstrapAPIKey),
			Name:      name,
			UserID:    cfg.BootstrapUserID,
			AccountID: cfg.BootstrapAccountID,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		})
		bootstrapCancel()
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("bootstrap api key: %w", err)
		}
	}

	handler := httpapi.NewHandler(recorder, directoryService, queryService, authService, jobs, logger)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, resourceCloser{closers: []io.Closer{jobCloser{jobs: jobs}, busCloser, db}}, nil
}

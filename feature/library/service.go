package library

import (
	"context"
	"errors"
	"net/http"
	stdsync "sync"
	"time"

	"kindle-sync/core/config"
	"kindle-sync/core/region"
	"kindle-sync/core/retry"
	"kindle-sync/feature/library/auth"
	"kindle-sync/feature/library/export"
	"kindle-sync/feature/library/models"
	"kindle-sync/feature/library/scrape"
	"kindle-sync/feature/library/store"
	"kindle-sync/feature/library/sync"

	"go.uber.org/zap"
)

// ErrSyncRunning is returned when a run is requested while another one
// is still in flight. The store is single-writer; concurrent runs
// would race on the same rows.
var ErrSyncRunning = errors.New("a sync is already running")

// Service ties the library operations together: syncing, browsing,
// searching and exporting.
type Service struct {
	store        *store.Store
	auth         *auth.Manager
	orchestrator *sync.Orchestrator
	exporter     *export.Exporter
	logger       *zap.Logger

	syncMu stdsync.Mutex
}

// NewService wires the sync engine from its configuration.
func NewService(s *store.Store, cfg config.SyncConfig, logger *zap.Logger) (*Service, error) {
	r, err := region.Parse(cfg.Region)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	manager := auth.NewManager(s, r, timeout, logger)

	policy := retry.Policy{
		MaxAttempts: cfg.MaxRetries,
		Delay:       time.Duration(cfg.RetryDelaySeconds) * time.Second,
		Backoff:     2,
	}
	factory := func(client *http.Client) scrape.Source {
		return scrape.New(scrape.Options{
			Client:   client,
			Region:   r,
			Policy:   policy,
			Logger:   logger,
			MaxPages: cfg.MaxPages,
		})
	}

	orchestrator := sync.New(s, manager, factory, sync.Config{
		Workers:          cfg.Workers,
		AuthFailureLimit: cfg.AuthFailureLimit,
	}, logger)

	return &Service{
		store:        s,
		auth:         manager,
		orchestrator: orchestrator,
		exporter:     export.New(s, logger),
		logger:       logger,
	}, nil
}

// Auth exposes the session manager for the login commands.
func (s *Service) Auth() *auth.Manager { return s.auth }

// Exporter exposes the file exporter.
func (s *Service) Exporter() *export.Exporter { return s.exporter }

// Sync executes one run. Only one run may be in flight at a time.
func (s *Service) Sync(ctx context.Context, opts sync.Options) (*sync.Result, error) {
	if !s.syncMu.TryLock() {
		return nil, ErrSyncRunning
	}
	defer s.syncMu.Unlock()

	return s.orchestrator.Run(ctx, opts)
}

// Status reports store statistics plus whether a session is stored.
func (s *Service) Status(ctx context.Context) (*StatusReport, error) {
	stats, err := s.store.Statistics(ctx)
	if err != nil {
		return nil, err
	}

	authenticated := true
	if _, err := s.auth.Client(ctx); err != nil {
		if !errors.Is(err, auth.ErrNotAuthenticated) {
			return nil, err
		}
		authenticated = false
	}

	return &StatusReport{
		Stats:         *stats,
		Authenticated: authenticated,
		Region:        string(s.auth.Region()),
	}, nil
}

// StatusReport is the status surface shared by the CLI and the API.
type StatusReport struct {
	store.Stats
	Authenticated bool   `json:"authenticated"`
	Region        string `json:"region"`
}

// Books lists every stored book with its highlight count.
func (s *Service) Books(ctx context.Context) ([]models.BookWithCount, error) {
	return s.store.AllBooksWithCounts(ctx)
}

// Highlights returns a book's highlights in location order.
func (s *Service) Highlights(ctx context.Context, asin string) ([]models.Highlight, error) {
	return s.store.HighlightsFor(ctx, asin)
}

// Search finds highlights matching the query.
func (s *Service) Search(ctx context.Context, query, asin string) ([]models.SearchResult, error) {
	return s.store.Search(ctx, query, asin)
}

// ToggleVisibility flips a highlight's hidden flag.
func (s *Service) ToggleVisibility(ctx context.Context, id string) (bool, error) {
	return s.store.ToggleVisibility(ctx, id)
}

// DeleteBook removes a book and its highlights.
func (s *Service) DeleteBook(ctx context.Context, asin string) error {
	return s.store.DeleteBook(ctx, asin)
}

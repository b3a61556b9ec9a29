package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	stdsync "sync"
	"time"

	"kindle-sync/feature/library/auth"
	"kindle-sync/feature/library/models"
	"kindle-sync/feature/library/reconcile"
	"kindle-sync/feature/library/scrape"
	"kindle-sync/feature/library/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Mode selects how much of the library a run covers.
type Mode string

const (
	// ModeFull fetches highlights for every book.
	ModeFull Mode = "full"
	// ModeIncremental skips books whose last-annotated date has not
	// moved since they were stored.
	ModeIncremental Mode = "incremental"
)

// Status is the overall outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Options selects the scope of one run.
type Options struct {
	// Mode defaults to incremental.
	Mode Mode
	// ASINs restricts the run to the named books when non-empty.
	ASINs []string
}

// BookError records a single book that failed during a run.
type BookError struct {
	ASIN  string `json:"asin"`
	Title string `json:"title"`
	Err   string `json:"error"`
}

// Result summarizes one run.
type Result struct {
	RunID             string      `json:"run_id"`
	Mode              Mode        `json:"mode"`
	Status            Status      `json:"status"`
	BooksSynced       int         `json:"books_synced"`
	BooksSkipped      int         `json:"books_skipped"`
	HighlightsNew     int         `json:"highlights_new"`
	HighlightsUpdated int         `json:"highlights_updated"`
	HighlightsDeleted int         `json:"highlights_deleted"`
	Errors            []BookError `json:"errors,omitempty"`
	StartedAt         time.Time   `json:"started_at"`
	Duration          string      `json:"duration"`
}

// SourceFactory builds the remote source for one run from the
// authenticated client. Swappable in tests.
type SourceFactory func(client *http.Client) scrape.Source

// Orchestrator drives a sync run end to end: authenticate, fetch the
// book list, then fan the per-book work out over a bounded pool.
type Orchestrator struct {
	store            *store.Store
	auth             *auth.Manager
	newSource        SourceFactory
	workers          int
	authFailureLimit int
	logger           *zap.Logger
}

// Config carries the orchestrator's tunables.
type Config struct {
	// Workers bounds the number of books fetched concurrently.
	Workers int
	// AuthFailureLimit is how many consecutive runs may fail with an
	// authentication error before the stored session is invalidated.
	AuthFailureLimit int
}

// New creates an orchestrator.
func New(s *store.Store, m *auth.Manager, factory SourceFactory, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.AuthFailureLimit <= 0 {
		cfg.AuthFailureLimit = 3
	}
	return &Orchestrator{
		store:            s,
		auth:             m,
		newSource:        factory,
		workers:          cfg.Workers,
		authFailureLimit: cfg.AuthFailureLimit,
		logger:           logger,
	}
}

// Run executes one sync pass. A failure of a single book is recorded
// and does not stop the run; an authentication rejection aborts it.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Mode == "" {
		opts.Mode = ModeIncremental
	}

	result := &Result{
		RunID:     uuid.New().String(),
		Mode:      opts.Mode,
		StartedAt: time.Now(),
	}
	log := o.logger.With(zap.String("run_id", result.RunID), zap.String("mode", string(opts.Mode)))
	log.Info("sync started")

	err := o.run(ctx, opts, result, log)
	result.Duration = time.Since(result.StartedAt).Round(time.Millisecond).String()

	switch {
	case err != nil:
		result.Status = StatusFailed
	case len(result.Errors) > 0:
		result.Status = StatusPartial
	default:
		result.Status = StatusSucceeded
	}

	o.finalize(ctx, result, err, log)

	if err != nil {
		return result, err
	}
	log.Info("sync finished",
		zap.String("status", string(result.Status)),
		zap.Int("books", result.BooksSynced),
		zap.Int("skipped", result.BooksSkipped),
		zap.Int("new", result.HighlightsNew),
		zap.Int("updated", result.HighlightsUpdated),
		zap.Int("deleted", result.HighlightsDeleted))
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, opts Options, result *Result, log *zap.Logger) error {
	client, err := o.auth.Client(ctx)
	if err != nil {
		return err
	}
	source := o.newSource(client)

	books, err := source.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}
	log.Info("library fetched", zap.Int("books", len(books)))

	books = filterBooks(books, opts.ASINs)

	var mu stdsync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, book := range books {
		book := book
		g.Go(func() error {
			outcome, err := o.syncBook(gctx, source, book, opts.Mode)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && outcome.skipped:
				result.BooksSkipped++
			case err == nil:
				result.BooksSynced++
				result.HighlightsNew += outcome.inserted
				result.HighlightsUpdated += outcome.updated
				result.HighlightsDeleted += outcome.deleted
			case errors.Is(err, auth.ErrNotAuthenticated):
				// The session died mid-run; stop everything.
				return err
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				log.Warn("book sync failed",
					zap.String("asin", book.ASIN),
					zap.String("title", book.Title),
					zap.Error(err))
				result.Errors = append(result.Errors, BookError{
					ASIN:  book.ASIN,
					Title: book.Title,
					Err:   err.Error(),
				})
			}
			return nil
		})
	}

	return g.Wait()
}

type bookOutcome struct {
	skipped  bool
	inserted int
	updated  int
	deleted  int
}

// syncBook upserts one book's row and, unless the incremental check
// rules it out, reconciles its highlights.
func (o *Orchestrator) syncBook(ctx context.Context, source scrape.Source, book models.Book, mode Mode) (bookOutcome, error) {
	stored, err := o.store.GetBook(ctx, book.ASIN)
	if err != nil {
		return bookOutcome{}, err
	}

	if mode == ModeIncremental && unchanged(stored, &book) {
		return bookOutcome{skipped: true}, nil
	}

	if err := o.store.UpsertBook(ctx, &book); err != nil {
		return bookOutcome{}, err
	}

	fresh, err := source.ListHighlights(ctx, book)
	if err != nil {
		return bookOutcome{}, err
	}

	current, err := o.store.HighlightsFor(ctx, book.ASIN)
	if err != nil {
		return bookOutcome{}, err
	}

	changes := reconcile.Diff(fresh, current)
	if changes.Empty() {
		return bookOutcome{}, nil
	}

	if err := o.store.ApplyChanges(ctx, book.ASIN, changes.Upserts, changes.DeleteIDs); err != nil {
		return bookOutcome{}, err
	}

	return bookOutcome{
		inserted: changes.Inserted,
		updated:  changes.Updated,
		deleted:  len(changes.DeleteIDs),
	}, nil
}

// unchanged reports whether the remote book shows no annotation
// activity since it was stored. Books without dates on either side
// are always fetched.
func unchanged(stored, fresh *models.Book) bool {
	if stored == nil || stored.LastAnnotated == nil || fresh.LastAnnotated == nil {
		return false
	}
	return !fresh.LastAnnotated.After(*stored.LastAnnotated)
}

// finalize records run bookkeeping and maintains the consecutive
// authentication-failure streak that eventually invalidates the
// session.
func (o *Orchestrator) finalize(ctx context.Context, result *Result, runErr error, log *zap.Logger) {
	if err := o.store.SetLastStatus(ctx, string(result.Status)); err != nil {
		log.Warn("failed to record run status", zap.Error(err))
	}
	if result.Status != StatusFailed {
		if err := o.store.SetLastSync(ctx, time.Now()); err != nil {
			log.Warn("failed to record sync time", zap.Error(err))
		}
	}

	if runErr != nil && errors.Is(runErr, auth.ErrNotAuthenticated) {
		streak, err := o.store.AuthFailureStreak(ctx)
		if err != nil {
			log.Warn("failed to read auth failure streak", zap.Error(err))
			return
		}
		streak++
		if err := o.store.SetAuthFailureStreak(ctx, streak); err != nil {
			log.Warn("failed to record auth failure streak", zap.Error(err))
		}
		log.Warn("authentication failed", zap.Int("streak", streak))

		if streak >= o.authFailureLimit {
			log.Warn("auth failure limit reached, invalidating session")
			if err := o.auth.Invalidate(ctx); err != nil {
				log.Warn("failed to invalidate session", zap.Error(err))
			}
			if err := o.store.SetAuthFailureStreak(ctx, 0); err != nil {
				log.Warn("failed to reset auth failure streak", zap.Error(err))
			}
		}
		return
	}

	if runErr == nil {
		if err := o.store.SetAuthFailureStreak(ctx, 0); err != nil {
			log.Warn("failed to reset auth failure streak", zap.Error(err))
		}
	}
}

func filterBooks(books []models.Book, asins []string) []models.Book {
	if len(asins) == 0 {
		return books
	}
	want := make(map[string]struct{}, len(asins))
	for _, a := range asins {
		want[a] = struct{}{}
	}
	out := books[:0]
	for _, b := range books {
		if _, ok := want[b.ASIN]; ok {
			out = append(out, b)
		}
	}
	return out
}

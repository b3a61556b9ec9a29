package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"kindle-sync/core/region"
	"kindle-sync/core/retry"
	"kindle-sync/feature/library/auth"
	"kindle-sync/feature/library/models"

	"go.uber.org/zap"
)

// Source produces the remote library contents. Both calls re-execute
// the full fetch from page one; there is no mid-sequence resume.
type Source interface {
	// ListBooks fetches the complete list of books.
	ListBooks(ctx context.Context) ([]models.Book, error)
	// ListHighlights fetches every highlight of one book, following
	// the pagination until no continuation marker remains.
	ListHighlights(ctx context.Context, book models.Book) ([]models.Highlight, error)
}

// defaultMaxPages bounds a single book's pagination loop.
const defaultMaxPages = 256

// Options configures a Source.
type Options struct {
	// Client is the authenticated HTTP client.
	Client *http.Client
	// Region selects the marketplace endpoints and date formats.
	Region region.Region
	// Policy is applied around every page fetch. Its Retryable
	// predicate is forced to the transient classification.
	Policy retry.Policy
	// Logger receives per-item parse warnings.
	Logger *zap.Logger
	// MaxPages caps the pagination loop per book (0 = default).
	MaxPages int
	// NotebookURL overrides the regional notebook endpoint (tests).
	NotebookURL string
}

// New builds the two-strategy source: the structured endpoint is tried
// first, and the document-scraping strategy takes over when it fails
// for any reason other than an authentication rejection.
func New(opts Options) Source {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultMaxPages
	}
	if opts.NotebookURL == "" {
		opts.NotebookURL = region.Lookup(opts.Region).NotebookURL
	}
	opts.Policy.Retryable = IsTransient

	f := &fetcher{client: opts.Client, policy: opts.Policy}

	return &fallbackSource{
		primary:  &structuredSource{fetcher: f, opts: opts},
		document: &notebookSource{fetcher: f, opts: opts},
		logger:   opts.Logger,
	}
}

// fetcher performs one GET with retry and error classification shared
// by both strategies.
type fetcher struct {
	client *http.Client
	policy retry.Policy
}

// get fetches url and returns the response body. Transient failures
// are retried per the policy; authentication rejections surface as
// auth.ErrNotAuthenticated.
func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	err := f.policy.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return Transient(err)
		}
		defer resp.Body.Close()

		if denied(resp) {
			return fmt.Errorf("remote rejected session: %w", auth.ErrNotAuthenticated)
		}

		switch {
		case resp.StatusCode >= 500:
			return Transient(fmt.Errorf("server error %d from %s", resp.StatusCode, url))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return Transient(fmt.Errorf("failed to read response from %s: %w", url, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// denied recognizes the ways the notebook service refuses a stale
// session: an auth status code or a redirect to the sign-in page.
func denied(resp *http.Response) bool {
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return true
	}
	final := strings.ToLower(resp.Request.URL.String())
	return strings.Contains(final, "signin") || strings.Contains(final, "/ap/") || strings.Contains(final, "login")
}

// tokenGuard aborts pagination when the server repeats a continuation
// token or the page budget runs out.
type tokenGuard struct {
	asin  string
	max   int
	pages int
	seen  map[string]struct{}
}

func newTokenGuard(asin string, max int) *tokenGuard {
	return &tokenGuard{asin: asin, max: max, seen: make(map[string]struct{})}
}

// page records one fetched page; call before every fetch.
func (g *tokenGuard) page() error {
	g.pages++
	if g.pages > g.max {
		return &PaginationLoopError{ASIN: g.asin, Pages: g.pages - 1}
	}
	return nil
}

// next records the continuation token returned by a page.
func (g *tokenGuard) next(token string) error {
	if token == "" {
		return nil
	}
	if _, dup := g.seen[token]; dup {
		return &PaginationLoopError{ASIN: g.asin, Token: token, Pages: g.pages}
	}
	g.seen[token] = struct{}{}
	return nil
}

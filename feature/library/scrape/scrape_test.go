package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kindle-sync/core/identity"
	"kindle-sync/core/region"
	"kindle-sync/core/retry"
	"kindle-sync/feature/library/auth"
	"kindle-sync/feature/library/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}
}

func newTestSource(t *testing.T, handler http.Handler) (Source, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	src := New(Options{
		Client:      srv.Client(),
		Region:      region.Global,
		Policy:      testPolicy(),
		Logger:      zap.NewNop(),
		NotebookURL: srv.URL,
	})
	return src, srv
}

const libraryPage = `<html><body>
<div class="kp-notebook-library-each-book" id="B001AAA111">
  <img class="kp-notebook-cover-image" src="https://img.example/cover1.jpg"/>
  <h2 class="kp-notebook-searchable">First Book</h2>
  <p class="kp-notebook-searchable">By: Ada Author</p>
  <input id="kp-notebook-annotated-date-B001AAA111" value="Monday January 5, 2026"/>
</div>
<div class="kp-notebook-library-each-book" id="B002BBB222">
  <h2 class="kp-notebook-searchable">Second Book</h2>
  <p class="kp-notebook-searchable">Par: Bob Writer</p>
</div>
</body></html>`

func highlightsPage(token string) string {
	next := ""
	if token != "" {
		next = fmt.Sprintf(`<input class="kp-notebook-annotations-next-page-start" value=%q/>
<input class="kp-notebook-content-limit-state" value="state1"/>`, token)
	}
	return fmt.Sprintf(`<html><body>
<div class="a-row a-spacing-base">
  <div class="kp-notebook-highlight kp-notebook-highlight-yellow">
    <span id="highlight">The first highlight from %s.</span>
  </div>
  <input id="kp-annotation-location" value="123"/>
  <span id="annotationNoteHeader">Highlight | Page: 42</span>
  <span id="note">a note<br/>second line</span>
</div>
<div class="a-row a-spacing-base"><span id="highlight"></span></div>
%s
</body></html>`, token, next)
}

func TestStructured_ListBooks(t *testing.T) {
	calls := 0
	src, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/books", r.URL.Path)
		calls++
		switch r.URL.Query().Get("paginationToken") {
		case "":
			fmt.Fprint(w, `{"books":[{"asin":"B001AAA111","title":"First Book","authors":"Ada Author","lastAnnotatedDate":"2026-01-05T00:00:00Z"}],"paginationToken":"T2"}`)
		case "T2":
			fmt.Fprint(w, `{"books":[{"asin":"B002BBB222","title":"Second Book"},{"asin":"","title":"No ASIN"}]}`)
		default:
			t.Fatalf("unexpected token %q", r.URL.Query().Get("paginationToken"))
		}
	}))

	books, err := src.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, 2, calls)

	assert.Equal(t, "B001AAA111", books[0].ASIN)
	assert.Equal(t, "Ada Author", books[0].Author)
	assert.Equal(t, "https://www.amazon.com/dp/B001AAA111", books[0].URL)
	require.NotNil(t, books[0].LastAnnotated)
	assert.Equal(t, 2026, books[0].LastAnnotated.Year())

	assert.Equal(t, "Unknown", books[1].Author)
	assert.Nil(t, books[1].LastAnnotated)
}

func TestStructured_ListHighlights(t *testing.T) {
	src, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/highlights", r.URL.Path)
		require.Equal(t, "B001AAA111", r.URL.Query().Get("asin"))
		switch r.URL.Query().Get("paginationToken") {
		case "":
			fmt.Fprint(w, `{"highlights":[{"text":"Alpha","location":"10","color":"yellow","createdDate":"2026-02-01T00:00:00Z"}],"paginationToken":"T2"}`)
		case "T2":
			fmt.Fprint(w, `{"highlights":[{"text":"Beta","note":"a note"},{"text":""}]}`)
		}
	}))

	hs, err := src.ListHighlights(context.Background(), models.Book{ASIN: "B001AAA111"})
	require.NoError(t, err)
	require.Len(t, hs, 2)

	assert.Equal(t, identity.Derive("Alpha"), hs[0].ID)
	assert.Equal(t, models.ColorYellow, hs[0].Color)
	require.NotNil(t, hs[0].CreatedDate)
	assert.Equal(t, "a note", hs[1].Note)
	assert.Equal(t, "B001AAA111", hs[1].BookASIN)
}

func TestPaginationLoop_RepeatedToken(t *testing.T) {
	src, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every page claims the same continuation token.
		fmt.Fprint(w, `{"highlights":[{"text":"loop"}],"paginationToken":"T2"}`)
	}))

	_, err := src.ListHighlights(context.Background(), models.Book{ASIN: "B001AAA111"})
	require.Error(t, err)
	assert.True(t, IsPaginationLoop(err))

	var pe *PaginationLoopError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "B001AAA111", pe.ASIN)
	assert.Equal(t, "T2", pe.Token)
}

func TestPaginationLoop_PageCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := fmt.Sprintf("T%d", time.Now().UnixNano())
		fmt.Fprintf(w, `{"highlights":[{"text":"page %s"}],"paginationToken":%q}`, token, token)
	}))
	defer srv.Close()

	src := New(Options{
		Client:      srv.Client(),
		Region:      region.Global,
		Policy:      testPolicy(),
		Logger:      zap.NewNop(),
		MaxPages:    3,
		NotebookURL: srv.URL,
	})

	_, err := src.ListHighlights(context.Background(), models.Book{ASIN: "B001AAA111"})
	require.Error(t, err)
	assert.True(t, IsPaginationLoop(err))
}

func TestAuthRejection_NoFallback(t *testing.T) {
	calls := 0
	src, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := src.ListBooks(context.Background())
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	// No retries and no document-strategy attempt.
	assert.Equal(t, 1, calls)
}

func TestRetry_TransientServerErrors(t *testing.T) {
	calls := 0
	src, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"books":[{"asin":"B001AAA111","title":"First Book"}]}`)
	}))

	books, err := src.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 1)
	assert.Equal(t, 3, calls)
}

func TestFallback_DocumentStrategy(t *testing.T) {
	src, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/books" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, libraryPage)
	}))

	books, err := src.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)

	assert.Equal(t, "First Book", books[0].Title)
	assert.Equal(t, "Ada Author", books[0].Author)
	assert.Equal(t, "https://img.example/cover1.jpg", books[0].ImageURL)
	require.NotNil(t, books[0].LastAnnotated)
	assert.Equal(t, time.January, books[0].LastAnnotated.Month())

	assert.Equal(t, "Bob Writer", books[1].Author)
}

func TestNotebook_ListHighlights(t *testing.T) {
	src, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/highlights" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		require.Equal(t, "B001AAA111", r.URL.Query().Get("asin"))
		switch r.URL.Query().Get("token") {
		case "":
			fmt.Fprint(w, highlightsPage("NEXT"))
		case "NEXT":
			require.Equal(t, "state1", r.URL.Query().Get("contentLimitState"))
			fmt.Fprint(w, highlightsPage(""))
		}
	}))

	hs, err := src.ListHighlights(context.Background(), models.Book{ASIN: "B001AAA111"})
	require.NoError(t, err)
	require.Len(t, hs, 2)

	first := hs[0]
	assert.Equal(t, "The first highlight from NEXT.", first.Text)
	assert.Equal(t, identity.Derive(first.Text), first.ID)
	assert.Equal(t, models.ColorYellow, first.Color)
	assert.Equal(t, "123", first.Location)
	assert.Equal(t, "42", first.Page)
	assert.Equal(t, "a note\nsecond line", first.Note)
}

func TestParseAuthor(t *testing.T) {
	assert.Equal(t, "Ada Author", parseAuthor("By: Ada Author"))
	assert.Equal(t, "Bob Writer", parseAuthor("Di: Bob Writer"))
	assert.Equal(t, "No Prefix", parseAuthor("No Prefix"))
	assert.Equal(t, "Unknown", parseAuthor("  "))
}

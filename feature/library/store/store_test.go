package store

import (
	"context"
	"testing"
	"time"

	"kindle-sync/core/database"
	"kindle-sync/feature/library/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Connect(database.Config{Path: ":memory:"})
	require.NoError(t, err)

	s, err := New(db, zap.NewNop())
	require.NoError(t, err)
	return s
}

func testBook(asin string) *models.Book {
	return &models.Book{
		ASIN:   asin,
		Title:  "Test Title " + asin,
		Author: "Test Author",
		URL:    "https://www.amazon.com/dp/" + asin,
	}
}

func TestUpsertBook_InsertThenUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	book := testBook("B001")
	book.Notes = "my shelf notes"
	require.NoError(t, s.UpsertBook(ctx, book))

	// Second sync observes a new title; user notes must survive.
	updated := testBook("B001")
	updated.Title = "Renamed Title"
	require.NoError(t, s.UpsertBook(ctx, updated))

	got, err := s.GetBook(ctx, "B001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renamed Title", got.Title)
	assert.Equal(t, "my shelf notes", got.Notes)
}

func TestGetBook_Missing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetBook(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestApplyChanges_SingleTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertBook(ctx, testBook("B001")))

	first := []models.Highlight{
		{ID: "aaaa0001", BookASIN: "B001", Text: "alpha", Location: "100-120"},
		{ID: "aaaa0002", BookASIN: "B001", Text: "beta", Location: "10-12"},
	}
	require.NoError(t, s.ApplyChanges(ctx, "B001", first, nil))

	count, err := s.CountHighlights(ctx, "B001")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Replace one, delete the other, insert a third: one batch.
	second := []models.Highlight{
		{ID: "aaaa0001", BookASIN: "B001", Text: "alpha revised", Location: "100-120"},
		{ID: "aaaa0003", BookASIN: "B001", Text: "gamma", Location: "200-210"},
	}
	require.NoError(t, s.ApplyChanges(ctx, "B001", second, []string{"aaaa0002"}))

	highlights, err := s.HighlightsFor(ctx, "B001")
	require.NoError(t, err)
	require.Len(t, highlights, 2)

	// Ordered by numeric location prefix.
	assert.Equal(t, "alpha revised", highlights[0].Text)
	assert.Equal(t, "gamma", highlights[1].Text)
}

func TestApplyChanges_UpsertRetainsHiddenFlag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertBook(ctx, testBook("B001")))
	require.NoError(t, s.ApplyChanges(ctx, "B001",
		[]models.Highlight{{ID: "aaaa0001", BookASIN: "B001", Text: "alpha"}}, nil))

	hidden, err := s.ToggleVisibility(ctx, "aaaa0001")
	require.NoError(t, err)
	assert.True(t, hidden)

	// A later sync upserting the same row must not resurrect it.
	require.NoError(t, s.ApplyChanges(ctx, "B001",
		[]models.Highlight{{ID: "aaaa0001", BookASIN: "B001", Text: "alpha again"}}, nil))

	highlights, err := s.HighlightsFor(ctx, "B001")
	require.NoError(t, err)
	require.Len(t, highlights, 1)
	assert.True(t, highlights[0].IsHidden)
	assert.Equal(t, "alpha again", highlights[0].Text)
}

func TestApplyChanges_RejectsUnknownParent(t *testing.T) {
	s := newTestStore(t)

	err := s.ApplyChanges(context.Background(), "GHOST",
		[]models.Highlight{{ID: "aaaa0001", BookASIN: "GHOST", Text: "orphan"}}, nil)
	assert.Error(t, err, "foreign key must reject highlights without a book")
}

func TestDeleteBook_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertBook(ctx, testBook("B001")))
	require.NoError(t, s.UpsertBook(ctx, testBook("B002")))
	require.NoError(t, s.ApplyChanges(ctx, "B001", []models.Highlight{
		{ID: "aaaa0001", BookASIN: "B001", Text: "alpha"},
		{ID: "aaaa0002", BookASIN: "B001", Text: "beta"},
	}, nil))
	require.NoError(t, s.ApplyChanges(ctx, "B002", []models.Highlight{
		{ID: "bbbb0001", BookASIN: "B002", Text: "other"},
	}, nil))

	require.NoError(t, s.DeleteBook(ctx, "B001"))

	count, err := s.CountHighlights(ctx, "B001")
	require.NoError(t, err)
	assert.EqualValues(t, 0, count, "no highlights with the deleted parent may remain")

	count, err = s.CountHighlights(ctx, "B002")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "other books are untouched")
}

func TestSessionKV(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, "region", "uk"))
	require.NoError(t, s.SaveSession(ctx, "region", "japan"))

	got, err := s.GetSession(ctx, "region")
	require.NoError(t, err)
	assert.Equal(t, "japan", got)

	require.NoError(t, s.ClearSession(ctx))
	got, err = s.GetSession(ctx, "region")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRunMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	last, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, s.SetLastSync(ctx, now))
	require.NoError(t, s.SetLastStatus(ctx, "partial"))
	require.NoError(t, s.SetAuthFailureStreak(ctx, 2))

	last, err = s.LastSync(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(now))

	status, err := s.LastStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "partial", status)

	streak, err := s.AuthFailureStreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertBook(ctx, testBook("B001")))
	require.NoError(t, s.ApplyChanges(ctx, "B001", []models.Highlight{
		{ID: "aaaa0001", BookASIN: "B001", Text: "the habit loop"},
		{ID: "aaaa0002", BookASIN: "B001", Text: "something else", Note: "habits matter"},
		{ID: "aaaa0003", BookASIN: "B001", Text: "unrelated"},
	}, nil))

	results, err := s.Search(ctx, "habit", "")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = s.Search(ctx, "habit", "B999")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = s.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertBook(ctx, testBook("B001")))
	require.NoError(t, s.ApplyChanges(ctx, "B001", []models.Highlight{
		{ID: "aaaa0001", BookASIN: "B001", Text: "alpha"},
	}, nil))

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Books)
	assert.EqualValues(t, 1, stats.Highlights)
}

package reconcile

import (
	"testing"
	"time"

	"kindle-sync/feature/library/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func h(id, text string) models.Highlight {
	return models.Highlight{ID: id, BookASIN: "B001", Text: text}
}

func TestDiff_FreshStore(t *testing.T) {
	fresh := []models.Highlight{h("a1", "Alpha"), h("b2", "Beta")}

	changes := Diff(fresh, nil)

	assert.Equal(t, 2, changes.Inserted)
	assert.Equal(t, 0, changes.Updated)
	assert.Empty(t, changes.DeleteIDs)
	require.Len(t, changes.Upserts, 2)
	assert.Equal(t, "Alpha", changes.Upserts[0].Text)
}

func TestDiff_Idempotent(t *testing.T) {
	fresh := []models.Highlight{h("a1", "Alpha"), h("b2", "Beta")}

	changes := Diff(fresh, fresh)

	assert.True(t, changes.Empty())
	assert.Equal(t, 0, changes.Inserted)
	assert.Equal(t, 0, changes.Updated)
}

func TestDiff_UpdateAndDelete(t *testing.T) {
	stored := []models.Highlight{h("a1", "Alpha"), h("b2", "Beta"), h("c3", "Gamma")}

	fresh := []models.Highlight{h("a1", "Alpha"), h("b2", "Beta")}
	fresh[1].Location = "200"

	changes := Diff(fresh, stored)

	assert.Equal(t, 0, changes.Inserted)
	assert.Equal(t, 1, changes.Updated)
	require.Len(t, changes.Upserts, 1)
	assert.Equal(t, "b2", changes.Upserts[0].ID)
	assert.Equal(t, []string{"c3"}, changes.DeleteIDs)
}

func TestDiff_PreservesNote(t *testing.T) {
	stored := h("a1", "Alpha")
	stored.Note = "my thoughts"

	// Remote copy dropped the note; location changed.
	fresh := h("a1", "Alpha")
	fresh.Location = "300"

	changes := Diff([]models.Highlight{fresh}, []models.Highlight{stored})

	require.Len(t, changes.Upserts, 1)
	assert.Equal(t, "my thoughts", changes.Upserts[0].Note)
}

func TestDiff_NoteDroppedRemotely(t *testing.T) {
	noted := h("a1", "Alpha")
	noted.Note = "mine"
	stored := []models.Highlight{noted, h("b2", "Beta")}

	// The remote copy of Alpha no longer carries the note, and Beta is
	// gone entirely.
	fresh := []models.Highlight{h("a1", "Alpha")}

	changes := Diff(fresh, stored)

	assert.Equal(t, 0, changes.Inserted)
	assert.Equal(t, 1, changes.Updated)
	require.Len(t, changes.Upserts, 1)
	assert.Equal(t, "a1", changes.Upserts[0].ID)
	assert.Equal(t, "mine", changes.Upserts[0].Note)
	assert.Equal(t, []string{"b2"}, changes.DeleteIDs)
}

func TestDiff_FreshNoteWins(t *testing.T) {
	stored := h("a1", "Alpha")
	stored.Note = "old"

	fresh := h("a1", "Alpha")
	fresh.Note = "new"

	changes := Diff([]models.Highlight{fresh}, []models.Highlight{stored})

	require.Len(t, changes.Upserts, 1)
	assert.Equal(t, "new", changes.Upserts[0].Note)
	assert.Equal(t, 1, changes.Updated)
}

func TestDiff_HiddenSurvivesDeletion(t *testing.T) {
	hidden := h("a1", "Alpha")
	hidden.IsHidden = true
	stored := []models.Highlight{hidden, h("b2", "Beta")}

	changes := Diff(nil, stored)

	assert.Equal(t, []string{"b2"}, changes.DeleteIDs)
}

func TestDiff_PreservesCreatedDate(t *testing.T) {
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	stored := h("a1", "Alpha")
	stored.CreatedDate = &created

	fresh := h("a1", "Alpha")
	fresh.Page = "7"

	changes := Diff([]models.Highlight{fresh}, []models.Highlight{stored})

	require.Len(t, changes.Upserts, 1)
	require.NotNil(t, changes.Upserts[0].CreatedDate)
	assert.True(t, changes.Upserts[0].CreatedDate.Equal(created))
}

func TestDiff_DuplicateFreshIDsCollapse(t *testing.T) {
	fresh := []models.Highlight{h("a1", "Alpha"), h("a1", "Alpha")}

	changes := Diff(fresh, nil)
	assert.Equal(t, 1, changes.Inserted)
	assert.Len(t, changes.Upserts, 1)
}

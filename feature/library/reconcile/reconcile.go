package reconcile

import (
	"time"

	"kindle-sync/feature/library/models"
)

// Changes is the outcome of diffing a fresh remote fetch against the
// stored rows of one book. Upserts and DeleteIDs together describe a
// single transactional batch.
type Changes struct {
	// Upserts are the highlights to insert or update, in fetch order.
	Upserts []models.Highlight
	// DeleteIDs are stored highlights absent from the fresh fetch.
	DeleteIDs []string
	// Inserted and Updated split the upserts for reporting.
	Inserted int
	Updated  int
}

// Empty reports whether the diff found nothing to do.
func (c Changes) Empty() bool {
	return len(c.Upserts) == 0 && len(c.DeleteIDs) == 0
}

// Diff compares a fresh fetch against the stored highlights of the
// same book and produces the changes that make the store match the
// remote. The fresh fetch is authoritative for highlight content, with
// two exceptions: a stored note survives when the fresh copy carries
// none, and hidden highlights are never deleted.
//
// Both inputs are keyed by the content-derived ID, so the comparison
// is linear. Iteration follows the fresh slice to keep the output
// deterministic.
func Diff(fresh, stored []models.Highlight) Changes {
	existing := make(map[string]models.Highlight, len(stored))
	for _, h := range stored {
		existing[h.ID] = h
	}

	var changes Changes
	seen := make(map[string]struct{}, len(fresh))

	for _, h := range fresh {
		if _, dup := seen[h.ID]; dup {
			continue
		}
		seen[h.ID] = struct{}{}

		prev, ok := existing[h.ID]
		if !ok {
			changes.Upserts = append(changes.Upserts, h)
			changes.Inserted++
			continue
		}

		if differs(h, prev) {
			if h.Note == "" {
				h.Note = prev.Note
			}
			if h.CreatedDate == nil {
				h.CreatedDate = prev.CreatedDate
			}
			changes.Upserts = append(changes.Upserts, h)
			changes.Updated++
		}
	}

	for _, h := range stored {
		if _, ok := seen[h.ID]; ok {
			continue
		}
		if h.IsHidden {
			continue
		}
		changes.DeleteIDs = append(changes.DeleteIDs, h.ID)
	}

	return changes
}

// differs compares the synced fields as fetched; user-owned state like
// visibility never triggers an update. A note that disappeared
// remotely still counts as a difference, so the merged row (with the
// stored note kept) is re-written.
func differs(fresh, stored models.Highlight) bool {
	if fresh.Text != stored.Text ||
		fresh.Location != stored.Location ||
		fresh.Page != stored.Page ||
		fresh.Note != stored.Note ||
		fresh.Color != stored.Color {
		return true
	}
	return !equalTimes(fresh.CreatedDate, stored.CreatedDate)
}

func equalTimes(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

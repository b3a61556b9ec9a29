package store

import (
	"context"
	"errors"
	"fmt"

	"kindle-sync/feature/library/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store provides durable keyed storage for books, highlights and the
// session/run-metadata key-value areas.
//
// All mutating operations are transactional: the batch of upserts and
// deletes applied for one book during a sync pass commits as a single
// unit, so a crash mid-batch leaves the previous consistent state.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// bookSyncColumns are the columns the remote system owns on a book.
// User-curated reading metadata is never overwritten by a sync.
var bookSyncColumns = []string{"title", "author", "url", "image_url", "last_annotated_date", "updated_at"}

// highlightSyncColumns are the columns replaced on a highlight upsert.
var highlightSyncColumns = []string{"text", "location", "page", "note", "color", "created_date"}

// New migrates the schema and returns a ready store.
func New(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if err := db.AutoMigrate(
		&models.Book{},
		&models.Highlight{},
		&sessionEntry{},
		&metadataEntry{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// DB exposes the underlying handle for callers that need to share it
// (the orchestrator owns it for the duration of a run).
func (s *Store) DB() *gorm.DB { return s.db }

// UpsertBook inserts the book or refreshes its remote-owned columns.
func (s *Store) UpsertBook(ctx context.Context, book *models.Book) error {
	err := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "asin"}},
			DoUpdates: clause.AssignmentColumns(bookSyncColumns),
		}).
		Create(book).Error
	if err != nil {
		return fmt.Errorf("failed to upsert book %s: %w", book.ASIN, err)
	}
	return nil
}

// GetBook returns the book or nil when it is not stored.
func (s *Store) GetBook(ctx context.Context, asin string) (*models.Book, error) {
	var book models.Book
	err := s.db.WithContext(ctx).First(&book, "asin = ?", asin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load book %s: %w", asin, err)
	}
	return &book, nil
}

// AllBooks returns every stored book ordered by title.
func (s *Store) AllBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := s.db.WithContext(ctx).Order("title").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// AllBooksWithCounts returns every book with its highlight count.
func (s *Store) AllBooksWithCounts(ctx context.Context) ([]models.BookWithCount, error) {
	books, err := s.AllBooks(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.BookWithCount, 0, len(books))
	for _, b := range books {
		count, err := s.CountHighlights(ctx, b.ASIN)
		if err != nil {
			return nil, err
		}
		out = append(out, models.BookWithCount{Book: b, HighlightCount: count})
	}
	return out, nil
}

// DeleteBook removes a book and, via the cascade, all its highlights.
func (s *Store) DeleteBook(ctx context.Context, asin string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Explicit child delete keeps the semantics even on databases
		// opened without the foreign-key pragma.
		if err := tx.Where("book_asin = ?", asin).Delete(&models.Highlight{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Book{}, "asin = ?", asin).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete book %s: %w", asin, err)
	}
	return nil
}

// HighlightsFor returns all highlights of a book ordered by the numeric
// prefix of their location marker.
func (s *Store) HighlightsFor(ctx context.Context, asin string) ([]models.Highlight, error) {
	var highlights []models.Highlight
	err := s.db.WithContext(ctx).
		Where("book_asin = ?", asin).
		Order(`CASE
			WHEN location IS NOT NULL AND location != '' THEN
				CAST(substr(location, 1, instr(location || '-', '-') - 1) AS INTEGER)
			ELSE 999999
		END`).
		Find(&highlights).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list highlights for %s: %w", asin, err)
	}
	return highlights, nil
}

// CountHighlights returns the number of highlights stored for a book.
func (s *Store) CountHighlights(ctx context.Context, asin string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Highlight{}).
		Where("book_asin = ?", asin).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count highlights for %s: %w", asin, err)
	}
	return count, nil
}

// ApplyChanges commits one reconciliation outcome for a book: a batch
// of highlight upserts plus a set of deletions, in a single transaction.
func (s *Store) ApplyChanges(ctx context.Context, asin string, upserts []models.Highlight, deleteIDs []string) error {
	if len(upserts) == 0 && len(deleteIDs) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(upserts) > 0 {
			if err := tx.
				Omit(clause.Associations).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "id"}},
					DoUpdates: clause.AssignmentColumns(highlightSyncColumns),
				}).
				Create(&upserts).Error; err != nil {
				return err
			}
		}

		if len(deleteIDs) > 0 {
			if err := tx.
				Where("book_asin = ? AND id IN ?", asin, deleteIDs).
				Delete(&models.Highlight{}).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply changes for %s: %w", asin, err)
	}

	s.logger.Debug("applied highlight changes",
		zap.String("asin", asin),
		zap.Int("upserts", len(upserts)),
		zap.Int("deletes", len(deleteIDs)))
	return nil
}

// ToggleVisibility flips the hidden flag of a highlight and returns the
// new state.
func (s *Store) ToggleVisibility(ctx context.Context, id string) (bool, error) {
	var hidden bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var h models.Highlight
		if err := tx.Select("id", "is_hidden").First(&h, "id = ?", id).Error; err != nil {
			return err
		}
		hidden = !h.IsHidden
		return tx.Model(&models.Highlight{}).Where("id = ?", id).
			Update("is_hidden", hidden).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("highlight %s not found", id)
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle visibility of %s: %w", id, err)
	}
	return hidden, nil
}

// Search returns highlights whose text or note matches the query,
// optionally restricted to one book.
func (s *Store) Search(ctx context.Context, query, asin string) ([]models.SearchResult, error) {
	if query == "" {
		return nil, nil
	}

	pattern := "%" + query + "%"
	q := s.db.WithContext(ctx).
		Where("text LIKE ? OR note LIKE ?", pattern, pattern)
	if asin != "" {
		q = q.Where("book_asin = ?", asin)
	}

	var highlights []models.Highlight
	if err := q.Order("book_asin, page, location").Find(&highlights).Error; err != nil {
		return nil, fmt.Errorf("failed to search highlights: %w", err)
	}

	// Resolve books once per ASIN.
	bookCache := make(map[string]*models.Book)
	results := make([]models.SearchResult, 0, len(highlights))
	for _, h := range highlights {
		book, ok := bookCache[h.BookASIN]
		if !ok {
			var err error
			book, err = s.GetBook(ctx, h.BookASIN)
			if err != nil {
				return nil, err
			}
			bookCache[h.BookASIN] = book
		}
		if book == nil {
			continue
		}
		results = append(results, models.SearchResult{Highlight: h, Book: *book})
	}
	return results, nil
}

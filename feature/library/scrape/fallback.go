package scrape

import (
	"context"
	"errors"

	"kindle-sync/feature/library/auth"
	"kindle-sync/feature/library/models"

	"go.uber.org/zap"
)

// fallbackSource tries the structured endpoint first and falls back to
// scraping the notebook page when it fails. Authentication rejections
// and pagination loops are not papered over: the document strategy
// would hit the same wall, or worse, mask a real abort condition.
type fallbackSource struct {
	primary  Source
	document Source
	logger   *zap.Logger
}

func (s *fallbackSource) ListBooks(ctx context.Context) ([]models.Book, error) {
	books, err := s.primary.ListBooks(ctx)
	if err == nil {
		return books, nil
	}
	if !shouldFallBack(err) {
		return nil, err
	}

	s.logger.Warn("structured endpoint failed, scraping notebook page", zap.Error(err))
	return s.document.ListBooks(ctx)
}

func (s *fallbackSource) ListHighlights(ctx context.Context, book models.Book) ([]models.Highlight, error) {
	highlights, err := s.primary.ListHighlights(ctx, book)
	if err == nil {
		return highlights, nil
	}
	if !shouldFallBack(err) {
		return nil, err
	}

	s.logger.Warn("structured endpoint failed, scraping notebook page",
		zap.String("asin", book.ASIN), zap.Error(err))
	return s.document.ListHighlights(ctx, book)
}

// shouldFallBack decides whether a primary-strategy failure is worth a
// second attempt through the document strategy.
func shouldFallBack(err error) bool {
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		return false
	case IsPaginationLoop(err):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"kindle-sync/core/identity"
	"kindle-sync/core/region"
	"kindle-sync/feature/library/models"

	"go.uber.org/zap"
)

// structuredSource reads the JSON endpoints behind the notebook page.
// Pages are chained through opaque continuation tokens returned by the
// server.
type structuredSource struct {
	fetcher *fetcher
	opts    Options
}

type apiBook struct {
	ASIN          string `json:"asin"`
	Title         string `json:"title"`
	Author        string `json:"authors"`
	CoverURL      string `json:"coverUrl"`
	LastAnnotated string `json:"lastAnnotatedDate"`
}

type apiBooksPage struct {
	Books     []apiBook `json:"books"`
	NextToken string    `json:"paginationToken"`
}

type apiHighlight struct {
	Text     string `json:"text"`
	Location string `json:"location"`
	Page     string `json:"page"`
	Note     string `json:"note"`
	Color    string `json:"color"`
	Created  string `json:"createdDate"`
}

type apiHighlightsPage struct {
	Highlights []apiHighlight `json:"highlights"`
	NextToken  string         `json:"paginationToken"`
}

func (s *structuredSource) ListBooks(ctx context.Context) ([]models.Book, error) {
	endpoints := region.Lookup(s.opts.Region)
	guard := newTokenGuard("library", s.opts.MaxPages)

	var books []models.Book
	token := ""

	for {
		if err := guard.page(); err != nil {
			return nil, err
		}

		pageURL := s.opts.NotebookURL + "/api/books"
		if token != "" {
			pageURL += "?paginationToken=" + url.QueryEscape(token)
		}

		body, err := s.fetcher.get(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		var page apiBooksPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("malformed books payload: %w", err)
		}

		for _, b := range page.Books {
			if b.ASIN == "" || b.Title == "" {
				s.opts.Logger.Warn("skipping book without asin or title")
				continue
			}
			books = append(books, s.toBook(b, endpoints))
		}

		if page.NextToken == "" {
			return books, nil
		}
		if err := guard.next(page.NextToken); err != nil {
			return nil, err
		}
		token = page.NextToken
	}
}

func (s *structuredSource) ListHighlights(ctx context.Context, book models.Book) ([]models.Highlight, error) {
	guard := newTokenGuard(book.ASIN, s.opts.MaxPages)

	var highlights []models.Highlight
	token := ""

	for {
		if err := guard.page(); err != nil {
			return nil, err
		}

		pageURL := fmt.Sprintf("%s/api/highlights?asin=%s", s.opts.NotebookURL, url.QueryEscape(book.ASIN))
		if token != "" {
			pageURL += "&paginationToken=" + url.QueryEscape(token)
		}

		body, err := s.fetcher.get(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		var page apiHighlightsPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("malformed highlights payload for %s: %w", book.ASIN, err)
		}

		for _, h := range page.Highlights {
			if h.Text == "" {
				continue
			}
			highlights = append(highlights, s.toHighlight(h, book.ASIN))
		}

		if page.NextToken == "" {
			return highlights, nil
		}
		if err := guard.next(page.NextToken); err != nil {
			return nil, err
		}
		token = page.NextToken
	}
}

func (s *structuredSource) toBook(b apiBook, endpoints region.Endpoints) models.Book {
	author := b.Author
	if author == "" {
		author = "Unknown"
	}

	book := models.Book{
		ASIN:     b.ASIN,
		Title:    b.Title,
		Author:   author,
		URL:      fmt.Sprintf("https://www.%s/dp/%s", endpoints.Hostname, b.ASIN),
		ImageURL: b.CoverURL,
	}

	if b.LastAnnotated != "" {
		if t, ok := parseAnyDate(s.opts.Region, b.LastAnnotated); ok {
			book.LastAnnotated = &t
		}
	}

	return book
}

func (s *structuredSource) toHighlight(h apiHighlight, asin string) models.Highlight {
	out := models.Highlight{
		ID:       identity.Derive(h.Text),
		BookASIN: asin,
		Text:     h.Text,
		Location: h.Location,
		Page:     h.Page,
		Note:     h.Note,
	}

	if color, ok := models.ParseColor(h.Color); ok {
		out.Color = color
	}

	if h.Created != "" {
		if t, ok := parseAnyDate(s.opts.Region, h.Created); ok {
			out.CreatedDate = &t
		} else {
			s.opts.Logger.Debug("unparseable highlight date",
				zap.String("asin", asin), zap.String("date", h.Created))
		}
	}

	return out
}

// parseAnyDate tries RFC 3339 first, then the regional page layouts.
// A failed parse leaves the date absent without failing the item.
func parseAnyDate(r region.Region, text string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, true
	}
	return region.ParseDate(r, text)
}

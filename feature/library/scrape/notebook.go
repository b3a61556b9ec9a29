package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"kindle-sync/core/identity"
	"kindle-sync/core/region"
	"kindle-sync/feature/library/models"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// notebookSource scrapes the rendered notebook page. It is the
// fallback strategy: slower and more fragile than the structured
// endpoint, but it works against the plain HTML the service always
// serves.
type notebookSource struct {
	fetcher *fetcher
	opts    Options
}

var (
	authorPrefixes = []string{"By: ", "Par: ", "De: ", "Di: ", "Por: "}
	highlightClass = regexp.MustCompile(`kp-notebook-highlight-(\w+)`)
	trailingDigits = regexp.MustCompile(`(\d+)\s*$`)
	brTag          = regexp.MustCompile(`(?i)<br\s*/?>`)
)

func (s *notebookSource) ListBooks(ctx context.Context) ([]models.Book, error) {
	body, err := s.fetcher.get(ctx, s.opts.NotebookURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse library page: %w", err)
	}

	endpoints := region.Lookup(s.opts.Region)

	var books []models.Book
	doc.Find(".kp-notebook-library-each-book").Each(func(_ int, sel *goquery.Selection) {
		asin, _ := sel.Attr("id")
		title := strings.TrimSpace(sel.Find("h2.kp-notebook-searchable").Text())
		if asin == "" || title == "" {
			s.opts.Logger.Warn("skipping library entry without asin or title")
			return
		}

		book := models.Book{
			ASIN:   asin,
			Title:  title,
			Author: parseAuthor(sel.Find("p.kp-notebook-searchable").Text()),
			URL:    fmt.Sprintf("https://www.%s/dp/%s", endpoints.Hostname, asin),
		}
		if src, ok := sel.Find(".kp-notebook-cover-image").Attr("src"); ok {
			book.ImageURL = src
		}
		if raw, ok := sel.Find(`input[id^="kp-notebook-annotated-date"]`).Attr("value"); ok {
			if t, parsed := region.ParseDate(s.opts.Region, raw); parsed {
				book.LastAnnotated = &t
			} else {
				s.opts.Logger.Debug("unparseable annotated date",
					zap.String("asin", asin), zap.String("date", raw))
			}
		}

		books = append(books, book)
	})

	return books, nil
}

func (s *notebookSource) ListHighlights(ctx context.Context, book models.Book) ([]models.Highlight, error) {
	guard := newTokenGuard(book.ASIN, s.opts.MaxPages)

	var highlights []models.Highlight
	token, limitState := "", ""
	first := true

	for first || token != "" {
		first = false
		if err := guard.page(); err != nil {
			return nil, err
		}

		body, err := s.fetcher.get(ctx, s.pageURL(book.ASIN, limitState, token))
		if err != nil {
			return nil, err
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to parse highlights page for %s: %w", book.ASIN, err)
		}

		doc.Find(".a-row.a-spacing-base").Each(func(_ int, sel *goquery.Selection) {
			h, ok := s.parseHighlight(sel, book.ASIN)
			if !ok {
				return
			}
			highlights = append(highlights, h)
		})

		token, _ = doc.Find(".kp-notebook-annotations-next-page-start").Attr("value")
		limitState, _ = doc.Find(".kp-notebook-content-limit-state").Attr("value")
		if err := guard.next(token); err != nil {
			return nil, err
		}
	}

	return highlights, nil
}

func (s *notebookSource) pageURL(asin, limitState, token string) string {
	u := fmt.Sprintf("%s?asin=%s", s.opts.NotebookURL, url.QueryEscape(asin))
	if token != "" {
		u += fmt.Sprintf("&contentLimitState=%s&token=%s",
			url.QueryEscape(limitState), url.QueryEscape(token))
	}
	return u
}

// parseHighlight extracts one highlight row. Rows without text are
// page furniture and are skipped silently.
func (s *notebookSource) parseHighlight(sel *goquery.Selection, asin string) (models.Highlight, bool) {
	text := strings.TrimSpace(sel.Find("#highlight").Text())
	if text == "" {
		return models.Highlight{}, false
	}

	h := models.Highlight{
		ID:       identity.Derive(text),
		BookASIN: asin,
		Text:     text,
	}

	if class, ok := sel.Find(".kp-notebook-highlight").Attr("class"); ok {
		if m := highlightClass.FindStringSubmatch(class); m != nil {
			if color, valid := models.ParseColor(m[1]); valid {
				h.Color = color
			}
		}
	}
	if loc, ok := sel.Find("#kp-annotation-location").Attr("value"); ok {
		h.Location = loc
	}
	if m := trailingDigits.FindStringSubmatch(sel.Find("#annotationNoteHeader").Text()); m != nil {
		h.Page = m[1]
	}
	if note := sel.Find("#note"); note.Length() > 0 {
		h.Note = noteText(note)
	}

	return h, true
}

// noteText renders a note element to plain text, keeping <br> breaks.
func noteText(sel *goquery.Selection) string {
	html, err := sel.Html()
	if err != nil {
		return strings.TrimSpace(sel.Text())
	}
	html = brTag.ReplaceAllString(html, "\n")
	stripped, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(sel.Text())
	}
	return strings.TrimSpace(stripped.Text())
}

// parseAuthor strips the localized "By:" prefix the page prepends.
func parseAuthor(raw string) string {
	author := strings.TrimSpace(raw)
	for _, prefix := range authorPrefixes {
		if strings.HasPrefix(author, prefix) {
			author = strings.TrimSpace(strings.TrimPrefix(author, prefix))
			break
		}
	}
	if author == "" {
		return "Unknown"
	}
	return author
}

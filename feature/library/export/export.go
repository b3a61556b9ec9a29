package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"kindle-sync/core/utils"
	"kindle-sync/feature/library/models"
	"kindle-sync/feature/library/store"

	"go.uber.org/zap"
)

// Format selects the export file format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Exporter writes stored books and highlights to files. Hidden
// highlights are always excluded.
type Exporter struct {
	store  *store.Store
	logger *zap.Logger
}

// New creates an exporter.
func New(s *store.Store, logger *zap.Logger) *Exporter {
	return &Exporter{store: s, logger: logger}
}

// markdownTemplate renders one book per file.
var markdownTemplate = template.Must(template.New("book").Parse(
	`# {{.Book.Title}}

**Author:** {{.Book.Author}}
{{- if .Book.LastAnnotated}}
**Last annotated:** {{.Book.LastAnnotated.Format "2006-01-02"}}
{{- end}}
**Highlights:** {{len .Highlights}}

---
{{range .Highlights}}
> {{.Text}}
{{if or .Location .Page}}
{{- if .Location}}*Location {{.Location}}*{{end}}{{if .Page}}{{if .Location}} · {{end}}*Page {{.Page}}*{{end}}
{{end}}
{{- if .Note}}
**Note:** {{.Note}}
{{end}}
---
{{end}}`))

// bookExport is the unit rendered into one file.
type bookExport struct {
	Book       models.Book        `json:"book"`
	Highlights []models.Highlight `json:"highlights"`
}

// Book exports a single book to dir and returns the written path.
func (e *Exporter) Book(ctx context.Context, asin string, format Format, dir string) (string, error) {
	book, err := e.store.GetBook(ctx, asin)
	if err != nil {
		return "", err
	}
	if book == nil {
		return "", fmt.Errorf("book %s not found", asin)
	}

	data, err := e.collect(ctx, *book)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, filename(*book, format))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := e.render(f, format, data); err != nil {
		return "", err
	}

	e.logger.Info("book exported",
		zap.String("asin", asin),
		zap.String("format", string(format)),
		zap.String("path", path))
	return path, nil
}

// All exports every stored book to dir and returns the written paths.
func (e *Exporter) All(ctx context.Context, format Format, dir string) ([]string, error) {
	books, err := e.store.AllBooks(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var paths []string
	for _, book := range books {
		data, err := e.collect(ctx, book)
		if err != nil {
			return paths, err
		}
		if len(data.Highlights) == 0 {
			continue
		}

		path := filepath.Join(dir, filename(book, format))
		f, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("failed to create export file: %w", err)
		}
		if err := e.render(f, format, data); err != nil {
			f.Close()
			return paths, err
		}
		f.Close()
		paths = append(paths, path)
	}

	e.logger.Info("library exported",
		zap.String("format", string(format)),
		zap.Int("files", len(paths)))
	return paths, nil
}

func (e *Exporter) collect(ctx context.Context, book models.Book) (bookExport, error) {
	all, err := e.store.HighlightsFor(ctx, book.ASIN)
	if err != nil {
		return bookExport{}, err
	}

	visible := make([]models.Highlight, 0, len(all))
	for _, h := range all {
		if h.IsHidden {
			continue
		}
		visible = append(visible, h)
	}
	return bookExport{Book: book, Highlights: visible}, nil
}

func (e *Exporter) render(w io.Writer, format Format, data bookExport) error {
	switch format {
	case FormatMarkdown:
		if err := markdownTemplate.Execute(w, data); err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to render json: %w", err)
		}
		return nil
	case FormatCSV:
		return renderCSV(w, data)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func renderCSV(w io.Writer, data bookExport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"asin", "title", "author", "text", "location", "page", "note", "color", "created_date"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, h := range data.Highlights {
		created := ""
		if h.CreatedDate != nil {
			created = h.CreatedDate.Format(time.RFC3339)
		}
		row := []string{
			data.Book.ASIN, data.Book.Title, data.Book.Author,
			h.Text, h.Location, h.Page, h.Note, string(h.Color), created,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// filename builds a stable, filesystem-safe name for one book.
func filename(book models.Book, format Format) string {
	slug := utils.Slugify(book.Title, 60)
	if slug == "" {
		slug = strings.ToLower(book.ASIN)
	}
	return utils.SanitizeFilename(slug) + "." + extension(format)
}

func extension(format Format) string {
	switch format {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	default:
		return "md"
	}
}

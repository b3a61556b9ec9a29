package models

import "time"

// Color is a Kindle highlight color.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
	ColorPink   Color = "pink"
	ColorOrange Color = "orange"
)

// ParseColor validates a color string scraped from a page. Unknown
// values are dropped rather than stored.
func ParseColor(s string) (Color, bool) {
	switch Color(s) {
	case ColorYellow, ColorBlue, ColorPink, ColorOrange:
		return Color(s), true
	default:
		return "", false
	}
}

// Book represents a Kindle book. The ASIN assigned by Amazon is the
// primary key; books are created on first sync, updated on every later
// sync that observes them, and only deleted on explicit request.
type Book struct {
	ASIN          string     `gorm:"column:asin;primaryKey" json:"asin"`
	Title         string     `gorm:"not null;index" json:"title"`
	Author        string     `gorm:"not null;index" json:"author"`
	URL           string     `json:"url,omitempty"`
	ImageURL      string     `gorm:"column:image_url" json:"image_url,omitempty"`
	LastAnnotated *time.Time `gorm:"column:last_annotated_date" json:"last_annotated_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Reading metadata owned by the user, never touched by sync.
	Status     string     `json:"status,omitempty"`
	Format     string     `json:"format,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	ISBN       string     `gorm:"column:isbn" json:"isbn,omitempty"`
	Genres     string     `json:"genres,omitempty"`
	Review     string     `json:"review,omitempty"`
	StarRating *float64   `gorm:"column:star_rating" json:"star_rating,omitempty"`
	StartDate  *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate    *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
}

// TableName overrides the GORM default.
func (Book) TableName() string { return "books" }

// Highlight represents a single Kindle highlight. Its ID is derived
// from the highlight text, so two highlights with identical normalized
// text in the same book collapse to one row.
type Highlight struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	BookASIN    string     `gorm:"column:book_asin;not null;index" json:"book_asin"`
	Book        *Book      `gorm:"foreignKey:BookASIN;references:ASIN;constraint:OnDelete:CASCADE" json:"-"`
	Text        string     `gorm:"not null" json:"text"`
	Location    string     `json:"location,omitempty"`
	Page        string     `json:"page,omitempty"`
	Note        string     `json:"note,omitempty"`
	Color       Color      `gorm:"index" json:"color,omitempty"`
	CreatedDate *time.Time `gorm:"column:created_date" json:"created_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	// IsHidden suppresses the highlight from exports without deleting
	// it; hidden highlights also survive reconciliation even when the
	// remote copy is gone.
	IsHidden bool `gorm:"column:is_hidden;not null;default:false" json:"is_hidden"`
}

// TableName overrides the GORM default.
func (Highlight) TableName() string { return "highlights" }

// BookWithCount pairs a book with its highlight count for listings.
type BookWithCount struct {
	Book           Book  `json:"book"`
	HighlightCount int64 `json:"highlight_count"`
}

// SearchResult pairs a matching highlight with its book.
type SearchResult struct {
	Highlight Highlight `json:"highlight"`
	Book      Book      `json:"book"`
}

package region

import (
	"strings"
	"time"
)

// commonLayouts are tried for every region after the regional ones.
var commonLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
}

// dateLayouts maps a region to the layouts its notebook pages use for
// the "last annotated" date. The lists are ordered most-specific first.
var dateLayouts = map[Region][]string{
	Global:  {"Monday January 2, 2006", "January 2, 2006", "Monday, January 2, 2006"},
	UK:      {"Monday January 2, 2006", "January 2, 2006", "Monday, January 2, 2006"},
	India:   {"Monday January 2, 2006", "January 2, 2006"},
	France:  {"Monday January 2, 2006", "January 2, 2006"},
	Germany: {"Monday January 2, 2006", "January 2, 2006", "2. January 2006"},
	Spain:   {"Monday January 2, 2006", "January 2, 2006", "2 January 2006"},
	Italy:   {"Monday January 2, 2006", "January 2, 2006", "2 January 2006"},
	Japan:   {"2006年1月2日", "2006 1 2"},
}

// DateLayouts returns the candidate time layouts for a region,
// regional layouts first, shared fallbacks last.
func DateLayouts(r Region) []string {
	regional := dateLayouts[r]
	if regional == nil {
		regional = dateLayouts[Default]
	}

	out := make([]string, 0, len(regional)+len(commonLayouts))
	out = append(out, regional...)
	out = append(out, commonLayouts...)
	return out
}

// ParseDate parses a date string embedded in a notebook page.
//
// A failed parse is not an error: localized month and weekday names
// cannot always be decoded, and the caller keeps the item with the
// date left absent.
func ParseDate(r Region, text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	switch r {
	case Spain:
		// "domingo 24 de octubre de 2021" carries filler words.
		text = strings.ReplaceAll(text, " de ", " ")
	case Japan:
		// "2021年11月15日 月曜日" has a trailing weekday the layouts
		// cannot express.
		if i := strings.IndexByte(text, ' '); i > 0 {
			text = text[:i]
		}
	}

	for _, layout := range DateLayouts(r) {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

package utils

import (
	"regexp"
	"strings"
)

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
	invalidFile  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// Slugify converts text to a URL-safe slug, truncated to maxLength.
func Slugify(text string, maxLength int) string {
	text = strings.ToLower(text)
	text = slugStrip.ReplaceAllString(text, "")
	text = slugCollapse.ReplaceAllString(text, "-")
	text = strings.Trim(text, "-")

	if maxLength > 0 && len(text) > maxLength {
		text = strings.TrimRight(text[:maxLength], "-")
	}

	return text
}

// SanitizeFilename strips characters that are invalid in filenames and
// collapses the resulting whitespace.
func SanitizeFilename(name string) string {
	name = invalidFile.ReplaceAllString(name, " ")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

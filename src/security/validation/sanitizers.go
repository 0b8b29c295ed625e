package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText removes all HTML tags and attributes from an input string.
func SanitizeText(s string) string {
	return strictHTMLPolicy.Sanitize(s)
}

// StripUnprintable removes non-printable characters, keeping tab, newline and
// carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// CleanText is the standard treatment for free-text form fields. Entities
// produced by the sanitizer are decoded again: output escaping happens at render.
func CleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(SanitizeText(StripUnprintable(s))))
}

// NormalizeSymbol cleans and uppercases a ticker symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(CleanText(s))
}

// OptionalText returns nil for blank input, otherwise the cleaned value.
func OptionalText(s string) *string {
	cleaned := CleanText(s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

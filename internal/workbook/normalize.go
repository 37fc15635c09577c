package workbook

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// NormalizeLabel canonicalizes a header or sheet label for comparison.
// It applies NFKC, folds case, treats '_' as a space, collapses whitespace and
// drops a trailing ':'.
func NormalizeLabel(s string) string {
	s = norm.NFKC.String(s)
	s = folder.String(s)
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSuffix(s, ":")
}

// Slug turns a free-text label into a lowercase identifier made of letters,
// digits and single underscores: "Class 1A" becomes "class_1a".
func Slug(s string) string {
	s = NormalizeLabel(s)

	var b strings.Builder
	pendingSep := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// trimSeparator returns label with its first n runes removed, along with any
// ':' or '-' separator and surrounding whitespace.
func trimSeparator(label string, n int) string {
	runes := []rune(strings.TrimSpace(label))
	if n > len(runes) {
		return ""
	}
	rest := strings.TrimSpace(string(runes[n:]))
	rest = strings.TrimLeft(rest, ":-–")
	return strings.TrimSpace(rest)
}

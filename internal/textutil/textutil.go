// Package textutil normalizes the noisy text the court systems send us:
// accented Portuguese, broken encodings, and whitespace soup.
package textutil

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// encodingFixes maps fragments that arrive mangled (trimmed accents from
// badly decoded subjects/bodies) back to their display form. Applied before
// display only; matching always runs on Normalize output.
var encodingFixes = map[string]string{
	"Percia":    "Perícia",
	"Mdica":     "Médica",
	"Audiencia": "Audiência",
	"Servio":    "Serviço",
	"Servico":   "Serviço",
	"Majorao":   "Majoração",
	"Majoraçao": "Majoração",
	"Itaborai":  "Itaboraí",
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Normalize returns an accent-stripped, lower-cased ASCII form of s for
// case-insensitive matching. Empty input yields "".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < 128 {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// CollapseSpaces flattens s into a single line with single spaces.
func CollapseSpaces(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.Join(strings.Fields(s), " ")
}

// FixEncoding repairs known mis-encoded fragments for display.
func FixEncoding(s string) string {
	for broken, fixed := range encodingFixes {
		s = strings.ReplaceAll(s, broken, fixed)
	}
	return s
}

var dateLayouts = []string{"02/01/2006", "02/01/06", "2006-01-02"}

// ParseDateBR parses Brazilian (DD/MM/YYYY, DD/MM/YY) and ISO dates.
// Returns nil when nothing matches.
func ParseDateBR(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

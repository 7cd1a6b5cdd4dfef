// Package classify routes notification text to office work queues.
package classify

import (
	"strings"

	"PrazoScanner/internal/textutil"
)

// DefaultFinancialKeywords flag payment-related publications. Matching is
// accent- and case-insensitive, so only the folded form of each word is kept.
var DefaultFinancialKeywords = []string{
	"rpv",
	"alvara",
	"precatorio",
	"acordo homologado",
	"expedicao de rpv",
	"expedido",
	"pagamento",
}

// Sector assigns a routing queue from free text. A keyword hit routes to the
// financial queue, anything else to the default queue. Total: every input
// maps to one of the two labels.
type Sector struct {
	Financial string
	Default   string
	Keywords  []string
}

// NewSector builds a classifier; empty fields fall back to office defaults.
func NewSector(financial, def string, keywords []string) *Sector {
	if financial == "" {
		financial = "Setor Financeiro"
	}
	if def == "" {
		def = "Geral"
	}
	if len(keywords) == 0 {
		keywords = DefaultFinancialKeywords
	}
	folded := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = textutil.Normalize(kw); kw != "" {
			folded = append(folded, kw)
		}
	}
	return &Sector{Financial: financial, Default: def, Keywords: folded}
}

// Classify returns the queue label for body.
func (s *Sector) Classify(body string) string {
	folded := textutil.Normalize(body)
	for _, kw := range s.Keywords {
		if strings.Contains(folded, kw) {
			return s.Financial
		}
	}
	return s.Default
}

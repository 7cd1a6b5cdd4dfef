// Package extract pulls structured fields out of unstructured court
// notifications. Extraction is label-anchored with bounded windows; a label
// that is missing means "field unknown", never an error.
package extract

// cnjLen is the length of a CNJ process number: NNNNNNN-NN.NNNN.N.NN.NNNN.
const cnjLen = 25

// ProcessNumber scans text for the first CNJ-standard process number
// embedded anywhere and returns exactly that substring, or "".
func ProcessNumber(text string) string {
	n := len(text)
	for i := 0; i+cnjLen <= n; i++ {
		if text[i] < '0' || text[i] > '9' {
			continue
		}
		if got := matchCNJ(text[i:]); got != "" {
			return got
		}
	}
	return ""
}

// matchCNJ matches the digit groups 7-2.4.1.2.4 at the start of s.
func matchCNJ(s string) string {
	if len(s) < cnjLen {
		return ""
	}
	groups := []struct {
		digits int
		sep    byte
	}{
		{7, '-'}, {2, '.'}, {4, '.'}, {1, '.'}, {2, '.'}, {4, 0},
	}
	j := 0
	for _, g := range groups {
		for k := 0; k < g.digits; k++ {
			if s[j] < '0' || s[j] > '9' {
				return ""
			}
			j++
		}
		if g.sep != 0 {
			if s[j] != g.sep {
				return ""
			}
			j++
		}
	}
	return s[:j]
}

package extract

import (
	"strings"

	"PrazoScanner/internal/textutil"
)

// Labels that introduce a client name in TRT/TRF notification bodies.
var nameLabels = []string{"autor:", "autora:", "parte autora:", "reclamante:"}

// Labels that terminate a name block; hitting one of these on the following
// line means the label had no value.
var nameEndLabels = map[string]struct{}{
	"advogados do autor:":  {},
	"advogados do reu:":    {},
	"reu:":                 {},
	"classe judicial:":     {},
	"orgao julgador:":      {},
	"eventos:":             {},
	"numero do processo:":  {},
	"data de autuacao:":    {},
}

// nameLookahead bounds how many lines below a bare label we search for its
// value before giving up.
const nameLookahead = 6

// ClientNames collects the party names labeled Autor/Autora/Parte
// Autora/Reclamante, de-duplicated and joined with "; ". Missing labels
// yield "".
func ClientNames(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(body, "\r", ""), "\n")

	var ordered []string
	seen := map[string]struct{}{}
	add := func(raw string) {
		for _, part := range strings.Split(raw, ";") {
			name := cleanName(part)
			if name == "" {
				continue
			}
			key := textutil.Normalize(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			ordered = append(ordered, name)
		}
	}

	for i, line := range lines {
		folded := strings.TrimSpace(textutil.Normalize(line))
		if !hasNameLabel(folded) {
			continue
		}
		value := ""
		if idx := strings.Index(line, ":"); idx >= 0 {
			value = strings.TrimSpace(line[idx+1:])
		}
		for j := i + 1; value == "" && j < len(lines) && j <= i+nameLookahead; j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" {
				continue
			}
			if _, stop := nameEndLabels[textutil.Normalize(next)]; stop {
				break
			}
			value = next
		}
		if value != "" {
			add(value)
		}
	}
	return strings.Join(ordered, "; ")
}

func hasNameLabel(foldedLine string) bool {
	for _, label := range nameLabels {
		if foldedLine == label || strings.HasPrefix(foldedLine, label) {
			return true
		}
	}
	return false
}

func cleanName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, " -–—\t")
	return strings.Trim(s, " .;:")
}

// Stop markers that end a "Polo Ativo" name inside a collapsed publication
// block. Matched on the lower-cased single-line form.
var poloAtivoStops = []string{
	" polo passivo:", " advogado:", " intimacao", " despacho", " ato ordinatorio",
	" classe:", " autor:", " reu:", " parte autora:", " lista de distribuicao",
	" decisão", " decisao",
}

// PoloAtivoName extracts the plaintiff name following "Polo Ativo:" in a
// publication block, reading until a stop marker.
func PoloAtivoName(text string) string {
	if text == "" {
		return ""
	}
	t := textutil.CollapseSpaces(text)
	tl := strings.ToLower(t)

	idx := strings.Index(tl, "polo ativo:")
	if idx == -1 {
		return ""
	}
	i := idx + len("polo ativo:")
	for i < len(t) && t[i] == ' ' {
		i++
	}
	j := i
	for j < len(t) {
		rest := tl[j:]
		stopped := false
		for _, stop := range poloAtivoStops {
			if strings.HasPrefix(rest, stop) {
				stopped = true
				break
			}
		}
		if stopped {
			break
		}
		j++
	}
	return strings.Trim(t[i:j], " -–—.")
}

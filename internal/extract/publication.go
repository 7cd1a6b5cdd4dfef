package extract

import (
	"regexp"
	"strings"
)

// PublicationBlock is one publication notice split out of a digest email.
type PublicationBlock struct {
	Date          string // publication date as printed, DD/MM/YYYY
	ProcessNumber string
	Event         string // full notice text
}

var (
	digestSplitExpr   = regexp.MustCompile(`\n\s*Publicação:\s*\d+\s*`)
	digestDateExpr    = regexp.MustCompile(`Data de Publicação:\s*([0-9/]+)`)
	digestProcessExpr = regexp.MustCompile(`PROCESSO:\s*([\d.-]+)`)
	digestEventExpr   = regexp.MustCompile(`(?s)(PROCESSO:.*?)(Acesso ao documento:|Identificador do documento:|$)`)
	blankLinesExpr    = regexp.MustCompile(`\n\s*\n+`)
)

// SplitDigest breaks a publication-digest email into its individual notice
// blocks. Blocks with neither a process number nor a date are dropped.
func SplitDigest(body string) []PublicationBlock {
	blocks := digestSplitExpr.Split(body, -1)
	if len(blocks) < 2 {
		return nil
	}
	var out []PublicationBlock
	for _, block := range blocks[1:] {
		var b PublicationBlock
		if m := digestDateExpr.FindStringSubmatch(block); m != nil {
			b.Date = m[1]
		}
		if m := digestProcessExpr.FindStringSubmatch(block); m != nil {
			b.ProcessNumber = m[1]
		}
		if m := digestEventExpr.FindStringSubmatch(block); m != nil {
			b.Event = strings.TrimSpace(m[1])
		} else {
			b.Event = strings.TrimSpace(block)
		}
		b.Event = strings.TrimSpace(blankLinesExpr.ReplaceAllString(b.Event, "\n"))
		if b.ProcessNumber != "" || b.Date != "" {
			out = append(out, b)
		}
	}
	return out
}

// electionNoticeKeywords flag administrative election-duty notices
// (poll-worker appointments) that must not become case records.
var electionNoticeKeywords = []string{
	"edital nomeacao", "edital nomeação", "edital nomeacao funcao especial",
	"edital nomeacao mesario", "eleicoes municipais", "foram nomeados mesarios",
	"presidente de mrv", "1º mesario - mrv", "2º mesario - mrv",
}

// IsElectionNotice reports whether a publication block is poll-worker
// appointment boilerplate.
func IsElectionNotice(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range electionNoticeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

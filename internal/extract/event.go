package extract

import (
	"regexp"
	"strconv"
	"strings"

	"PrazoScanner/internal/textutil"
)

// EventKind tells whether a notification schedules a hearing or an expert
// exam. Detection is accent-insensitive; when both words appear, the one at
// the earlier normalized position wins.
type EventKind string

const (
	EventNone    EventKind = ""
	EventHearing EventKind = "audiencia"
	EventExam    EventKind = "pericia"
)

// Window sizes for the date/time hunt around a detected event word. These
// bounds control extraction recall; keep them in sync with the tests.
const (
	eventWindow   = 600
	timeAfterDate = 120
	dateAfterTime = 160
)

// DetectEvent reports which event word occurs first in text, if any.
func DetectEvent(text string) EventKind {
	folded := textutil.Normalize(text)
	ih := strings.Index(folded, string(EventHearing))
	ie := strings.Index(folded, string(EventExam))
	switch {
	case ih == -1 && ie == -1:
		return EventNone
	case ie == -1 || (ih != -1 && ih < ie):
		return EventHearing
	default:
		return EventExam
	}
}

// EventDateTime hunts for a DD/MM/YYYY date and an HH:MM-style time inside a
// bounded window after the event word. The date-first path is tried before
// the time-first path; first success wins.
func EventDateTime(text string, kind EventKind) (date, timeOfDay string) {
	if text == "" {
		return "", ""
	}
	t := strings.ReplaceAll(text, "\r", "")
	folded := textutil.Normalize(t)

	anchor := "audien"
	if kind == EventExam {
		anchor = "peric"
	}
	pos := strings.Index(folded, anchor)
	if pos == -1 {
		ih := strings.Index(folded, "audien")
		ie := strings.Index(folded, "peric")
		pos = firstFound(ih, ie)
		if pos == -1 {
			return "", ""
		}
	}
	if pos > len(t) {
		pos = len(t)
	}
	window := t[pos:min(len(t), pos+eventWindow)]

	if date = scanDate(window); date != "" {
		idx := strings.Index(window, date)
		timeOfDay = scanTime(window[idx:min(len(window), idx+timeAfterDate)])
		return date, timeOfDay
	}
	if timeOfDay = scanTime(window); timeOfDay != "" {
		idx := strings.Index(window, timeOfDay)
		sub := window
		if idx >= 0 {
			sub = window[idx:min(len(window), idx+dateAfterTime)]
		}
		if date = scanDate(sub); date != "" {
			return date, timeOfDay
		}
	}
	return "", ""
}

func firstFound(a, b int) int {
	switch {
	case a == -1:
		return b
	case b == -1:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

// scanDate finds the first DD/MM/YYYY token by character-level scanning,
// tolerating arbitrary surrounding noise.
func scanDate(window string) string {
	n := len(window)
	for i := 0; i+10 <= n; i++ {
		if isDigits(window[i:i+2]) && window[i+2] == '/' &&
			isDigits(window[i+3:i+5]) && window[i+5] == '/' &&
			isDigits(window[i+6:i+10]) {
			return window[i : i+10]
		}
	}
	return ""
}

// scanTime tokenizes the window on anything that is not alphanumeric, ':'
// or 'h', then standardizes each token until one yields a valid HH:MM.
func scanTime(window string) string {
	var tokens []string
	var cur strings.Builder
	for _, r := range window {
		if isAlnum(r) || r == ':' || r == 'h' || r == 'H' {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	for _, tok := range tokens {
		if tm := stdTimeToken(tok); tm != "" {
			return tm
		}
	}
	return ""
}

// stdTimeToken normalizes "15h", "15h30", "15h30min", "15:30" and
// "9horas"-style tokens into HH:MM, or returns "".
func stdTimeToken(tok string) string {
	if tok == "" {
		return ""
	}
	t := strings.Join(strings.Fields(tok), "")
	folded := textutil.Normalize(t)

	if strings.Contains(folded, "h") {
		parts := strings.SplitN(folded, "h", 2)
		if isDigits(parts[0]) {
			h, _ := strconv.Atoi(parts[0])
			m := 0
			if len(parts) > 1 && parts[1] != "" {
				rest := strings.ReplaceAll(parts[1], "min", "")
				rest = strings.ReplaceAll(rest, "m", "")
				if isDigits(rest) {
					m, _ = strconv.Atoi(rest)
				}
			}
			if h <= 23 && m <= 59 {
				return clockFormat(h, m)
			}
		}
	}
	if strings.Contains(t, ":") {
		t2 := strings.NewReplacer("h", "", "H", "").Replace(t)
		parts := strings.Split(t2, ":")
		if len(parts) >= 2 && isDigits(parts[0]) && isDigits(parts[1]) {
			h, _ := strconv.Atoi(parts[0])
			m, _ := strconv.Atoi(parts[1])
			if h <= 23 && m <= 59 {
				return clockFormat(h, m)
			}
		}
	}
	if strings.Contains(folded, "hora") {
		var digits strings.Builder
		for _, r := range folded {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		if s := digits.String(); isDigits(s) {
			if h, _ := strconv.Atoi(s); h <= 23 {
				return clockFormat(h, 0)
			}
		}
	}
	return ""
}

func clockFormat(h, m int) string {
	return twoDigits(h) + ":" + twoDigits(m)
}

func twoDigits(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

var (
	hearingTypeExpr = regexp.MustCompile(`(?i)(Audi[eê]ncia[^.\n)]+)`)
	examTypeExpr    = regexp.MustCompile(`(?i)(Per[ií]cia[^.\n)]+)`)
	eventPrefixExpr = regexp.MustCompile(`^Data Evento \d{2}/\d{2}/\d{4} \d{2}:\d{2}\s*`)
)

// EventTypeDescription returns a short description of the scheduled event
// ("Audiência de Instrução", "Perícia Médica"), falling back to the bare
// kind label when no phrase is found.
func EventTypeDescription(text string) string {
	if text == "" {
		return ""
	}
	t := strings.ReplaceAll(text, "\r", "")
	if m := hearingTypeExpr.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := examTypeExpr.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[1])
	}
	switch DetectEvent(text) {
	case EventHearing:
		return "Audiência"
	case EventExam:
		return "Perícia"
	}
	return ""
}

// StripEventPrefix removes the leading "Data Evento DD/MM/YYYY HH:MM" stamp
// some court systems prepend to the event description.
func StripEventPrefix(text string) string {
	return eventPrefixExpr.ReplaceAllString(strings.TrimSpace(text), "")
}

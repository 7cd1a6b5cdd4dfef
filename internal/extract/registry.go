package extract

import (
	"strings"

	"PrazoScanner/internal/textutil"
)

// Fields is the partial record a per-sender extractor recovers from a
// notification body. Zero values mean "unknown".
type Fields struct {
	ProcessNumber string
	Events        string
}

// Extractor is a single per-source strategy. Implementations are pure
// functions over the body text.
type Extractor interface {
	Sender() string
	Extract(body string) Fields
}

// Registry maps sender addresses to their extraction strategies.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: map[string]Extractor{}}
}

// Register adds or replaces a strategy for its sender.
func (r *Registry) Register(e Extractor) {
	if r.extractors == nil {
		r.extractors = map[string]Extractor{}
	}
	r.extractors[strings.ToLower(e.Sender())] = e
}

// Resolve returns the strategy for sender, or the generic fallback when no
// dedicated one is registered.
func (r *Registry) Resolve(sender string) Extractor {
	if e, ok := r.extractors[strings.ToLower(sender)]; ok {
		return e
	}
	return genericExtractor{}
}

// labeledBody is the shared label-anchored scan over a collapsed body:
// process number after processLabel as a digits/-/. run, event description
// after eventLabel up to the first stop marker.
type labeledBody struct {
	sender       string
	processLabel string
	eventLabel   string
	eventStops   []string
}

func (l labeledBody) Sender() string { return l.sender }

func (l labeledBody) Extract(body string) Fields {
	text := collapseLines(body)
	lower := strings.ToLower(text)

	var f Fields
	if idx := strings.Index(lower, l.processLabel); idx >= 0 {
		rest := strings.TrimLeft(text[idx+len(l.processLabel):], " ")
		num := takeRun(rest, "0123456789-.")
		if strings.Contains(num, "-") && strings.Contains(num, ".") {
			f.ProcessNumber = num
		}
	}
	if idx := strings.Index(lower, l.eventLabel); idx >= 0 {
		rest := strings.TrimLeft(text[idx+len(l.eventLabel):], " ")
		end := len(rest)
		for _, stop := range l.eventStops {
			if s := strings.Index(rest, stop); s >= 0 && s < end {
				end = s
			}
		}
		f.Events = strings.TrimSpace(rest[:end])
	}
	return f
}

// NewTRT1 extracts from TRT-1 PJe notifications; TRT-SP uses the same body
// layout.
func NewTRT1(sender string) Extractor {
	return labeledBody{
		sender:       sender,
		processLabel: "número do processo:",
		eventLabel:   "eventos:",
		eventStops:   []string{"Para acessar", "https://", "ATENÇÃO"},
	}
}

// NewTRF2 extracts from TRF-2 eproc notifications.
func NewTRF2(sender string) Extractor {
	return labeledBody{
		sender:       sender,
		processLabel: "número do processo:",
		eventLabel:   "evento:",
		eventStops:   []string{"Nome da(s) Parte(s):", "Órgão Julgador:"},
	}
}

type genericExtractor struct{}

func (genericExtractor) Sender() string        { return "" }
func (genericExtractor) Extract(string) Fields { return Fields{} }

func collapseLines(body string) string {
	var parts []string
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// takeRun returns the longest prefix of s made of bytes in set.
func takeRun(s, set string) string {
	i := 0
	for i < len(s) && strings.IndexByte(set, s[i]) >= 0 {
		i++
	}
	return s[:i]
}

// ExamAppointment is the schedule block parsed out of the periodic expert
// exam mails from the benefits-management system.
type ExamAppointment struct {
	Client    string
	EventType string
	Date      string
	TimeOfDay string
}

// ParseExamAppointment reads the exam-scheduler mail layout: client on the
// line after the greeting, event type after "Agendamento -", date and time
// from the "Data e Hora Agendada" line (date before the parenthesis, time
// after the last dash).
func ParseExamAppointment(body string) ExamAppointment {
	lines := strings.Split(strings.ReplaceAll(body, "\r", ""), "\n")
	var a ExamAppointment

	for i, line := range lines {
		if strings.Contains(line, "Prezado(a) Sr(a)") {
			a.Client = firstNonBlank(lines[i+1:])
			break
		}
	}

	for i, line := range lines {
		folded := strings.TrimSpace(textutil.Normalize(line))
		if strings.Contains(folded, "servico: agendamento -") {
			if _, after, ok := strings.Cut(line, "Agendamento -"); ok && strings.TrimSpace(after) != "" {
				a.EventType = strings.TrimSpace(after)
			} else {
				a.EventType = firstNonBlank(lines[i+1:])
			}
			break
		}
		if folded == "servico" {
			for _, next := range lines[i+1:] {
				if strings.Contains(textutil.Normalize(next), "agendamento -") {
					if _, after, ok := strings.Cut(next, "Agendamento -"); ok {
						a.EventType = strings.TrimSpace(after)
					}
					break
				}
			}
			break
		}
	}

	for i, line := range lines {
		if !strings.Contains(textutil.Normalize(line), "data e hora agendada") {
			continue
		}
		if _, after, ok := strings.Cut(line, ":"); ok && strings.TrimSpace(after) != "" {
			a.Date, a.TimeOfDay = splitDateTimeValue(after)
		}
		if a.Date == "" && a.TimeOfDay == "" {
			if next := firstNonBlank(lines[i+1:]); next != "" {
				a.Date, a.TimeOfDay = splitDateTimeValue(next)
			}
		}
		break
	}

	a.EventType = textutil.FixEncoding(a.EventType)
	return a
}

// splitDateTimeValue handles "DD/MM/YYYY (quarta-feira) - 14:30".
func splitDateTimeValue(v string) (date, timeOfDay string) {
	v = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(v), ": "))
	if before, _, ok := strings.Cut(v, "("); ok {
		date = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(before), ": "))
	}
	if idx := strings.LastIndex(v, "-"); idx >= 0 {
		timeOfDay = strings.TrimSpace(v[idx+1:])
	}
	return date, timeOfDay
}

func firstNonBlank(lines []string) string {
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

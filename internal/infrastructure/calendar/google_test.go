package calendar

import (
	"strings"
	"testing"
	"time"

	"PrazoScanner/internal/domain"
)

func TestParseClockTimes(t *testing.T) {
	t.Parallel()
	cases := map[string][]time.Duration{
		"14:30":           {14*time.Hour + 30*time.Minute},
		"14h30":           {14*time.Hour + 30*time.Minute},
		"9":               {9 * time.Hour},
		"das 9:00 às 11h": {9 * time.Hour, 11 * time.Hour},
		"sem horário":     nil,
		"25:00":           nil,
	}
	for in, want := range cases {
		got := parseClockTimes(in)
		if len(got) != len(want) {
			t.Errorf("parseClockTimes(%q) = %v, want %v", in, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("parseClockTimes(%q)[%d] = %v, want %v", in, i, got[i], want[i])
			}
		}
	}
}

func TestEventTimes(t *testing.T) {
	t.Parallel()
	day := time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC)

	start, end, allDay := eventTimes(day, "")
	if !allDay {
		t.Fatal("empty time must produce an all-day event")
	}
	if !start.Equal(day) || !end.Equal(day.AddDate(0, 0, 1)) {
		t.Fatalf("all-day bounds = %v..%v", start, end)
	}

	start, end, allDay = eventTimes(day, "14:30")
	if allDay {
		t.Fatal("single time must be a timed event")
	}
	if !start.Equal(day.Add(14*time.Hour + 30*time.Minute)) {
		t.Fatalf("start = %v", start)
	}
	if !end.Equal(start.Add(defaultDuration)) {
		t.Fatalf("end = %v", end)
	}

	start, end, _ = eventTimes(day, "9:00 - 11:00")
	if !end.Equal(day.Add(11 * time.Hour)) {
		t.Fatalf("end = %v, want second time", end)
	}
	if !start.Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("start = %v", start)
	}
}

func TestBuildSummary(t *testing.T) {
	t.Parallel()
	entry := &domain.AgendaEntry{
		Status:    "confirmada",
		Client:    "Fulano de Tal",
		EventType: "Perícia Médica",
	}
	if got := buildSummary(entry); got != "[CONFIRMADA] Perícia Médica - Fulano de Tal" {
		t.Fatalf("summary = %q", got)
	}
	if got := buildSummary(&domain.AgendaEntry{}); got != "Compromisso" {
		t.Fatalf("empty summary = %q", got)
	}
}

func TestBuildDescriptionCarriesRecordID(t *testing.T) {
	t.Parallel()
	entry := &domain.AgendaEntry{ProcessNumber: "0001234-56.2024.5.01.0001", SourceSystem: "pmfgestao"}
	got := buildDescription(42, entry)
	if !strings.Contains(got, "ID interno da agenda: 42") {
		t.Fatalf("description = %q", got)
	}
	if !strings.Contains(got, "Número do processo: 0001234-56.2024.5.01.0001") {
		t.Fatalf("description = %q", got)
	}
	if !strings.Contains(got, "Origem: pmfgestao") {
		t.Fatalf("description = %q", got)
	}
}

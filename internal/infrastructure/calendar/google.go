// Package calendar mirrors agenda rows into a Google Calendar. Everything
// here is best-effort: callers surface failures as warnings, the database
// write already happened.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"PrazoScanner/internal/domain"
)

const (
	recordIDProperty = "agenda_record_id"
	defaultDuration  = 60 * time.Minute
)

// Google talks to one calendar with a service-account credential.
type Google struct {
	service    *calendar.Service
	calendarID string
	timezone   string
	logger     *slog.Logger
}

// NewGoogle builds the client. calendarID defaults to "primary", timezone to
// America/Sao_Paulo.
func NewGoogle(ctx context.Context, credentialsFile, calendarID, timezone string, logger *slog.Logger) (*Google, error) {
	if calendarID == "" {
		calendarID = "primary"
	}
	if timezone == "" {
		timezone = "America/Sao_Paulo"
	}
	if logger == nil {
		logger = slog.Default()
	}
	service, err := calendar.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(calendar.CalendarScope))
	if err != nil {
		return nil, fmt.Errorf("init calendar service: %w", err)
	}
	return &Google{service: service, calendarID: calendarID, timezone: timezone, logger: logger}, nil
}

// SyncEvent creates or updates the mirrored event for one agenda row. The
// row id travels in a private extended property so later updates and deletes
// can find the event again.
func (g *Google) SyncEvent(ctx context.Context, id int64, entry *domain.AgendaEntry) error {
	if entry.Date == nil {
		return fmt.Errorf("agenda row %d has no date, event not synced", id)
	}
	event := g.buildEvent(id, entry)

	existing, err := g.findEvent(ctx, id)
	if err != nil {
		return err
	}
	if existing != nil {
		_, err = g.service.Events.Update(g.calendarID, existing.Id, event).Context(ctx).Do()
	} else {
		_, err = g.service.Events.Insert(g.calendarID, event).Context(ctx).Do()
	}
	if err != nil {
		return fmt.Errorf("sync calendar event for agenda row %d: %w", id, err)
	}
	return nil
}

// DeleteEvent removes the mirrored event, treating "already gone" as done.
func (g *Google) DeleteEvent(ctx context.Context, id int64) error {
	existing, err := g.findEvent(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	err = g.service.Events.Delete(g.calendarID, existing.Id).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 404 {
			return nil
		}
		return fmt.Errorf("delete calendar event for agenda row %d: %w", id, err)
	}
	return nil
}

func (g *Google) findEvent(ctx context.Context, id int64) (*calendar.Event, error) {
	resp, err := g.service.Events.List(g.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%d", recordIDProperty, id)).
		MaxResults(1).
		ShowDeleted(true).
		SingleEvents(true).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("find calendar event for agenda row %d: %w", id, err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}
	return resp.Items[0], nil
}

func (g *Google) buildEvent(id int64, entry *domain.AgendaEntry) *calendar.Event {
	event := &calendar.Event{
		Summary:     buildSummary(entry),
		Description: buildDescription(id, entry),
		Location:    strings.TrimSpace(entry.Subject),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{recordIDProperty: strconv.FormatInt(id, 10)},
		},
	}

	day := *entry.Date
	start, end, allDay := eventTimes(day, entry.TimeOfDay)
	if allDay {
		event.Start = &calendar.EventDateTime{Date: start.Format("2006-01-02"), TimeZone: g.timezone}
		event.End = &calendar.EventDateTime{Date: end.Format("2006-01-02"), TimeZone: g.timezone}
	} else {
		event.Start = &calendar.EventDateTime{DateTime: start.Format("2006-01-02T15:04:05"), TimeZone: g.timezone}
		event.End = &calendar.EventDateTime{DateTime: end.Format("2006-01-02T15:04:05"), TimeZone: g.timezone}
	}
	return event
}

// eventTimes turns the free-text time-of-day field into event bounds. No
// recognizable clock time makes the event all-day; one time gets the default
// duration; two times become the start and end.
func eventTimes(day time.Time, timeOfDay string) (start, end time.Time, allDay bool) {
	clocks := parseClockTimes(timeOfDay)
	if len(clocks) == 0 {
		return day, day.AddDate(0, 0, 1), true
	}
	start = day.Add(clocks[0])
	if len(clocks) > 1 {
		end = day.Add(clocks[1])
	} else {
		end = start.Add(defaultDuration)
	}
	if !end.After(start) {
		end = start.Add(defaultDuration)
	}
	return start, end, false
}

// parseClockTimes finds "14:30", "14h30" or bare-hour tokens in free text.
func parseClockTimes(s string) []time.Duration {
	var out []time.Duration
	for i := 0; i < len(s); {
		if !isDigit(s[i]) {
			i++
			continue
		}
		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		hour, _ := strconv.Atoi(s[i:j])
		minute := 0
		next := j
		if j < len(s) && (s[j] == ':' || s[j] == 'h' || s[j] == 'H') {
			k := j + 1
			m := k
			for m < len(s) && isDigit(s[m]) {
				m++
			}
			if m-k == 2 {
				minute, _ = strconv.Atoi(s[k:m])
				next = m
			}
		}
		if j-i <= 2 && hour <= 23 && minute <= 59 {
			out = append(out, time.Duration(hour)*time.Hour+time.Duration(minute)*time.Minute)
		}
		i = next
	}
	return out
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func buildSummary(entry *domain.AgendaEntry) string {
	eventType := strings.TrimSpace(entry.EventType)
	client := strings.TrimSpace(entry.Client)
	subject := strings.TrimSpace(entry.Subject)

	base := "Compromisso"
	switch {
	case eventType != "" && client != "":
		base = eventType + " - " + client
	case client != "":
		base = client
	case eventType != "":
		base = eventType
	case subject != "":
		base = subject
	}
	if status := strings.TrimSpace(entry.Status); status != "" {
		return "[" + strings.ToUpper(status) + "] " + base
	}
	return base
}

func buildDescription(id int64, entry *domain.AgendaEntry) string {
	var lines []string
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("Cliente avisado", entry.ClientNotified)
	add("Anotado na agenda", entry.Booked)
	add("Número do processo", entry.ProcessNumber)
	add("Tipo", entry.EventType)
	add("Matéria", entry.Subject)
	add("Parte adversa", entry.OpposingParty)
	add("Observações", entry.Notes)
	add("Origem", entry.SourceSystem)
	lines = append(lines, fmt.Sprintf("ID interno da agenda: %d", id))
	lines = append(lines, "Sincronizado automaticamente pelo painel de prazos.")
	return strings.Join(lines, "\n")
}

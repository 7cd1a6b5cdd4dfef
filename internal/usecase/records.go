// Package usecase holds the record operations the admin API exposes: one
// logical operation per call, calendar mirroring strictly best-effort.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"PrazoScanner/internal/domain"
	"PrazoScanner/internal/ports"
	"PrazoScanner/internal/warnings"
)

// Records bundles case and agenda operations. Calendar may be nil, which
// disables mirroring entirely.
type Records struct {
	Cases    ports.CaseRepository
	Agenda   ports.AgendaRepository
	Calendar ports.CalendarSync
	Logger   *slog.Logger

	now func() time.Time
}

func NewRecords(cases ports.CaseRepository, agenda ports.AgendaRepository,
	cal ports.CalendarSync, logger *slog.Logger) *Records {
	if logger == nil {
		logger = slog.Default()
	}
	return &Records{Cases: cases, Agenda: agenda, Calendar: cal, Logger: logger, now: time.Now}
}

// ListCases returns the rows of one case table with deadlines current.
func (r *Records) ListCases(ctx context.Context, kind domain.CaseKind) ([]domain.CaseItem, error) {
	return r.Cases.List(ctx, kind)
}

// SaveCase inserts or updates a case item after reconciling its deadline
// window. A zero id means insert; the returned id identifies the row either
// way.
func (r *Records) SaveCase(ctx context.Context, kind domain.CaseKind, item *domain.CaseItem) (int64, error) {
	item.ApplyDeadlineWindow(r.now())
	if item.ID == 0 {
		return r.Cases.Insert(ctx, kind, item)
	}
	if err := r.Cases.Update(ctx, kind, item); err != nil {
		return 0, err
	}
	return item.ID, nil
}

// DeleteCase removes one case row.
func (r *Records) DeleteCase(ctx context.Context, kind domain.CaseKind, id int64) error {
	return r.Cases.Delete(ctx, kind, id)
}

// CompleteCase archives one case row: single logical operation, the copy and
// the delete commit together.
func (r *Records) CompleteCase(ctx context.Context, kind domain.CaseKind, id int64) error {
	return r.Cases.MoveToCompleted(ctx, kind, id)
}

// PromoteCase copies a case item into the agenda as a manual appointment.
// The case row stays where it is; archive it separately once the hearing is
// booked. Returns the new agenda id.
func (r *Records) PromoteCase(ctx context.Context, kind domain.CaseKind, id int64) (int64, []string, error) {
	item, err := r.Cases.Get(ctx, kind, id)
	if err != nil {
		return 0, nil, err
	}
	date := item.StartDate
	if item.EndDate != nil {
		date = item.EndDate
	}
	entry := &domain.AgendaEntry{
		Date:          date,
		Client:        item.Client,
		ProcessNumber: item.ProcessNumber,
		Notes:         item.Notes,
		SourceSystem:  "painel",
	}
	return r.saveAgendaEntry(ctx, entry)
}

// ListAgenda returns all agenda entries.
func (r *Records) ListAgenda(ctx context.Context) ([]domain.AgendaEntry, error) {
	return r.Agenda.List(ctx)
}

// SaveAgenda inserts or updates an agenda entry and mirrors it to the
// calendar. Mirror failures come back as warnings, never as errors.
func (r *Records) SaveAgenda(ctx context.Context, entry *domain.AgendaEntry) (int64, []string, error) {
	if entry.ID != 0 {
		if err := r.Agenda.Update(ctx, entry); err != nil {
			return 0, nil, err
		}
		warns := r.syncCalendar(ctx, entry.ID, entry)
		return entry.ID, warns, nil
	}
	return r.saveAgendaEntry(ctx, entry)
}

func (r *Records) saveAgendaEntry(ctx context.Context, entry *domain.AgendaEntry) (int64, []string, error) {
	id, err := r.Agenda.Insert(ctx, entry)
	if err != nil {
		return 0, nil, err
	}
	entry.ID = id
	return id, r.syncCalendar(ctx, id, entry), nil
}

// DeleteAgenda removes an agenda entry and its mirrored event.
func (r *Records) DeleteAgenda(ctx context.Context, id int64) ([]string, error) {
	if err := r.Agenda.Delete(ctx, id); err != nil {
		return nil, err
	}
	return r.dropCalendar(ctx, id), nil
}

// CompleteAgenda archives an agenda entry and removes its mirrored event.
func (r *Records) CompleteAgenda(ctx context.Context, id int64) ([]string, error) {
	if err := r.Agenda.MoveToCompleted(ctx, id); err != nil {
		return nil, err
	}
	return r.dropCalendar(ctx, id), nil
}

func (r *Records) syncCalendar(ctx context.Context, id int64, entry *domain.AgendaEntry) []string {
	if r.Calendar == nil {
		return nil
	}
	warns := warnings.NewCollector()
	if err := r.Calendar.SyncEvent(ctx, id, entry); err != nil {
		r.Logger.Warn("calendar sync failed", "agenda_id", id, "error", err)
		warns.Add(fmt.Sprintf("calendário não sincronizado: %v", err))
	}
	return warns.Messages()
}

func (r *Records) dropCalendar(ctx context.Context, id int64) []string {
	if r.Calendar == nil {
		return nil
	}
	warns := warnings.NewCollector()
	if err := r.Calendar.DeleteEvent(ctx, id); err != nil {
		r.Logger.Warn("calendar delete failed", "agenda_id", id, "error", err)
		warns.Add(fmt.Sprintf("evento não removido do calendário: %v", err))
	}
	return warns.Messages()
}

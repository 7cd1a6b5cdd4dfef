package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"PrazoScanner/internal/domain"
)

var agendaColumns = []string{
	"id", "data", "horario", "status", "cliente", "cliente_avisado",
	"anotado_na_agenda", "observacao", "numero_processo",
	"tipo_audiencia_pericia", "materia", "parte_adversa", "sistema",
}

func agendaValues(entry *domain.AgendaEntry) map[string]any {
	return map[string]any{
		"data":                   entry.Date,
		"horario":                entry.TimeOfDay,
		"status":                 entry.Status,
		"cliente":                entry.Client,
		"cliente_avisado":        entry.ClientNotified,
		"anotado_na_agenda":      entry.Booked,
		"observacao":             entry.Notes,
		"numero_processo":        entry.ProcessNumber,
		"tipo_audiencia_pericia": entry.EventType,
		"materia":                entry.Subject,
		"parte_adversa":          entry.OpposingParty,
		"sistema":                entry.SourceSystem,
	}
}

// InsertAgenda adds one agenda entry and returns its id.
func (s *Store) InsertAgenda(ctx context.Context, entry *domain.AgendaEntry) (int64, error) {
	query, args, err := psql.Insert("agenda").SetMap(agendaValues(entry)).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build agenda insert: %w", err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert agenda: %w", err)
	}
	return id, nil
}

// ListAgenda returns all agenda entries ordered by date then id.
func (s *Store) ListAgenda(ctx context.Context) ([]domain.AgendaEntry, error) {
	query, args, err := psql.Select(agendaColumns...).From("agenda").
		OrderBy("data NULLS LAST", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build agenda select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list agenda: %w", err)
	}
	defer rows.Close()

	var entries []domain.AgendaEntry
	for rows.Next() {
		entry, err := scanAgendaEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agenda: %w", err)
	}
	return entries, nil
}

// GetAgenda loads one agenda entry by id.
func (s *Store) GetAgenda(ctx context.Context, id int64) (*domain.AgendaEntry, error) {
	query, args, err := psql.Select(agendaColumns...).From("agenda").
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build agenda select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get agenda %d: %w", id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get agenda %d: %w", id, err)
		}
		return nil, fmt.Errorf("agenda %d: %w", id, sql.ErrNoRows)
	}
	return scanAgendaEntry(rows)
}

func scanAgendaEntry(rows *sql.Rows) (*domain.AgendaEntry, error) {
	var (
		entry    domain.AgendaEntry
		date     sql.NullTime
		timeOf   sql.NullString
		status   sql.NullString
		client   sql.NullString
		notified sql.NullString
		booked   sql.NullString
		notes    sql.NullString
		proc     sql.NullString
		event    sql.NullString
		subject  sql.NullString
		opposing sql.NullString
		system   sql.NullString
	)
	if err := rows.Scan(&entry.ID, &date, &timeOf, &status, &client, &notified,
		&booked, &notes, &proc, &event, &subject, &opposing, &system); err != nil {
		return nil, fmt.Errorf("scan agenda entry: %w", err)
	}
	if date.Valid {
		t := date.Time
		entry.Date = &t
	}
	entry.TimeOfDay = timeOf.String
	entry.Status = status.String
	entry.Client = client.String
	entry.ClientNotified = notified.String
	entry.Booked = booked.String
	entry.Notes = notes.String
	entry.ProcessNumber = proc.String
	entry.EventType = event.String
	entry.Subject = subject.String
	entry.OpposingParty = opposing.String
	entry.SourceSystem = system.String
	return &entry, nil
}

// UpdateAgenda rewrites one agenda entry.
func (s *Store) UpdateAgenda(ctx context.Context, entry *domain.AgendaEntry) error {
	query, args, err := psql.Update("agenda").
		SetMap(agendaValues(entry)).
		Where(sq.Eq{"id": entry.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build agenda update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update agenda %d: %w", entry.ID, err)
	}
	return nil
}

// DeleteAgenda removes one agenda entry.
func (s *Store) DeleteAgenda(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("agenda").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build agenda delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete agenda %d: %w", id, err)
	}
	return nil
}

// agendaArchiveValues maps agenda fields onto the archive's case-shaped
// columns the way the front end expects them back.
func agendaArchiveValues(entry *domain.AgendaEntry) map[string]any {
	return map[string]any{
		"inicio_prazo":            entry.Date,
		"setor":                   entry.TimeOfDay,
		"processo":                entry.ProcessNumber,
		"despacho":                entry.Booked,
		"cliente":                 entry.Client,
		"status":                  entry.Status,
		"resposta_do_colaborador": entry.ClientNotified,
		"observacoes":             entry.Notes,
	}
}

// MoveAgendaToCompleted archives one agenda entry and deletes it in the same
// transaction.
func (s *Store) MoveAgendaToCompleted(ctx context.Context, id int64) error {
	entry, err := s.GetAgenda(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin agenda move: %w", err)
	}
	defer tx.Rollback()

	if err := s.insertCompletedTx(ctx, tx, agendaArchiveValues(entry)); err != nil {
		return err
	}
	del, delArgs, err := psql.Delete("agenda").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build agenda delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, del, delArgs...); err != nil {
		return fmt.Errorf("delete agenda row: %w", err)
	}
	return tx.Commit()
}

// Agenda adapts the Store to the agenda repository port.
type Agenda struct{ Store *Store }

func (a Agenda) Insert(ctx context.Context, e *domain.AgendaEntry) (int64, error) {
	return a.Store.InsertAgenda(ctx, e)
}

func (a Agenda) List(ctx context.Context) ([]domain.AgendaEntry, error) {
	return a.Store.ListAgenda(ctx)
}

func (a Agenda) Get(ctx context.Context, id int64) (*domain.AgendaEntry, error) {
	return a.Store.GetAgenda(ctx, id)
}

func (a Agenda) Update(ctx context.Context, e *domain.AgendaEntry) error {
	return a.Store.UpdateAgenda(ctx, e)
}

func (a Agenda) Delete(ctx context.Context, id int64) error {
	return a.Store.DeleteAgenda(ctx, id)
}

func (a Agenda) MoveToCompleted(ctx context.Context, id int64) error {
	return a.Store.MoveAgendaToCompleted(ctx, id)
}

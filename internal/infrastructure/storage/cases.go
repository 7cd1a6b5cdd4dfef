package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"PrazoScanner/internal/domain"
)

var caseColumns = []string{
	"id", "inicio_prazo", "fim_prazo", "dias_restantes", "setor", "cliente",
	"processo", "despacho", "status", "resposta_do_colaborador", "observacoes",
}

func caseValues(item *domain.CaseItem) map[string]any {
	return map[string]any{
		"inicio_prazo":            item.StartDate,
		"fim_prazo":               item.EndDate,
		"dias_restantes":          item.DaysRemaining,
		"setor":                   item.Sector,
		"cliente":                 item.Client,
		"processo":                item.ProcessNumber,
		"despacho":                item.Dispatch,
		"status":                  item.Status,
		"resposta_do_colaborador": item.Response,
		"observacoes":             item.Notes,
	}
}

// Insert adds one case item to the given table and returns its id.
func (s *Store) Insert(ctx context.Context, kind domain.CaseKind, item *domain.CaseItem) (int64, error) {
	values := caseValues(item)
	if kind == domain.KindPublication {
		addPublicationValues(values, item)
	}
	query, args, err := psql.Insert(string(kind)).SetMap(values).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", kind, err)
	}
	return id, nil
}

func addPublicationValues(values map[string]any, item *domain.CaseItem) {
	if item.DedupeHash != "" {
		values["hash_dedup"] = item.DedupeHash
	}
	if item.Source != "" {
		values["fonte"] = item.Source
	}
	if item.CapturedAt != nil {
		values["capturado_em"] = item.CapturedAt
	}
	if item.OABNumber != "" {
		values["oab"] = item.OABNumber
	}
	if item.RawHTML != "" {
		values["raw_html"] = item.RawHTML
	}
}

// UpsertPublications writes scraped publications keyed by their dedupe hash:
// new hashes insert, known hashes refresh in place. Returns the number of
// rows written.
func (s *Store) UpsertPublications(ctx context.Context, items []domain.CaseItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	const conflict = `ON CONFLICT (hash_dedup) DO UPDATE SET
        inicio_prazo = EXCLUDED.inicio_prazo,
        setor = EXCLUDED.setor,
        cliente = EXCLUDED.cliente,
        processo = EXCLUDED.processo,
        observacoes = EXCLUDED.observacoes,
        fonte = EXCLUDED.fonte,
        capturado_em = EXCLUDED.capturado_em,
        oab = EXCLUDED.oab,
        raw_html = EXCLUDED.raw_html`

	written := 0
	for i := range items {
		item := &items[i]
		if item.DedupeHash == "" {
			return written, fmt.Errorf("publication without dedupe hash")
		}
		values := caseValues(item)
		addPublicationValues(values, item)
		query, args, err := psql.Insert("publicacoes").SetMap(values).Suffix(conflict).ToSql()
		if err != nil {
			return written, fmt.Errorf("build upsert: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return written, fmt.Errorf("upsert publication: %w", err)
		}
		written++
	}
	return written, nil
}

// List returns all rows of one case table, newest first, with days-remaining
// recomputed against today (the stored value is never authoritative).
func (s *Store) List(ctx context.Context, kind domain.CaseKind) ([]domain.CaseItem, error) {
	query, args, err := psql.Select(caseColumns...).From(string(kind)).OrderBy("id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var items []domain.CaseItem
	for rows.Next() {
		item, err := scanCaseItem(rows)
		if err != nil {
			return nil, err
		}
		item.ApplyDeadlineWindow(s.now())
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return items, nil
}

// Get loads one case row, with days-remaining recomputed.
func (s *Store) Get(ctx context.Context, kind domain.CaseKind, id int64) (*domain.CaseItem, error) {
	query, args, err := psql.Select(caseColumns...).From(string(kind)).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", kind, id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get %s %d: %w", kind, id, err)
		}
		return nil, fmt.Errorf("%s %d: %w", kind, id, sql.ErrNoRows)
	}
	item, err := scanCaseItem(rows)
	if err != nil {
		return nil, err
	}
	item.ApplyDeadlineWindow(s.now())
	return item, nil
}

func scanCaseItem(rows *sql.Rows) (*domain.CaseItem, error) {
	var (
		item   domain.CaseItem
		start  sql.NullTime
		end    sql.NullTime
		days   sql.NullInt64
		sector sql.NullString
		client sql.NullString
		proc   sql.NullString
		disp   sql.NullString
		status sql.NullString
		resp   sql.NullString
		notes  sql.NullString
	)
	if err := rows.Scan(&item.ID, &start, &end, &days, &sector, &client,
		&proc, &disp, &status, &resp, &notes); err != nil {
		return nil, fmt.Errorf("scan case item: %w", err)
	}
	if start.Valid {
		t := start.Time
		item.StartDate = &t
	}
	if end.Valid {
		t := end.Time
		item.EndDate = &t
	}
	if days.Valid {
		d := int(days.Int64)
		item.DaysRemaining = &d
	}
	item.Sector = sector.String
	item.Client = client.String
	item.ProcessNumber = proc.String
	item.Dispatch = disp.String
	item.Status = status.String
	item.Response = resp.String
	item.Notes = notes.String
	return &item, nil
}

// Update rewrites the editable fields of one case row.
func (s *Store) Update(ctx context.Context, kind domain.CaseKind, item *domain.CaseItem) error {
	query, args, err := psql.Update(string(kind)).
		SetMap(caseValues(item)).
		Where(sq.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update %s %d: %w", kind, item.ID, err)
	}
	return nil
}

// Delete removes one case row.
func (s *Store) Delete(ctx context.Context, kind domain.CaseKind, id int64) error {
	query, args, err := psql.Delete(string(kind)).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}
	return nil
}

// MoveToCompleted copies the row's populated fields into the archive and
// deletes the source row in the same transaction.
func (s *Store) MoveToCompleted(ctx context.Context, kind domain.CaseKind, id int64) error {
	query, args, err := psql.Select(caseColumns...).From(string(kind)).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build select: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin move: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load %s %d: %w", kind, id, err)
	}
	if !rows.Next() {
		rows.Close()
		return fmt.Errorf("%s %d: %w", kind, id, sql.ErrNoRows)
	}
	item, err := scanCaseItem(rows)
	rows.Close()
	if err != nil {
		return err
	}

	if err := s.insertCompletedTx(ctx, tx, caseValues(item)); err != nil {
		return err
	}
	del, delArgs, err := psql.Delete(string(kind)).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, del, delArgs...); err != nil {
		return fmt.Errorf("delete source row: %w", err)
	}
	return tx.Commit()
}

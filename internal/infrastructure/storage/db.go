// Package storage persists records to the Postgres database shared with the
// office front end. Table and column names follow the legacy schema.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
)

// psql builds statements with Postgres placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if logger != nil {
		logger.Info("connected to database")
	}
	return db, nil
}

// Store implements the repository and watermark ports over one *sql.DB.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time

	completedOnce sync.Once
	completedCols map[string]struct{}
	completedErr  error
}

// NewStore wires a Store; logger may be nil.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger, now: time.Now}
}

// caseItemDDL is shared by the two case tables and the archive.
const caseItemDDL = `(
    id BIGSERIAL PRIMARY KEY,
    inicio_prazo DATE,
    fim_prazo DATE,
    dias_restantes INTEGER,
    setor TEXT,
    cliente TEXT,
    processo TEXT,
    despacho TEXT,
    status TEXT,
    resposta_do_colaborador TEXT,
    observacoes TEXT,
    created_at TIMESTAMPTZ DEFAULT now()
)`

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS andamentos ` + caseItemDDL,
	`CREATE TABLE IF NOT EXISTS concluidas ` + caseItemDDL,
	`CREATE TABLE IF NOT EXISTS publicacoes (
        id BIGSERIAL PRIMARY KEY,
        hash_dedup TEXT,
        inicio_prazo DATE,
        fim_prazo DATE,
        dias_restantes INTEGER,
        setor TEXT,
        cliente TEXT,
        processo TEXT,
        despacho TEXT,
        status TEXT,
        resposta_do_colaborador TEXT,
        observacoes TEXT,
        fonte TEXT,
        capturado_em TIMESTAMPTZ,
        oab TEXT,
        raw_html TEXT,
        created_at TIMESTAMPTZ DEFAULT now()
    )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS publicacoes_hash_dedup_idx
        ON publicacoes (hash_dedup) WHERE hash_dedup IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS agenda (
        id BIGSERIAL PRIMARY KEY,
        data DATE,
        horario TEXT,
        status TEXT,
        cliente TEXT,
        cliente_avisado TEXT,
        anotado_na_agenda TEXT,
        observacao TEXT,
        numero_processo TEXT,
        tipo_audiencia_pericia TEXT,
        materia TEXT,
        parte_adversa TEXT,
        sistema TEXT,
        created_at TIMESTAMPTZ DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS last_checked (
        scope TEXT PRIMARY KEY,
        checked_at TIMESTAMPTZ NOT NULL
    )`,
}

// EnsureSchema creates any missing tables. Existing legacy tables are left
// untouched.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// completedColumns introspects the archive table's column set once; the
// allow-list tolerates legacy deployments missing newer columns.
func (s *Store) completedColumns(ctx context.Context) (map[string]struct{}, error) {
	s.completedOnce.Do(func() {
		rows, err := s.db.QueryContext(ctx,
			`SELECT column_name FROM information_schema.columns WHERE table_name = 'concluidas'`)
		if err != nil {
			s.completedErr = fmt.Errorf("introspect concluidas: %w", err)
			return
		}
		defer rows.Close()
		cols := map[string]struct{}{}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				s.completedErr = fmt.Errorf("scan column name: %w", err)
				return
			}
			cols[name] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			s.completedErr = fmt.Errorf("iterate columns: %w", err)
			return
		}
		s.completedCols = cols
	})
	return s.completedCols, s.completedErr
}

// insertCompletedTx projects values onto the introspected archive columns
// and inserts one row inside the caller's transaction.
func (s *Store) insertCompletedTx(ctx context.Context, tx *sql.Tx, values map[string]any) error {
	cols, err := s.completedColumns(ctx)
	if err != nil {
		return err
	}
	builder := psql.Insert("concluidas")
	filtered := map[string]any{}
	for k, v := range values {
		if _, ok := cols[k]; ok {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		return fmt.Errorf("no archive columns available for insert")
	}
	query, args, err := builder.SetMap(filtered).ToSql()
	if err != nil {
		return fmt.Errorf("build archive insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert archive row: %w", err)
	}
	return nil
}

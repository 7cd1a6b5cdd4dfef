// Package ports declares the boundaries between the ingestion pipelines and
// their driven adapters (mailbox, headless browser, database, calendar).
package ports

import (
	"context"
	"errors"
	"time"

	"PrazoScanner/internal/domain"
)

// MailMessage is one fetched message with its body already rendered to plain
// text (HTML part preferred over the plain part when both exist).
type MailMessage struct {
	Date time.Time
	Body string
}

// Mailbox hides the IMAP session: folder select, sender+date search, fetch.
type Mailbox interface {
	Search(ctx context.Context, folder, sender string, since time.Time) ([]uint32, error)
	Fetch(ctx context.Context, folder string, id uint32) (*MailMessage, error)
	Close() error
}

// ErrNoResults marks a scrape day with no publication cards; callers treat
// it as an empty day, not a failure.
var ErrNoResults = errors.New("no results for day")

// PageRenderer drives the headless browser: render the search results page
// for one day and return the settled HTML.
type PageRenderer interface {
	RenderDay(ctx context.Context, day time.Time) (string, error)
}

// CaseRepository persists the two case-item variants.
type CaseRepository interface {
	Insert(ctx context.Context, kind domain.CaseKind, item *domain.CaseItem) (int64, error)
	UpsertPublications(ctx context.Context, items []domain.CaseItem) (int, error)
	List(ctx context.Context, kind domain.CaseKind) ([]domain.CaseItem, error)
	Get(ctx context.Context, kind domain.CaseKind, id int64) (*domain.CaseItem, error)
	Update(ctx context.Context, kind domain.CaseKind, item *domain.CaseItem) error
	Delete(ctx context.Context, kind domain.CaseKind, id int64) error
	MoveToCompleted(ctx context.Context, kind domain.CaseKind, id int64) error
}

// AgendaRepository persists hearing/exam appointments.
type AgendaRepository interface {
	Insert(ctx context.Context, e *domain.AgendaEntry) (int64, error)
	List(ctx context.Context) ([]domain.AgendaEntry, error)
	Get(ctx context.Context, id int64) (*domain.AgendaEntry, error)
	Update(ctx context.Context, e *domain.AgendaEntry) error
	Delete(ctx context.Context, id int64) error
	MoveToCompleted(ctx context.Context, id int64) error
}

// WatermarkStore is the scope-keyed persisted cursor. Advance must never
// move a watermark backwards.
type WatermarkStore interface {
	Get(ctx context.Context, scope string) (*time.Time, error)
	Advance(ctx context.Context, scope string, t time.Time) error
}

// CalendarSync mirrors agenda rows into the external calendar. Best-effort:
// errors are reported as warnings and never abort the primary write.
type CalendarSync interface {
	SyncEvent(ctx context.Context, id int64, e *domain.AgendaEntry) error
	DeleteEvent(ctx context.Context, id int64) error
}

// Scheduler controls when the email pipeline runs.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

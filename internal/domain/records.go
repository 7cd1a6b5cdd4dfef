// Package domain holds the record types shared by ingestion, storage and the
// admin API. Column names stay aligned with the legacy tables the office
// front end reads.
package domain

import "time"

// CaseKind selects which of the two structurally identical case tables a
// record belongs to.
type CaseKind string

const (
	KindInProgress  CaseKind = "andamentos"
	KindPublication CaseKind = "publicacoes"
)

// CaseItem is a tracked legal matter with a deadline window. Sector doubles
// as the automatic routing result and a staff-editable field; both concerns
// share the one mutable attribute on purpose.
type CaseItem struct {
	ID            int64
	StartDate     *time.Time // inicio_prazo
	EndDate       *time.Time // fim_prazo
	DaysRemaining *int       // dias_restantes; derived, never authoritative
	Sector        string
	Client        string
	ProcessNumber string
	Dispatch      string // free-text routing note for the partners
	Status        string
	Response      string
	Notes         string

	// Publication-only provenance fields.
	Source     string
	CapturedAt *time.Time
	OABNumber  string
	RawHTML    string
	DedupeHash string
}

// AgendaEntry is a scheduled hearing/exam/appointment, optionally mirrored
// into the external calendar.
type AgendaEntry struct {
	ID             int64
	Date           *time.Time
	TimeOfDay      string
	Status         string
	Client         string
	ClientNotified string
	Booked         string // anotado_na_agenda
	Notes          string
	ProcessNumber  string
	EventType      string // tipo_audiencia_pericia
	Subject        string // materia
	OpposingParty  string
	SourceSystem   string // sistema
}

// CompletedItem is the terminal archive row; append-only in normal operation.
type CompletedItem struct {
	ID            int64
	StartDate     *time.Time
	EndDate       *time.Time
	DaysRemaining *int
	Sector        string
	Client        string
	ProcessNumber string
	Dispatch      string
	Status        string
	Response      string
	Notes         string
}

// Watermark scopes for the two ingestion jobs. Each scope's stored timestamp
// only ever moves forward.
const (
	ScopeEmail = "email"
	ScopePJe   = "pje_comunica"
)

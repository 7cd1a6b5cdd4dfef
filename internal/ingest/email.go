// Package ingest runs the two notification pipelines: IMAP mailbox sweep
// and PJe Comunica portal scrape. Both are idempotent via the scope-keyed
// watermark in last_checked.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"PrazoScanner/internal/classify"
	"PrazoScanner/internal/domain"
	"PrazoScanner/internal/extract"
	"PrazoScanner/internal/ports"
	"PrazoScanner/internal/textutil"
)

const statusInProgress = "Em Andamento"

// Email sweeps the configured folders for notifications from allow-listed
// senders and persists what it recognizes. One IMAP session per run.
type Email struct {
	Dial       func(ctx context.Context) (ports.Mailbox, error)
	Cases      ports.CaseRepository
	Agenda     ports.AgendaRepository
	Watermarks ports.WatermarkStore
	Classifier *classify.Sector
	Extractors *extract.Registry
	Logger     *slog.Logger

	Folders      []string
	CourtSenders []string
	DigestSender string
	ExamSender   string
	Location     *time.Location

	now func() time.Time
}

// NewEmail wires the mailbox pipeline.
func NewEmail(dial func(ctx context.Context) (ports.Mailbox, error),
	cases ports.CaseRepository, agenda ports.AgendaRepository,
	watermarks ports.WatermarkStore, classifier *classify.Sector,
	extractors *extract.Registry, logger *slog.Logger) *Email {
	if logger == nil {
		logger = slog.Default()
	}
	return &Email{
		Dial:       dial,
		Cases:      cases,
		Agenda:     agenda,
		Watermarks: watermarks,
		Classifier: classifier,
		Extractors: extractors,
		Logger:     logger,
		Folders:    []string{"INBOX", "Bulk"},
		Location:   time.Local,
		now:        time.Now,
	}
}

func (e *Email) senders() []string {
	senders := append([]string{}, e.CourtSenders...)
	if e.DigestSender != "" {
		senders = append(senders, e.DigestSender)
	}
	if e.ExamSender != "" {
		senders = append(senders, e.ExamSender)
	}
	return senders
}

// Run performs one full sweep. The watermark moves only at the end, to the
// newest message timestamp seen, so a crashed run re-reads messages instead
// of losing them. A failing message (or a failing folder/sender search) is
// logged and skipped, never aborting the rest of the sweep. Returns the
// number of records written.
func (e *Email) Run(ctx context.Context) (int, error) {
	since := time.Unix(0, 0)
	wm, err := e.Watermarks.Get(ctx, domain.ScopeEmail)
	if err != nil {
		return 0, fmt.Errorf("read watermark: %w", err)
	}
	if wm != nil {
		since = wm.In(e.Location)
	}

	mailbox, err := e.Dial(ctx)
	if err != nil {
		return 0, fmt.Errorf("connect mailbox: %w", err)
	}
	defer mailbox.Close()

	total := 0
	maxSeen := since
	for _, folder := range e.Folders {
		for _, sender := range e.senders() {
			e.Logger.Info("searching mailbox",
				"folder", folder, "sender", sender, "since", since.Format("02-Jan-2006"))
			ids, err := mailbox.Search(ctx, folder, sender, since)
			if err != nil {
				e.Logger.Error("mailbox search failed",
					"folder", folder, "sender", sender, "error", err)
				continue
			}
			e.Logger.Info("messages found", "folder", folder, "count", len(ids))
			for _, id := range ids {
				added, ts, err := e.processMessage(ctx, mailbox, folder, sender, id, since)
				if err != nil {
					e.Logger.Error("message skipped",
						"folder", folder, "sender", sender, "id", id, "error", err)
					continue
				}
				total += added
				if ts.After(maxSeen) {
					maxSeen = ts
				}
			}
		}
	}

	if maxSeen.After(since) {
		if err := e.Watermarks.Advance(ctx, domain.ScopeEmail, maxSeen); err != nil {
			return total, fmt.Errorf("advance watermark: %w", err)
		}
	}
	e.Logger.Info("mailbox sweep finished", "records", total)
	return total, nil
}

// processMessage handles one message end to end. The returned timestamp is
// zero when the message was filtered out as already processed.
func (e *Email) processMessage(ctx context.Context, mailbox ports.Mailbox,
	folder, sender string, id uint32, since time.Time) (int, time.Time, error) {
	msg, err := mailbox.Fetch(ctx, folder, id)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("fetch: %w", err)
	}
	// SINCE is date-granular; drop anything at or before the exact cutoff.
	if !msg.Date.IsZero() && !msg.Date.After(since) {
		return 0, time.Time{}, nil
	}

	switch {
	case strings.EqualFold(sender, e.DigestSender) && e.DigestSender != "":
		added, err := e.processDigest(ctx, msg.Body)
		return added, msg.Date, err
	case strings.EqualFold(sender, e.ExamSender) && e.ExamSender != "":
		added, err := e.processExamMail(ctx, msg.Body)
		return added, msg.Date, err
	default:
		added, err := e.processCourtMail(ctx, sender, msg)
		return added, msg.Date, err
	}
}

// processCourtMail covers the tribunal notification senders and any unknown
// allow-listed address: auto-agenda a detected hearing/exam, then record the
// notification as an in-progress case item.
func (e *Email) processCourtMail(ctx context.Context, sender string, msg *ports.MailMessage) (int, error) {
	body := msg.Body
	added := 0

	clients := extract.ClientNames(body)
	if kind := extract.DetectEvent(body); kind != extract.EventNone {
		date, timeOfDay := extract.EventDateTime(body, kind)
		descr := extract.EventTypeDescription(body)
		if descr == "" {
			if kind == extract.EventHearing {
				descr = "Audiência"
			} else {
				descr = "Perícia"
			}
		}
		entry := &domain.AgendaEntry{
			Date:         textutil.ParseDateBR(date),
			TimeOfDay:    timeOfDay,
			Client:       clients,
			EventType:    descr,
			SourceSystem: sender,
		}
		if _, err := e.Agenda.Insert(ctx, entry); err != nil {
			return added, fmt.Errorf("insert agenda entry: %w", err)
		}
		added++
	}

	fields := e.Extractors.Resolve(sender).Extract(body)
	processNumber := fields.ProcessNumber
	if processNumber == "" {
		processNumber = extract.ProcessNumber(body)
	}

	var start *time.Time
	if !msg.Date.IsZero() {
		day := msg.Date.In(e.Location)
		d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		start = &d
	}
	item := &domain.CaseItem{
		StartDate:     start,
		Sector:        e.Classifier.Classify(body),
		Client:        clients,
		ProcessNumber: processNumber,
		Status:        statusInProgress,
		Notes:         extract.StripEventPrefix(fields.Events),
	}
	if _, err := e.Cases.Insert(ctx, domain.KindInProgress, item); err != nil {
		return added, fmt.Errorf("insert case item: %w", err)
	}
	return added + 1, nil
}

// processDigest splits a digest mail into its publication notices. Election
// board notices are dropped; nothing lands in the in-progress table.
func (e *Email) processDigest(ctx context.Context, body string) (int, error) {
	blocks := extract.SplitDigest(body)
	added := 0
	for _, block := range blocks {
		if extract.IsElectionNotice(block.Event) {
			e.Logger.Info("election notice skipped", "process", block.ProcessNumber)
			continue
		}
		item := &domain.CaseItem{
			StartDate:     textutil.ParseDateBR(block.Date),
			Client:        extract.PoloAtivoName(block.Event),
			ProcessNumber: block.ProcessNumber,
			Status:        statusInProgress,
			Notes:         block.Event,
		}
		if _, err := e.Cases.Insert(ctx, domain.KindPublication, item); err != nil {
			return added, fmt.Errorf("insert publication: %w", err)
		}
		added++
	}
	return added, nil
}

// processExamMail books the expert-exam appointment straight into the agenda.
func (e *Email) processExamMail(ctx context.Context, body string) (int, error) {
	appt := extract.ParseExamAppointment(body)
	entry := &domain.AgendaEntry{
		Date:         textutil.ParseDateBR(appt.Date),
		TimeOfDay:    appt.TimeOfDay,
		Client:       appt.Client,
		EventType:    appt.EventType,
		SourceSystem: "pmfgestao",
	}
	if _, err := e.Agenda.Insert(ctx, entry); err != nil {
		return 0, fmt.Errorf("insert exam appointment: %w", err)
	}
	return 1, nil
}

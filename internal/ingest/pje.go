package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"PrazoScanner/internal/classify"
	"PrazoScanner/internal/domain"
	"PrazoScanner/internal/extract"
	"PrazoScanner/internal/ports"
	"PrazoScanner/internal/textutil"
)

const (
	pjeSource   = "PJe Comunica"
	dayAttempts = 3
)

// timeutils for the day loop; end-of-day is what the watermark records after
// a successful day.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// PublicationCard is one result card as rendered on the consulta page.
type PublicationCard struct {
	AvailableDate string
	Parties       string
	ProcessNumber string
	Text          string
	RawHTML       string
}

// ParsePublicationCards extracts result cards from the settled page HTML.
// A card is the closest div[role=article] or .card ancestor of the
// availability-date label; each labeled field is the label node's next
// sibling.
func ParsePublicationCards(page string) ([]PublicationCard, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	var cards []PublicationCard
	seen := map[*html.Node]bool{}
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		if !strings.Contains(strings.TrimSpace(sel.Text()), "Data da disponibilização") {
			return
		}
		if sel.Children().Length() > 0 {
			return // want the leaf label node, not its containers
		}
		card := closestCard(sel)
		if card == nil || len(card.Nodes) == 0 || seen[card.Nodes[0]] {
			return
		}
		seen[card.Nodes[0]] = true
		raw, _ := card.Html()
		cards = append(cards, PublicationCard{
			AvailableDate: labelSibling(card, "Data da disponibilização"),
			Parties:       labelSibling(card, "Partes"),
			ProcessNumber: labelSibling(card, "Processo"),
			Text:          strings.TrimSpace(card.Text()),
			RawHTML:       raw,
		})
	})
	return cards, nil
}

// closestCard climbs to the nearest ancestor that looks like a result card.
func closestCard(sel *goquery.Selection) *goquery.Selection {
	for p := sel.Parent(); p.Length() > 0; p = p.Parent() {
		if role, _ := p.Attr("role"); role == "article" {
			return p
		}
		if class, _ := p.Attr("class"); strings.Contains(class, "card") {
			return p
		}
	}
	return nil
}

// labelSibling returns the text of the first sibling after the element whose
// own text carries the label.
func labelSibling(card *goquery.Selection, label string) string {
	var out string
	card.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.Children().Length() > 0 {
			return true
		}
		if !strings.Contains(strings.TrimSpace(sel.Text()), label) {
			return true
		}
		next := sel.Next()
		if next.Length() == 0 {
			next = sel.Parent().Next()
		}
		if next.Length() > 0 {
			out = strings.TrimSpace(next.Text())
			return false
		}
		return true
	})
	return out
}

// PJe scrapes the PJe Comunica portal day by day and upserts publications.
type PJe struct {
	Renderer   ports.PageRenderer
	Cases      ports.CaseRepository
	Watermarks ports.WatermarkStore
	Classifier *classify.Sector
	Logger     *slog.Logger

	OABNumber string
	Location  *time.Location

	// DryRun logs normalized samples instead of writing.
	DryRun bool

	now   func() time.Time
	sleep func(time.Duration)
}

// NewPJe wires the scrape pipeline.
func NewPJe(renderer ports.PageRenderer, cases ports.CaseRepository,
	watermarks ports.WatermarkStore, classifier *classify.Sector,
	oab string, loc *time.Location, logger *slog.Logger) *PJe {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PJe{
		Renderer:   renderer,
		Cases:      cases,
		Watermarks: watermarks,
		Classifier: classifier,
		Logger:     logger,
		OABNumber:  oab,
		Location:   loc,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// Run processes the [from, to] day range. Zero values derive the range from
// the watermark (or today on first run) through today. Each successful day
// advances the watermark to its end; a day that fails all attempts aborts
// the remaining range. Returns the number of publications written.
func (p *PJe) Run(ctx context.Context, from, to time.Time) (int, error) {
	today := startOfDay(p.now().In(p.Location))
	if from.IsZero() || to.IsZero() {
		start := today
		wm, err := p.Watermarks.Get(ctx, domain.ScopePJe)
		if err != nil {
			return 0, fmt.Errorf("read watermark: %w", err)
		}
		if wm != nil {
			start = startOfDay(wm.In(p.Location))
		}
		if from.IsZero() {
			from = start
		}
		if to.IsZero() {
			to = today
		}
	}
	from, to = startOfDay(from.In(p.Location)), startOfDay(to.In(p.Location))
	if to.Before(from) {
		return 0, fmt.Errorf("day range ends (%s) before it starts (%s)",
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	total := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		p.Logger.Info("processing day", "day", day.Format("2006-01-02"))
		written, err := p.runDay(ctx, day)
		if err != nil {
			p.Logger.Error("day failed, aborting remaining range",
				"day", day.Format("2006-01-02"), "error", err)
			return total, err
		}
		total += written
		if err := p.Watermarks.Advance(ctx, domain.ScopePJe, endOfDay(day)); err != nil {
			return total, fmt.Errorf("advance watermark: %w", err)
		}
		p.sleep(time.Second)
	}
	return total, nil
}

// runDay renders and persists one day, retrying transient scrape failures.
func (p *PJe) runDay(ctx context.Context, day time.Time) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= dayAttempts; attempt++ {
		html, err := p.Renderer.RenderDay(ctx, day)
		if errors.Is(err, ports.ErrNoResults) {
			p.Logger.Info("no results", "day", day.Format("2006-01-02"))
			return 0, nil
		}
		if err == nil {
			cards, perr := ParsePublicationCards(html)
			if perr == nil {
				return p.persistDay(ctx, day, cards)
			}
			err = perr
		}
		lastErr = err
		p.Logger.Warn("scrape attempt failed",
			"day", day.Format("2006-01-02"), "attempt", attempt, "error", err)
		if attempt < dayAttempts {
			p.sleep(time.Second + time.Duration(rand.Int63n(int64(time.Second))))
		}
	}
	return 0, lastErr
}

func (p *PJe) persistDay(ctx context.Context, day time.Time, cards []PublicationCard) (int, error) {
	items := make([]domain.CaseItem, 0, len(cards))
	for _, card := range cards {
		items = append(items, p.normalize(day, card))
	}
	if p.DryRun {
		for i, item := range items {
			if i >= 2 {
				break
			}
			notes := item.Notes
			if len(notes) > 200 {
				notes = notes[:200]
			}
			p.Logger.Info("sample record",
				"inicio_prazo", item.StartDate.Format("2006-01-02"),
				"setor", item.Sector, "cliente", item.Client,
				"processo", item.ProcessNumber, "observacoes", notes)
		}
		p.Logger.Info("dry run", "day", day.Format("2006-01-02"), "records", len(items))
		return 0, nil
	}
	written, err := p.Cases.UpsertPublications(ctx, items)
	if err != nil {
		return written, fmt.Errorf("persist day: %w", err)
	}
	p.Logger.Info("records written", "day", day.Format("2006-01-02"), "count", written)
	return written, nil
}

// normalize maps a raw card onto a publication row. A card whose date does
// not parse keeps the scraped day's date.
func (p *PJe) normalize(day time.Time, card PublicationCard) domain.CaseItem {
	start := day
	if parsed := textutil.ParseDateBR(card.AvailableDate); parsed != nil {
		start = *parsed
	}
	notes := textutil.CollapseSpaces(card.Text)
	capturedAt := p.now().In(p.Location)
	return domain.CaseItem{
		StartDate:     &start,
		Sector:        p.Classifier.Classify(notes),
		Client:        card.Parties,
		ProcessNumber: extract.ProcessNumber(card.ProcessNumber),
		Notes:         notes,
		Source:        pjeSource,
		CapturedAt:    &capturedAt,
		OABNumber:     p.OABNumber,
		RawHTML:       card.RawHTML,
		DedupeHash:    domain.DedupeHash(extract.ProcessNumber(card.ProcessNumber), start, notes),
	}
}

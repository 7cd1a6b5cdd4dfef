package ingest

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"PrazoScanner/internal/classify"
	"PrazoScanner/internal/domain"
	"PrazoScanner/internal/ports"
)

const consultaHTML = `<html><body>
<div class="results">
  <div class="card">
    <div><span>Data da disponibilização</span><span>10/06/2024</span></div>
    <div><span>Partes</span><span>Fulano de Tal x Empresa X</span></div>
    <div><span>Processo</span><span>Processo 0001234-56.2024.5.01.0001</span></div>
    <div>Expedição de RPV no processo.</div>
  </div>
  <div role="article">
    <div><span>Data da disponibilização</span><span>10/06/2024</span></div>
    <div><span>Partes</span><span>Beltrano x Empresa Y</span></div>
    <div><span>Processo</span><span>7654321-09.2023.8.19.0001</span></div>
    <div>Intimação para audiência.</div>
  </div>
</div>
</body></html>`

func TestParsePublicationCards(t *testing.T) {
	t.Parallel()
	cards, err := ParsePublicationCards(consultaHTML)
	if err != nil {
		t.Fatalf("ParsePublicationCards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("len = %d, want 2", len(cards))
	}
	first := cards[0]
	if first.AvailableDate != "10/06/2024" {
		t.Errorf("AvailableDate = %q", first.AvailableDate)
	}
	if first.Parties != "Fulano de Tal x Empresa X" {
		t.Errorf("Parties = %q", first.Parties)
	}
	if first.ProcessNumber != "Processo 0001234-56.2024.5.01.0001" {
		t.Errorf("ProcessNumber = %q", first.ProcessNumber)
	}
	if first.RawHTML == "" {
		t.Error("RawHTML is empty")
	}
}

func TestParsePublicationCardsDeduplicatesRepeatedLabel(t *testing.T) {
	t.Parallel()
	page := `<html><body><div class="card">
	  <div><span>Data da disponibilização</span><span>10/06/2024</span></div>
	  <div><span>Data da disponibilização</span><span>10/06/2024</span></div>
	  <div><span>Processo</span><span>0001234-56.2024.5.01.0001</span></div>
	</div></body></html>`
	cards, err := ParsePublicationCards(page)
	if err != nil {
		t.Fatalf("ParsePublicationCards: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("len = %d, want 1 card for a repeated label", len(cards))
	}
}

type fakeRenderer struct {
	html  string
	fails int
	calls int
	err   error
}

func (f *fakeRenderer) RenderDay(ctx context.Context, day time.Time) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.calls <= f.fails {
		return "", errors.New("page timed out")
	}
	return f.html, nil
}

type insertedCase struct {
	kind domain.CaseKind
	item domain.CaseItem
}

type fakeCaseRepo struct {
	upserts [][]domain.CaseItem
	inserts []insertedCase
}

func (f *fakeCaseRepo) Insert(_ context.Context, kind domain.CaseKind, item *domain.CaseItem) (int64, error) {
	f.inserts = append(f.inserts, insertedCase{kind: kind, item: *item})
	return int64(len(f.inserts)), nil
}

func (f *fakeCaseRepo) UpsertPublications(_ context.Context, items []domain.CaseItem) (int, error) {
	f.upserts = append(f.upserts, items)
	return len(items), nil
}

func (f *fakeCaseRepo) List(context.Context, domain.CaseKind) ([]domain.CaseItem, error) {
	return nil, nil
}

func (f *fakeCaseRepo) Get(context.Context, domain.CaseKind, int64) (*domain.CaseItem, error) {
	return nil, errors.New("not found")
}

func (f *fakeCaseRepo) Update(context.Context, domain.CaseKind, *domain.CaseItem) error {
	return nil
}

func (f *fakeCaseRepo) Delete(context.Context, domain.CaseKind, int64) error { return nil }

func (f *fakeCaseRepo) MoveToCompleted(context.Context, domain.CaseKind, int64) error { return nil }

type fakeWatermarks struct {
	marks map[string]time.Time
}

func newFakeWatermarks() *fakeWatermarks {
	return &fakeWatermarks{marks: map[string]time.Time{}}
}

func (f *fakeWatermarks) Get(_ context.Context, scope string) (*time.Time, error) {
	t, ok := f.marks[scope]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeWatermarks) Advance(_ context.Context, scope string, t time.Time) error {
	if cur, ok := f.marks[scope]; !ok || cur.Before(t) {
		f.marks[scope] = t
	}
	return nil
}

func newTestPJe(r ports.PageRenderer, repo *fakeCaseRepo, wm *fakeWatermarks) *PJe {
	p := NewPJe(r, repo, wm, classify.NewSector("", "", nil), "198943", time.UTC,
		slog.New(slog.DiscardHandler))
	p.now = func() time.Time { return time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC) }
	p.sleep = func(time.Duration) {}
	return p
}

func TestPJeRunPersistsAndAdvancesWatermark(t *testing.T) {
	t.Parallel()
	repo := &fakeCaseRepo{}
	wm := newFakeWatermarks()
	p := newTestPJe(&fakeRenderer{html: consultaHTML}, repo, wm)

	total, err := p.Run(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if len(repo.upserts) != 1 {
		t.Fatalf("upsert batches = %d, want 1", len(repo.upserts))
	}

	items := repo.upserts[0]
	if items[0].ProcessNumber != "0001234-56.2024.5.01.0001" {
		t.Errorf("ProcessNumber = %q", items[0].ProcessNumber)
	}
	if items[0].Sector != "Setor Financeiro" {
		t.Errorf("Sector = %q, want financial for RPV text", items[0].Sector)
	}
	if items[1].Sector != "Geral" {
		t.Errorf("Sector = %q, want default", items[1].Sector)
	}
	if items[0].DedupeHash == "" || items[0].DedupeHash == items[1].DedupeHash {
		t.Error("dedupe hashes must be set and distinct")
	}
	if items[0].StartDate == nil || !items[0].StartDate.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartDate = %v", items[0].StartDate)
	}

	got, ok := wm.marks[domain.ScopePJe]
	if !ok {
		t.Fatal("watermark not advanced")
	}
	want := time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("watermark = %v, want %v", got, want)
	}
}

func TestPJeRunRetriesFailedDay(t *testing.T) {
	t.Parallel()
	repo := &fakeCaseRepo{}
	r := &fakeRenderer{html: consultaHTML, fails: 2}
	p := newTestPJe(r, repo, newFakeWatermarks())

	total, err := p.Run(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if r.calls != 3 {
		t.Fatalf("render calls = %d, want 3", r.calls)
	}
}

func TestPJeRunAbortsRangeAfterExhaustedRetries(t *testing.T) {
	t.Parallel()
	repo := &fakeCaseRepo{}
	wm := newFakeWatermarks()
	r := &fakeRenderer{html: consultaHTML, fails: 10}
	p := newTestPJe(r, repo, wm)

	from := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	if _, err := p.Run(context.Background(), from, to); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if r.calls != dayAttempts {
		t.Fatalf("render calls = %d, want %d", r.calls, dayAttempts)
	}
	if _, ok := wm.marks[domain.ScopePJe]; ok {
		t.Fatal("watermark must not advance for a failed day")
	}
}

func TestPJeRunNoResultsDay(t *testing.T) {
	t.Parallel()
	repo := &fakeCaseRepo{}
	wm := newFakeWatermarks()
	p := newTestPJe(&fakeRenderer{err: ports.ErrNoResults}, repo, wm)

	total, err := p.Run(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 0 {
		t.Fatalf("total = %d, want 0", total)
	}
	if len(repo.upserts) != 0 {
		t.Fatal("no-results day must not write")
	}
	if _, ok := wm.marks[domain.ScopePJe]; !ok {
		t.Fatal("empty day still advances the watermark")
	}
}

func TestPJeDryRunWritesNothing(t *testing.T) {
	t.Parallel()
	repo := &fakeCaseRepo{}
	p := newTestPJe(&fakeRenderer{html: consultaHTML}, repo, newFakeWatermarks())
	p.DryRun = true

	total, err := p.Run(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 0 {
		t.Fatalf("total = %d, want 0", total)
	}
	if len(repo.upserts) != 0 {
		t.Fatal("dry run must not write")
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PrazoScanner/internal/domain"
	"PrazoScanner/internal/usecase"
)

type memCases struct {
	items  map[int64]domain.CaseItem
	nextID int64
}

func (m *memCases) Insert(_ context.Context, _ domain.CaseKind, item *domain.CaseItem) (int64, error) {
	m.nextID++
	item.ID = m.nextID
	m.items[item.ID] = *item
	return item.ID, nil
}

func (m *memCases) UpsertPublications(_ context.Context, items []domain.CaseItem) (int, error) {
	return len(items), nil
}

func (m *memCases) List(context.Context, domain.CaseKind) ([]domain.CaseItem, error) {
	var out []domain.CaseItem
	for _, item := range m.items {
		out = append(out, item)
	}
	return out, nil
}

func (m *memCases) Get(_ context.Context, _ domain.CaseKind, id int64) (*domain.CaseItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, errors.New("no such case")
	}
	return &item, nil
}

func (m *memCases) Update(_ context.Context, _ domain.CaseKind, item *domain.CaseItem) error {
	m.items[item.ID] = *item
	return nil
}

func (m *memCases) Delete(_ context.Context, _ domain.CaseKind, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *memCases) MoveToCompleted(_ context.Context, _ domain.CaseKind, id int64) error {
	if _, ok := m.items[id]; !ok {
		return errors.New("no such case")
	}
	delete(m.items, id)
	return nil
}

type memAgenda struct {
	entries map[int64]domain.AgendaEntry
	nextID  int64
}

func (m *memAgenda) Insert(_ context.Context, e *domain.AgendaEntry) (int64, error) {
	m.nextID++
	e.ID = m.nextID
	m.entries[e.ID] = *e
	return e.ID, nil
}

func (m *memAgenda) List(context.Context) ([]domain.AgendaEntry, error) { return nil, nil }

func (m *memAgenda) Get(_ context.Context, id int64) (*domain.AgendaEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, errors.New("no such entry")
	}
	return &e, nil
}

func (m *memAgenda) Update(_ context.Context, e *domain.AgendaEntry) error {
	m.entries[e.ID] = *e
	return nil
}

func (m *memAgenda) Delete(_ context.Context, id int64) error {
	delete(m.entries, id)
	return nil
}

func (m *memAgenda) MoveToCompleted(_ context.Context, id int64) error {
	delete(m.entries, id)
	return nil
}

type failingCalendar struct{}

func (failingCalendar) SyncEvent(context.Context, int64, *domain.AgendaEntry) error {
	return errors.New("calendar offline")
}

func (failingCalendar) DeleteEvent(context.Context, int64) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *memCases, *memAgenda) {
	t.Helper()
	cases := &memCases{items: map[int64]domain.CaseItem{}}
	agenda := &memAgenda{entries: map[int64]domain.AgendaEntry{}}
	records := usecase.NewRecords(cases, agenda, failingCalendar{}, slog.New(slog.DiscardHandler))
	srv := httptest.NewServer(New(records, slog.New(slog.DiscardHandler)).Router())
	t.Cleanup(srv.Close)
	return srv, cases, agenda
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestSaveCaseEndpointDerivesDeadline(t *testing.T) {
	t.Parallel()
	srv, cases, _ := newTestServer(t)

	payload := `{"inicio_prazo":"2024-06-10","dias_restantes":15,"cliente":"Fulano","status":"Em Andamento"}`
	resp, err := http.Post(srv.URL+"/api/cases/andamentos/", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	item, ok := body["item"].(map[string]any)
	if !ok {
		t.Fatalf("no item in response: %v", body)
	}
	if item["fim_prazo"] != "2024-06-25" {
		t.Fatalf("fim_prazo = %v, want derived end date", item["fim_prazo"])
	}
	if len(cases.items) != 1 {
		t.Fatalf("stored items = %d, want 1", len(cases.items))
	}
}

func TestListCasesEndpoint(t *testing.T) {
	t.Parallel()
	srv, cases, _ := newTestServer(t)
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	cases.items[1] = domain.CaseItem{ID: 1, StartDate: &start, Client: "Fulano"}
	cases.nextID = 1

	resp, err := http.Get(srv.URL + "/api/cases/andamentos/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	items, ok := body["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v", body["items"])
	}
}

func TestUnknownCaseKind(t *testing.T) {
	t.Parallel()
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/cases/whatever/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSaveAgendaEndpointSurfacesWarnings(t *testing.T) {
	t.Parallel()
	srv, _, agenda := newTestServer(t)

	payload := `{"data":"2024-07-01","horario":"14:30","cliente":"Fulano"}`
	resp, err := http.Post(srv.URL+"/api/agenda/", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	warns, ok := body["warnings"].([]any)
	if !ok || len(warns) != 1 {
		t.Fatalf("warnings = %v, want the calendar failure", body["warnings"])
	}
	if len(agenda.entries) != 1 {
		t.Fatal("agenda row must be written even when the calendar fails")
	}
}

func TestCompleteCaseEndpoint(t *testing.T) {
	t.Parallel()
	srv, cases, _ := newTestServer(t)
	cases.items[3] = domain.CaseItem{ID: 3, Client: "Fulano"}
	cases.nextID = 3

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/cases/publicacoes/3/complete", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(cases.items) != 0 {
		t.Fatal("case must be archived")
	}
}

func TestPromoteCaseEndpoint(t *testing.T) {
	t.Parallel()
	srv, cases, agenda := newTestServer(t)
	end := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	cases.items[5] = domain.CaseItem{ID: 5, EndDate: &end, Client: "Fulano", ProcessNumber: "0001234-56.2024.5.01.0001"}
	cases.nextID = 5

	resp, err := http.Post(srv.URL+"/api/cases/andamentos/5/promote", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["agenda_id"] == nil {
		t.Fatalf("no agenda_id in %v", body)
	}
	if len(agenda.entries) != 1 {
		t.Fatal("agenda entry must exist")
	}
}

func TestDeleteAgendaEndpoint(t *testing.T) {
	t.Parallel()
	srv, _, agenda := newTestServer(t)
	agenda.entries[2] = domain.AgendaEntry{ID: 2}
	agenda.nextID = 2

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/agenda/2/", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(agenda.entries) != 0 {
		t.Fatal("agenda entry must be deleted")
	}
}

// Package server exposes the record operations over a small JSON API. Field
// names mirror the legacy table columns so the existing front end can move
// over without a translation layer.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"PrazoScanner/internal/domain"
	"PrazoScanner/internal/usecase"
)

const dateLayout = "2006-01-02"

// Server wires the HTTP routes over the records service.
type Server struct {
	records *usecase.Records
	logger  *slog.Logger
}

func New(records *usecase.Records, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{records: records, logger: logger}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cases/{kind}", func(r chi.Router) {
			r.Get("/", s.listCases)
			r.Post("/", s.saveCase)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", s.deleteCase)
				r.Post("/complete", s.completeCase)
				r.Post("/promote", s.promoteCase)
			})
		})
		r.Route("/agenda", func(r chi.Router) {
			r.Get("/", s.listAgenda)
			r.Post("/", s.saveAgenda)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", s.deleteAgenda)
				r.Post("/complete", s.completeAgenda)
			})
		})
	})
	return r
}

var errUnknownKind = errors.New("unknown case kind")

func caseKind(r *http.Request) (domain.CaseKind, error) {
	kind := domain.CaseKind(chi.URLParam(r, "kind"))
	switch kind {
	case domain.KindInProgress, domain.KindPublication:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", errUnknownKind, string(kind))
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// caseItemJSON uses the legacy column names on the wire.
type caseItemJSON struct {
	ID            int64  `json:"id,omitempty"`
	StartDate     string `json:"inicio_prazo,omitempty"`
	EndDate       string `json:"fim_prazo,omitempty"`
	DaysRemaining *int   `json:"dias_restantes,omitempty"`
	Sector        string `json:"setor,omitempty"`
	Client        string `json:"cliente,omitempty"`
	ProcessNumber string `json:"processo,omitempty"`
	Dispatch      string `json:"despacho,omitempty"`
	Status        string `json:"status,omitempty"`
	Response      string `json:"resposta_do_colaborador,omitempty"`
	Notes         string `json:"observacoes,omitempty"`
}

func toCaseJSON(item domain.CaseItem) caseItemJSON {
	out := caseItemJSON{
		ID:            item.ID,
		DaysRemaining: item.DaysRemaining,
		Sector:        item.Sector,
		Client:        item.Client,
		ProcessNumber: item.ProcessNumber,
		Dispatch:      item.Dispatch,
		Status:        item.Status,
		Response:      item.Response,
		Notes:         item.Notes,
	}
	if item.StartDate != nil {
		out.StartDate = item.StartDate.Format(dateLayout)
	}
	if item.EndDate != nil {
		out.EndDate = item.EndDate.Format(dateLayout)
	}
	return out
}

func (c caseItemJSON) toDomain() (*domain.CaseItem, error) {
	item := &domain.CaseItem{
		ID:            c.ID,
		DaysRemaining: c.DaysRemaining,
		Sector:        c.Sector,
		Client:        c.Client,
		ProcessNumber: c.ProcessNumber,
		Dispatch:      c.Dispatch,
		Status:        c.Status,
		Response:      c.Response,
		Notes:         c.Notes,
	}
	var err error
	if item.StartDate, err = parseDate(c.StartDate); err != nil {
		return nil, fmt.Errorf("inicio_prazo: %w", err)
	}
	if item.EndDate, err = parseDate(c.EndDate); err != nil {
		return nil, fmt.Errorf("fim_prazo: %w", err)
	}
	return item, nil
}

type agendaEntryJSON struct {
	ID             int64  `json:"id,omitempty"`
	Date           string `json:"data,omitempty"`
	TimeOfDay      string `json:"horario,omitempty"`
	Status         string `json:"status,omitempty"`
	Client         string `json:"cliente,omitempty"`
	ClientNotified string `json:"cliente_avisado,omitempty"`
	Booked         string `json:"anotado_na_agenda,omitempty"`
	Notes          string `json:"observacao,omitempty"`
	ProcessNumber  string `json:"numero_processo,omitempty"`
	EventType      string `json:"tipo_audiencia_pericia,omitempty"`
	Subject        string `json:"materia,omitempty"`
	OpposingParty  string `json:"parte_adversa,omitempty"`
	SourceSystem   string `json:"sistema,omitempty"`
}

func toAgendaJSON(e domain.AgendaEntry) agendaEntryJSON {
	out := agendaEntryJSON{
		ID:             e.ID,
		TimeOfDay:      e.TimeOfDay,
		Status:         e.Status,
		Client:         e.Client,
		ClientNotified: e.ClientNotified,
		Booked:         e.Booked,
		Notes:          e.Notes,
		ProcessNumber:  e.ProcessNumber,
		EventType:      e.EventType,
		Subject:        e.Subject,
		OpposingParty:  e.OpposingParty,
		SourceSystem:   e.SourceSystem,
	}
	if e.Date != nil {
		out.Date = e.Date.Format(dateLayout)
	}
	return out
}

func (a agendaEntryJSON) toDomain() (*domain.AgendaEntry, error) {
	entry := &domain.AgendaEntry{
		ID:             a.ID,
		TimeOfDay:      a.TimeOfDay,
		Status:         a.Status,
		Client:         a.Client,
		ClientNotified: a.ClientNotified,
		Booked:         a.Booked,
		Notes:          a.Notes,
		ProcessNumber:  a.ProcessNumber,
		EventType:      a.EventType,
		Subject:        a.Subject,
		OpposingParty:  a.OpposingParty,
		SourceSystem:   a.SourceSystem,
	}
	var err error
	if entry.Date, err = parseDate(a.Date); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	return entry, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("want YYYY-MM-DD, got %q", s)
	}
	return &t, nil
}

func (s *Server) listCases(w http.ResponseWriter, r *http.Request) {
	kind, err := caseKind(r)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err)
		return
	}
	items, err := s.records.ListCases(r.Context(), kind)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]caseItemJSON, 0, len(items))
	for _, item := range items {
		out = append(out, toCaseJSON(item))
	}
	s.respond(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) saveCase(w http.ResponseWriter, r *http.Request) {
	kind, err := caseKind(r)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err)
		return
	}
	var payload caseItemJSON
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}
	item, err := payload.toDomain()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	id, err := s.records.SaveCase(r.Context(), kind, item)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	status := http.StatusOK
	if payload.ID == 0 {
		status = http.StatusCreated
	}
	s.respond(w, status, map[string]any{"id": id, "item": toCaseJSON(*item)})
}

func (s *Server) deleteCase(w http.ResponseWriter, r *http.Request) {
	kind, err := caseKind(r)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.records.DeleteCase(r.Context(), kind, id); err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"deleted": id})
}

func (s *Server) completeCase(w http.ResponseWriter, r *http.Request) {
	kind, err := caseKind(r)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.records.CompleteCase(r.Context(), kind, id); err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"completed": id})
}

func (s *Server) promoteCase(w http.ResponseWriter, r *http.Request) {
	kind, err := caseKind(r)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	agendaID, warns, err := s.records.PromoteCase(r.Context(), kind, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respond(w, http.StatusCreated, map[string]any{"agenda_id": agendaID, "warnings": warns})
}

func (s *Server) listAgenda(w http.ResponseWriter, r *http.Request) {
	entries, err := s.records.ListAgenda(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]agendaEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAgendaJSON(e))
	}
	s.respond(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) saveAgenda(w http.ResponseWriter, r *http.Request) {
	var payload agendaEntryJSON
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}
	entry, err := payload.toDomain()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	id, warns, err := s.records.SaveAgenda(r.Context(), entry)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	status := http.StatusOK
	if payload.ID == 0 {
		status = http.StatusCreated
	}
	s.respond(w, status, map[string]any{"id": id, "warnings": warns})
}

func (s *Server) deleteAgenda(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	warns, err := s.records.DeleteAgenda(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"deleted": id, "warnings": warns})
}

func (s *Server) completeAgenda(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	warns, err := s.records.CompleteAgenda(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"completed": id, "warnings": warns})
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("write response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", "status", status, "error", err)
	s.respond(w, status, map[string]string{"error": err.Error()})
}

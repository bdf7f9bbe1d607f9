package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/sports-feed-platform/internal/catalog/ingest"
	"github.com/radieske/sports-feed-platform/internal/catalog/query"
	"github.com/radieske/sports-feed-platform/internal/catalog/repo"
	"github.com/radieske/sports-feed-platform/internal/feed-api/dto"
	"github.com/radieske/sports-feed-platform/pkg/contracts/messages"
)

// listagem pública fixa no esporte de referência
const listingSport = "Football"

// Server expõe a ingestão de provedores e as consultas de match
type Server struct {
	log    *zap.Logger
	engine *ingest.Engine
	query  *query.Service
}

func NewServer(log *zap.Logger, e *ingest.Engine, q *query.Service) *Server {
	return &Server{log: log, engine: e, query: q}
}

// Router retorna o roteador HTTP com os endpoints públicos
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID(s.log))

	r.Get("/", s.home)
	// ingresso de provedores externos
	r.Post("/api/v1/resources/external/", s.ingestMessage)
	r.Put("/api/v1/resources/external/", s.ingestMessage)
	r.Get("/api/v1/resources/match/{id}", s.getMatchByID)
	r.Get("/api/v1/resources/match/", s.getMatchByName)
	r.Get("/api/v1/resources/match/football/", s.listFootball)
	return r
}

func (s *Server) home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("sports feed api\n"))
}

// ingestMessage decodifica o envelope uma única vez e aplica via engine.
// Toda a taxonomia de erro do domínio vira 400; falha de storage vira 500.
func (s *Server) ingestMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	msg, err := messages.Parse(body)
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrUnknownMessageType):
			writeError(w, http.StatusBadRequest, "bad message_type")
		default:
			writeError(w, http.StatusBadRequest, "bad provider payload")
		}
		return
	}

	if err := s.engine.Apply(r.Context(), msg); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicateMessage):
			writeError(w, http.StatusBadRequest, "message already processed")
		case errors.Is(err, repo.ErrDuplicateID):
			writeError(w, http.StatusBadRequest, "payload reuses an existing id")
		case errors.Is(err, repo.ErrForeignKey):
			writeError(w, http.StatusBadRequest, "payload references an unknown id")
		case errors.Is(err, repo.ErrInvalidPayload), errors.Is(err, messages.ErrUnknownMessageType):
			writeError(w, http.StatusBadRequest, "bad provider payload")
		default:
			s.log.Error("ingest failed", zap.Int64("message_id", msg.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.IngestAck{Status: "ok", MessageID: msg.ID})
}

func (s *Server) getMatchByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad match id")
		return
	}

	m, err := s.query.MatchByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "the resource could not be found")
			return
		}
		s.log.Error("match by id failed", zap.Int64("event_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) getMatchByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad argument")
		return
	}

	list, err := s.query.MatchesByName(r.Context(), name)
	if err != nil {
		s.log.Error("match by name failed", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(list) == 0 {
		writeError(w, http.StatusNotFound, "the resource could not be found")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) listFootball(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("ordering") != "startTime" {
		writeError(w, http.StatusBadRequest, "bad argument")
		return
	}

	list, err := s.query.MatchesBySport(r.Context(), listingSport)
	if err != nil {
		s.log.Error("football listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

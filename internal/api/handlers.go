package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/booking"
	"github.com/parleyhq/parley/internal/chunker"
	"github.com/parleyhq/parley/internal/session"
	"github.com/parleyhq/parley/internal/store"
)

// ChatRequest is the POST /api/v1/chat payload. An empty session id starts a
// new conversation.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// IngestRequest is the POST /api/v1/documents payload.
type IngestRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Strategy string `json:"strategy,omitempty"`
}

func (s *Server) chatTurn(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	result, err := s.chat.Respond(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) chatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	format := session.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = session.FormatJSON
	}

	turns, err := s.sessions.History(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rendered, err := session.Render(turns, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if format == session.FormatCompact {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, rendered)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, rendered)
}

func (s *Server) listBookings(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.archive.RecentBookings(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []booking.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": records, "count": len(records)})
}

func (s *Server) chunkContent(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	chunkID, err := uuid.Parse(chi.URLParam(r, "chunkID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chunk id")
		return
	}

	content, err := s.archive.ChunkContent(r.Context(), chunkID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "chunk not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"chunk_id": chunkID.String(),
		"content":  content,
	})
}

func (s *Server) ingestDocument(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.Filename == "" {
		req.Filename = "untitled.txt"
	}

	strategy := chunker.Strategy(req.Strategy)
	if strategy == "" {
		strategy = chunker.StrategyFixedSize
	}

	result, err := s.ingestor.Ingest(r.Context(), req.Filename, req.Content, strategy)
	if err != nil {
		if errors.Is(err, chunker.ErrInvalidStrategy) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.notifier != nil {
		s.notifier.DocumentIngested(r.Context(), result, req.Filename)
	}
	writeJSON(w, http.StatusCreated, result)
}

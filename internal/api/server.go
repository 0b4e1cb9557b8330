package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/booking"
	"github.com/parleyhq/parley/internal/chunker"
	"github.com/parleyhq/parley/internal/ingest"
	"github.com/parleyhq/parley/internal/responder"
	"github.com/parleyhq/parley/internal/session"
	"github.com/parleyhq/parley/internal/store"
)

// Chat runs one conversational turn, satisfied by responder.Responder.
type Chat interface {
	Respond(ctx context.Context, sessionID, message string) (responder.TurnResult, error)
}

// Ingestor runs the document pipeline, satisfied by ingest.Pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, filename, content string, strategy chunker.Strategy) (ingest.Result, error)
}

// Archive is the read side of relational persistence: counts for the status
// endpoint, booking listings and full chunk text. Optional; nil when the
// service runs without a database.
type Archive interface {
	Counts(ctx context.Context) (store.Counts, error)
	RecentBookings(ctx context.Context, limit int) ([]booking.Record, error)
	ChunkContent(ctx context.Context, chunkID uuid.UUID) (string, error)
}

// DocumentNotifier is told about completed ingestions. Optional.
type DocumentNotifier interface {
	DocumentIngested(ctx context.Context, res ingest.Result, filename string)
}

type Server struct {
	router   *chi.Mux
	port     int
	chat     Chat
	ingestor Ingestor
	sessions *session.Store
	archive  Archive
	notifier DocumentNotifier
}

func NewServer(port int, chat Chat, ingestor Ingestor, sessions *session.Store,
	archive Archive, notifier DocumentNotifier) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		chat:     chat,
		ingestor: ingestor,
		sessions: sessions,
		archive:  archive,
		notifier: notifier,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/status", s.serviceStatus)
	router.Post("/api/v1/chat", s.chatTurn)
	router.Get("/api/v1/chat/{sessionID}/history", s.chatHistory)
	router.Post("/api/v1/documents", s.ingestDocument)
	router.Get("/api/v1/bookings", s.listBookings)
	router.Get("/api/v1/chunks/{chunkID}", s.chunkContent)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) serviceStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"service":  "parley",
		"status":   "ok",
		"sessions": s.sessions.Len(),
	}
	if s.archive != nil {
		counts, err := s.archive.Counts(r.Context())
		if err != nil {
			slog.Warn("status counts unavailable", "error", err)
		} else {
			resp["documents"] = counts.Documents
			resp["chunks"] = counts.Chunks
			resp["bookings"] = counts.Bookings
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/internal/booking"
	"github.com/parleyhq/parley/internal/chunker"
	"github.com/parleyhq/parley/internal/ingest"
	"github.com/parleyhq/parley/internal/responder"
	"github.com/parleyhq/parley/internal/session"
	"github.com/parleyhq/parley/internal/store"
)

type fakeChat struct {
	lastSession string
	err         error
}

func (f *fakeChat) Respond(_ context.Context, sessionID, message string) (responder.TurnResult, error) {
	f.lastSession = sessionID
	if f.err != nil {
		return responder.TurnResult{}, f.err
	}
	return responder.TurnResult{SessionID: sessionID, ReplyText: "echo: " + message}, nil
}

type fakeIngestor struct {
	err error
}

func (f *fakeIngestor) Ingest(_ context.Context, _, _ string, strategy chunker.Strategy) (ingest.Result, error) {
	if f.err != nil {
		return ingest.Result{}, f.err
	}
	if strategy != chunker.StrategyFixedSize && strategy != chunker.StrategySemantic {
		return ingest.Result{}, chunker.ErrInvalidStrategy
	}
	return ingest.Result{DocumentID: uuid.New(), ChunksCreated: 3, Strategy: string(strategy)}, nil
}

type fakeArchive struct {
	bookings  []booking.Record
	chunks    map[uuid.UUID]string
	lastLimit int
	err       error
}

func (f *fakeArchive) Counts(_ context.Context) (store.Counts, error) {
	if f.err != nil {
		return store.Counts{}, f.err
	}
	return store.Counts{Documents: 1, Chunks: len(f.chunks), Bookings: len(f.bookings)}, nil
}

func (f *fakeArchive) RecentBookings(_ context.Context, limit int) ([]booking.Record, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.bookings, nil
}

func (f *fakeArchive) ChunkContent(_ context.Context, chunkID uuid.UUID) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	content, ok := f.chunks[chunkID]
	if !ok {
		return "", store.ErrNotFound
	}
	return content, nil
}

func newTestServer(chat Chat, ing Ingestor, sessions *session.Store) *Server {
	if sessions == nil {
		sessions = session.NewStore()
	}
	return NewServer(8460, chat, ing, sessions, nil, nil)
}

func newArchiveServer(archive Archive) *Server {
	return NewServer(8460, &fakeChat{}, &fakeIngestor{}, session.NewStore(), archive, nil)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	sessions := session.NewStore()
	sessions.Append("s1", session.Turn{Role: session.RoleUser, Content: "hi"})
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, sessions)

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["service"] != "parley" {
		t.Errorf("service = %v", body["service"])
	}
	if body["sessions"] != float64(1) {
		t.Errorf("sessions = %v, want 1", body["sessions"])
	}
}

func TestChatEndpoint_NewSessionAssigned(t *testing.T) {
	chat := &fakeChat{}
	srv := newTestServer(chat, &fakeIngestor{}, nil)

	req := httptest.NewRequest("POST", "/api/v1/chat", strings.NewReader(`{"message":"hello"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if chat.lastSession == "" {
		t.Error("expected a generated session id")
	}
	if _, err := uuid.Parse(chat.lastSession); err != nil {
		t.Errorf("session id %q is not a uuid", chat.lastSession)
	}

	var body responder.TurnResult
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.ReplyText != "echo: hello" {
		t.Errorf("answer = %q", body.ReplyText)
	}
}

func TestChatEndpoint_MissingMessage(t *testing.T) {
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)

	req := httptest.NewRequest("POST", "/api/v1/chat", strings.NewReader(`{"session_id":"s1"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestChatEndpoint_InvalidJSON(t *testing.T) {
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)

	req := httptest.NewRequest("POST", "/api/v1/chat", strings.NewReader(`{`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHistoryEndpoint_JSON(t *testing.T) {
	sessions := session.NewStore()
	sessions.Append("s1", session.Turn{Role: session.RoleUser, Content: "hi"})
	sessions.Append("s1", session.Turn{Role: session.RoleAssistant, Content: "hello"})
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, sessions)

	req := httptest.NewRequest("GET", "/api/v1/chat/s1/history", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var turns []session.Turn
	if err := json.NewDecoder(w.Body).Decode(&turns); err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 || turns[0].Content != "hi" {
		t.Errorf("turns = %+v", turns)
	}
}

func TestHistoryEndpoint_Compact(t *testing.T) {
	sessions := session.NewStore()
	sessions.Append("s1", session.Turn{Role: session.RoleUser, Content: "hi"})
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, sessions)

	req := httptest.NewRequest("GET", "/api/v1/chat/s1/history?format=compact", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "messages[1]") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestHistoryEndpoint_UnknownSession(t *testing.T) {
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/chat/nope/history", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestHistoryEndpoint_BadFormat(t *testing.T) {
	sessions := session.NewStore()
	sessions.Append("s1", session.Turn{Role: session.RoleUser, Content: "hi"})
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, sessions)

	req := httptest.NewRequest("GET", "/api/v1/chat/s1/history?format=yaml", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDocumentsEndpoint(t *testing.T) {
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)

	payload := `{"filename":"policy.txt","content":"some document text"}`
	req := httptest.NewRequest("POST", "/api/v1/documents", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var res ingest.Result
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.ChunksCreated != 3 {
		t.Errorf("chunks = %d", res.ChunksCreated)
	}
	if res.Strategy != string(chunker.StrategyFixedSize) {
		t.Errorf("strategy = %q, want fixed_size default", res.Strategy)
	}
}

func TestDocumentsEndpoint_InvalidStrategy(t *testing.T) {
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)

	payload := `{"filename":"a.txt","content":"text","strategy":"clever"}`
	req := httptest.NewRequest("POST", "/api/v1/documents", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDocumentsEndpoint_MissingContent(t *testing.T) {
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)

	req := httptest.NewRequest("POST", "/api/v1/documents", strings.NewReader(`{"filename":"a.txt"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDocumentsEndpoint_IngestFailure(t *testing.T) {
	srv := newTestServer(&fakeChat{}, &fakeIngestor{err: errors.New("embedder offline")}, nil)

	payload := `{"filename":"a.txt","content":"text"}`
	req := httptest.NewRequest("POST", "/api/v1/documents", strings.NewReader(payload))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestBookingsEndpoint(t *testing.T) {
	archive := &fakeArchive{bookings: []booking.Record{
		{ID: uuid.New(), Name: "Jane Doe", Email: "jane@example.com", Date: "2026-03-12", Time: "14:00"},
	}}
	srv := newArchiveServer(archive)

	req := httptest.NewRequest("GET", "/api/v1/bookings?limit=5", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if archive.lastLimit != 5 {
		t.Errorf("limit = %d, want 5", archive.lastLimit)
	}

	var body struct {
		Bookings []booking.Record `json:"bookings"`
		Count    int              `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || len(body.Bookings) != 1 {
		t.Fatalf("count = %d, bookings = %d", body.Count, len(body.Bookings))
	}
	if body.Bookings[0].Name != "Jane Doe" {
		t.Errorf("name = %q", body.Bookings[0].Name)
	}
}

func TestBookingsEndpoint_EmptyList(t *testing.T) {
	srv := newArchiveServer(&fakeArchive{})

	req := httptest.NewRequest("GET", "/api/v1/bookings", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"bookings":[]`) {
		t.Errorf("expected an empty array, got %s", w.Body.String())
	}
}

func TestBookingsEndpoint_BadLimit(t *testing.T) {
	srv := newArchiveServer(&fakeArchive{})

	req := httptest.NewRequest("GET", "/api/v1/bookings?limit=zero", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBookingsEndpoint_NoDatabase(t *testing.T) {
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/bookings", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestChunkEndpoint(t *testing.T) {
	chunkID := uuid.New()
	srv := newArchiveServer(&fakeArchive{chunks: map[uuid.UUID]string{
		chunkID: "full chunk text, not a preview",
	}})

	req := httptest.NewRequest("GET", "/api/v1/chunks/"+chunkID.String(), nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["content"] != "full chunk text, not a preview" {
		t.Errorf("content = %q", body["content"])
	}
	if body["chunk_id"] != chunkID.String() {
		t.Errorf("chunk_id = %q", body["chunk_id"])
	}
}

func TestChunkEndpoint_UnknownChunk(t *testing.T) {
	srv := newArchiveServer(&fakeArchive{chunks: map[uuid.UUID]string{}})

	req := httptest.NewRequest("GET", "/api/v1/chunks/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestChunkEndpoint_BadID(t *testing.T) {
	srv := newArchiveServer(&fakeArchive{})

	req := httptest.NewRequest("GET", "/api/v1/chunks/not-a-uuid", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

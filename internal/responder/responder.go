// Package responder runs one conversational turn end to end: record the user
// message, advance the booking draft, gather evidence, and produce a reply.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/booking"
	"github.com/parleyhq/parley/internal/ollama"
	"github.com/parleyhq/parley/internal/retriever"
	"github.com/parleyhq/parley/internal/session"
)

// Retrieval is the evidence-gathering surface, satisfied by
// retriever.Retriever.
type Retrieval interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retriever.EvidenceItem, error)
}

// Extractor advances the booking draft for one utterance, satisfied by
// booking.Machine.
type Extractor interface {
	Extract(ctx context.Context, utterance string, prior booking.Draft, sessionID string, turn int) booking.Result
}

// Completer generates the conversational answer, satisfied by ollama.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ollama.Options) (string, error)
}

// Publisher is notified after a booking is persisted. Optional.
type Publisher interface {
	BookingCreated(ctx context.Context, res booking.Result, sessionID string)
}

// TurnResult is the contract a chat turn produces.
type TurnResult struct {
	SessionID    string                   `json:"session_id"`
	ReplyText    string                   `json:"reply_text"`
	Booking      *booking.Result          `json:"booking,omitempty"`
	Evidence     []retriever.EvidenceItem `json:"evidence,omitempty"`
	EvidenceUsed bool                     `json:"evidence_used"`
	Degraded     bool                     `json:"degraded"`
	Timestamp    time.Time                `json:"timestamp"`
}

const degradedAnswer = "I'm sorry, I'm having trouble generating a response right now. Please try again in a moment."

const answerPromptTemplate = `You are a helpful assistant answering questions about the provided documents.
Use only the context below. If it does not contain the answer, say you don't know.

Context:
%s

Conversation:
%s

Reply to the user's latest message.`

// Responder owns per-turn orchestration.
type Responder struct {
	sessions  *session.Store
	retrieval Retrieval
	extractor Extractor
	llm       Completer
	publisher Publisher
	log       *slog.Logger

	topK          int
	threshold     float64
	historyBudget int
	now           func() time.Time
}

func New(sessions *session.Store, retrieval Retrieval, extractor Extractor, llm Completer,
	publisher Publisher, log *slog.Logger, topK int, threshold float64, historyBudget int) *Responder {
	if log == nil {
		log = slog.Default()
	}
	if topK <= 0 {
		topK = 5
	}
	if historyBudget <= 0 {
		historyBudget = 2048
	}
	return &Responder{
		sessions:      sessions,
		retrieval:     retrieval,
		extractor:     extractor,
		llm:           llm,
		publisher:     publisher,
		log:           log,
		topK:          topK,
		threshold:     threshold,
		historyBudget: historyBudget,
		now:           time.Now,
	}
}

// Respond processes one user message. The whole turn runs under the session's
// lock, so concurrent turns for the same session serialize and neither can
// lose the other's draft fields; turns for different sessions run in
// parallel. The user turn is recorded even when answering fails.
func (r *Responder) Respond(ctx context.Context, sessionID, message string) (TurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return TurnResult{}, fmt.Errorf("message is required")
	}

	var result TurnResult
	r.sessions.Update(sessionID, func(sess *session.Session) {
		turnIndex := len(sess.History())
		sess.Append(session.Turn{
			Role:      session.RoleUser,
			Content:   message,
			Timestamp: r.now().UTC(),
		})

		result = r.respondLocked(ctx, sess, sessionID, message, turnIndex)

		sess.Append(session.Turn{
			Role:      session.RoleAssistant,
			Content:   result.ReplyText,
			Timestamp: r.now().UTC(),
			Metadata: map[string]any{
				"evidence_used": result.EvidenceUsed,
				"degraded":      result.Degraded,
			},
		})
	})
	return result, nil
}

func (r *Responder) respondLocked(ctx context.Context, sess *session.Session, sessionID, message string, turnIndex int) TurnResult {
	result := TurnResult{
		SessionID: sessionID,
		Timestamp: r.now().UTC(),
	}

	var prior booking.Draft
	if d := sess.Draft(); d != nil {
		prior = *d
	}
	bres := r.extractor.Extract(ctx, message, prior, sessionID, turnIndex)

	switch bres.Status {
	case booking.StatusNone:
		// Not a booking turn; fall through to retrieval.
	case booking.StatusBooked:
		sess.SetDraft(nil)
		result.Booking = &bres
		result.ReplyText = bookingAnswer(bres)
		if r.publisher != nil {
			r.publisher.BookingCreated(ctx, bres, sessionID)
		}
		return result
	default:
		sess.SetDraft(bres.Draft)
		result.Booking = &bres
		result.ReplyText = bookingAnswer(bres)
		return result
	}

	// Retrieval is best effort: a failed lookup degrades to an uncontexted
	// answer rather than failing the turn.
	if r.retrieval != nil {
		evidence, err := r.retrieval.Retrieve(ctx, message, r.topK)
		if err != nil {
			r.log.Warn("retrieval failed, answering without context",
				"session_id", sessionID, "error", err)
		} else {
			for _, ev := range evidence {
				if ev.Score >= r.threshold {
					result.Evidence = append(result.Evidence, ev)
				}
			}
			result.EvidenceUsed = len(result.Evidence) > 0
		}
	}

	history := session.TrimToBudget(sess.History(), r.historyBudget)
	prompt := fmt.Sprintf(answerPromptTemplate,
		renderEvidence(result.Evidence), session.RenderCompact(history))

	answer, err := r.llm.Complete(ctx, prompt, ollama.Options{})
	if err != nil {
		r.log.Error("answer generation failed", "session_id", sessionID, "error", err)
		result.ReplyText = degradedAnswer
		result.Degraded = true
		return result
	}

	result.ReplyText = strings.TrimSpace(answer)
	return result
}

func renderEvidence(items []retriever.EvidenceItem) string {
	if len(items) == 0 {
		return "(no relevant documents found)"
	}
	var b strings.Builder
	for i, ev := range items {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, ev.ContentPreview)
	}
	return b.String()
}

// bookingAnswer renders the deterministic reply for a booking-flow turn.
func bookingAnswer(res booking.Result) string {
	switch res.Status {
	case booking.StatusBooked:
		return fmt.Sprintf(
			"Your %s interview is booked for %s at %s. A confirmation will be sent to %s.",
			orGeneral(res.Draft.InterviewType), res.Draft.Date, res.Draft.Time, res.Draft.Email)
	case booking.StatusInvalid:
		return "I have all your details but couldn't save the booking just now. Please try again in a moment."
	default:
		var b strings.Builder
		b.WriteString("I'd be happy to help you schedule an interview. ")
		b.WriteString(strings.Join(res.Suggestions, " "))
		return strings.TrimSpace(b.String())
	}
}

func orGeneral(interviewType string) string {
	if interviewType == "" {
		return booking.TypeGeneral
	}
	return interviewType
}

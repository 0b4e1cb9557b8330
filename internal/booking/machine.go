package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Store persists completed bookings.
type Store interface {
	SaveBooking(ctx context.Context, rec Record) error
}

// Follow-up prompts offered for each missing required field.
var fieldPrompts = map[string]string{
	"name":  "What's your name?",
	"email": "What's your email address?",
	"date":  "What date works for you?",
	"time":  "What time works best?",
}

// Machine runs the per-turn booking extraction state machine. It is
// stateless; the caller owns the session draft and passes the prior value in.
type Machine struct {
	llm   Completer
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewMachine(llm Completer, store Store, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	return &Machine{
		llm:   llm,
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Extract evaluates one utterance against the prior draft and returns the
// turn outcome. The prior draft is never mutated; the caller swaps in
// Result.Draft under its own session lock.
func (m *Machine) Extract(ctx context.Context, utterance string, prior Draft, sessionID string, turn int) Result {
	pattern := ExtractPattern(utterance, m.now())

	// A turn enters the flow on booking language, or when it supplies a
	// concrete required field for an already open draft ("my email is ...").
	// Interview-type words alone don't count: "can I visit your office?"
	// classifies as onsite but is an ordinary question, not a booking turn.
	if !DetectIntent(utterance) && !(prior.open() && pattern.hasRequired()) {
		return Result{Status: StatusNone}
	}

	llmFields := Fields{}
	if m.llm != nil {
		var err error
		llmFields, err = ExtractLLM(ctx, m.llm, utterance, m.now())
		if err != nil {
			// Pattern extraction carries the turn on its own.
			m.log.Warn("llm extraction failed, using pattern fields only",
				"session_id", sessionID, "error", err)
			llmFields = Fields{}
		}
	}

	merged, confidence := MergeExtractions(pattern, llmFields)
	if pattern.any() && llmFields.any() {
		for _, f := range []struct{ name, p, l string }{
			{"name", pattern.Name, llmFields.Name},
			{"date", pattern.Date, llmFields.Date},
			{"time", pattern.Time, llmFields.Time},
		} {
			if f.p != "" && f.l != "" && f.p != f.l {
				m.log.Debug("extractor disagreement, pattern value kept",
					"session_id", sessionID, "field", f.name, "pattern", f.p, "llm", f.l)
			}
		}
	}

	draft := prior.Clone()
	draft.Merge(merged, confidence, turn)

	result := Result{
		Draft:      &draft,
		Status:     StatusDetected,
		Confidence: TurnConfidence(draft),
	}

	if draft.Date != "" {
		today := m.now().Format("2006-01-02")
		if draft.Date < today {
			result.Warnings = append(result.Warnings, fmt.Sprintf("requested date %s is in the past", draft.Date))
		}
	}

	missing := draft.Missing()
	if len(missing) > 0 {
		result.Status = StatusIncomplete
		result.MissingFields = missing
		for _, f := range missing {
			result.Suggestions = append(result.Suggestions, fieldPrompts[f])
		}
		return result
	}

	result.Status = StatusValid

	rec := Record{
		ID:            uuid.New(),
		Name:          draft.Name,
		Email:         draft.Email,
		Date:          draft.Date,
		Time:          draft.Time,
		InterviewType: draft.InterviewType,
		SessionID:     sessionID,
		Status:        "pending",
		CreatedAt:     m.now().UTC(),
	}
	if rec.InterviewType == "" {
		rec.InterviewType = TypeGeneral
	}

	if m.store == nil {
		return result
	}
	if err := m.store.SaveBooking(ctx, rec); err != nil {
		m.log.Error("booking persistence failed, draft retained",
			"session_id", sessionID, "error", err)
		result.Status = StatusInvalid
		result.Warnings = append(result.Warnings, "booking could not be saved, please try again")
		return result
	}

	m.log.Info("booking persisted",
		"booking_id", rec.ID, "session_id", sessionID, "date", rec.Date, "time", rec.Time)
	result.Status = StatusBooked
	result.BookingID = &rec.ID
	return result
}

func (f Fields) any() bool {
	return f.Name != "" || f.Email != "" || f.Date != "" || f.Time != "" || f.InterviewType != ""
}

// hasRequired reports whether any of the four required fields is set.
// Unlike any it ignores the interview type, which is classification
// rather than user-supplied data.
func (f Fields) hasRequired() bool {
	return f.Name != "" || f.Email != "" || f.Date != "" || f.Time != ""
}

func (d Draft) open() bool {
	return d.Name != "" || d.Email != "" || d.Date != "" || d.Time != "" || d.InterviewType != ""
}

// Package booking turns free-form utterances into a validated interview
// booking record across conversational turns. Extraction is hybrid: a
// deterministic pattern pass and an LLM pass merged under a fixed precedence
// rule, accumulated monotonically into a per-session draft.
package booking

import (
	"time"

	"github.com/google/uuid"
)

// Status is the per-turn outcome of the extraction state machine.
type Status string

const (
	// StatusNone: no booking language in the turn; draft untouched.
	StatusNone Status = "none"
	// StatusDetected: booking intent found, extraction not yet evaluated.
	StatusDetected Status = "detected"
	// StatusIncomplete: intent found but required fields are missing.
	StatusIncomplete Status = "incomplete"
	// StatusValid: all required fields present and valid.
	StatusValid Status = "valid"
	// StatusInvalid: fields complete but persistence or validation failed;
	// the draft is retained for correction on the next turn.
	StatusInvalid Status = "invalid"
	// StatusBooked: the record was persisted; the draft is closed.
	StatusBooked Status = "booked"
)

// Required booking fields, in reporting order.
var requiredFields = []string{"name", "email", "date", "time"}

// Interview types form a closed set; anything unrecognised maps to general.
const (
	TypeTechnical = "technical"
	TypeHR        = "hr"
	TypePhone     = "phone"
	TypeVideo     = "video"
	TypeOnsite    = "onsite"
	TypeGeneral   = "general"
)

// Fields is one extractor's view of a single utterance. Empty string means
// the extractor found nothing for that field. Date is YYYY-MM-DD, Time is
// 24-hour HH:MM, both already normalised.
type Fields struct {
	Name          string
	Email         string
	Date          string
	Time          string
	InterviewType string
}

// Draft is the in-progress booking accumulated across turns. Fields are
// independently absent (empty). New non-empty values overwrite; an empty
// value never erases an existing one.
type Draft struct {
	Name          string             `json:"name,omitempty"`
	Email         string             `json:"email,omitempty"`
	Date          string             `json:"date,omitempty"`
	Time          string             `json:"time,omitempty"`
	InterviewType string             `json:"interview_type,omitempty"`
	Confidence    map[string]float64 `json:"confidence_per_field,omitempty"`
	SourceTurns   []int              `json:"source_turns,omitempty"`
}

// Clone returns a deep copy so callers never alias the stored draft.
func (d Draft) Clone() Draft {
	out := d
	if d.Confidence != nil {
		out.Confidence = make(map[string]float64, len(d.Confidence))
		for k, v := range d.Confidence {
			out.Confidence[k] = v
		}
	}
	if d.SourceTurns != nil {
		out.SourceTurns = append([]int(nil), d.SourceTurns...)
	}
	return out
}

// Missing lists absent required fields in reporting order.
func (d Draft) Missing() []string {
	var missing []string
	for _, f := range requiredFields {
		if d.field(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

func (d Draft) field(name string) string {
	switch name {
	case "name":
		return d.Name
	case "email":
		return d.Email
	case "date":
		return d.Date
	case "time":
		return d.Time
	}
	return ""
}

// Record is the persisted booking. Immutable from the extraction engine's
// perspective once written.
type Record struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	InterviewType string    `json:"interview_type"`
	SessionID     string    `json:"session_id"`
	Status        string    `json:"status"` // pending | confirmed
	CreatedAt     time.Time `json:"created_at"`
}

// Result is the per-turn output of the state machine.
type Result struct {
	Draft         *Draft     `json:"draft,omitempty"`
	Status        Status     `json:"status"`
	MissingFields []string   `json:"missing_fields,omitempty"`
	Suggestions   []string   `json:"suggestions,omitempty"`
	Warnings      []string   `json:"warnings,omitempty"`
	BookingID     *uuid.UUID `json:"booking_id,omitempty"`
	Confidence    float64    `json:"confidence"`
}

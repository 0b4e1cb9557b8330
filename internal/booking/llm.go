package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/ollama"
)

// Completer is the completion surface the LLM extractor needs, satisfied by
// ollama.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ollama.Options) (string, error)
}

const notFound = "not_found"

const extractPrompt = `Extract interview booking details from the message below.
Reply with exactly five lines, nothing else:
name: <full name or not_found>
email: <email address or not_found>
date: <date or not_found>
time: <time or not_found>
interview_type: <technical, hr, phone, video, onsite, general or not_found>

Message: %s`

// ExtractLLM asks the model for booking fields in a line-oriented format and
// normalises whatever parses. The model runs deterministically; its output is
// still treated as untrusted and anything malformed is dropped.
func ExtractLLM(ctx context.Context, llm Completer, utterance string, now time.Time) (Fields, error) {
	raw, err := llm.Complete(ctx, fmt.Sprintf(extractPrompt, utterance), ollama.Options{
		Deterministic: true,
		MaxTokens:     128,
	})
	if err != nil {
		return Fields{}, fmt.Errorf("llm extraction: %w", err)
	}
	return parseFieldLines(raw, now), nil
}

// parseFieldLines reads "field: value" lines, ignoring anything it does not
// recognise. Values are validated and normalised before acceptance, so a
// hallucinated field never reaches the draft.
func parseFieldLines(raw string, now time.Time) Fields {
	var f Fields
	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if value == "" || strings.EqualFold(value, notFound) {
			continue
		}

		switch key {
		case "name":
			if len(value) <= 100 && !strings.ContainsAny(value, "@<>{}") {
				f.Name = titleCase(value)
			}
		case "email":
			if ValidEmail(strings.ToLower(value)) {
				f.Email = strings.ToLower(value)
			}
		case "date":
			if d, ok := ResolveDate(value, now); ok {
				f.Date = d
			}
		case "time":
			if t, ok := NormalizeTime(value); ok {
				f.Time = t
			}
		case "interview_type":
			if label := ClassifyInterviewType(value); label != "" {
				f.InterviewType = label
			} else if strings.EqualFold(value, TypeGeneral) {
				f.InterviewType = TypeGeneral
			}
		}
	}
	return f
}

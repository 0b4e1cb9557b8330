package booking

import (
	"regexp"
	"strings"
	"time"
)

// Deterministic field extraction from a single utterance. Anything found here
// outranks what the language model reports for the same field.

var (
	nameCuePattern = regexp.MustCompile(`(?i)\b(?:my name is|i am|i'm|call me|this is)\s+([A-Za-z][A-Za-z'.-]*(?:\s+[A-Za-z][A-Za-z'.-]*){0,2})`)

	clockPattern   = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?\s*(?:a\.?m\.?|p\.?m\.?)|\d{1,2}:\d{2}|noon|midnight)\b`)
	isoDatePattern = regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`)
	slashPattern   = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{4}\b`)
	monthPattern   = regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`)

	ordinalSuffix = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)

	// Words that end a name capture when the sentence runs on.
	nameStopWords = map[string]bool{
		"and": true, "my": true, "the": true, "email": true, "here": true,
		"calling": true, "writing": true, "looking": true, "interested": true,
		"available": true, "free": true, "wondering": true,
	}
)

// ExtractPattern pulls booking fields out of an utterance with regular
// expressions alone. All values come back normalized; absent fields are empty.
func ExtractPattern(utterance string, now time.Time) Fields {
	var f Fields

	if m := emailPattern.FindString(utterance); m != "" {
		f.Email = strings.ToLower(m)
	}

	if m := nameCuePattern.FindStringSubmatch(utterance); m != nil {
		f.Name = cleanName(m[1])
	}

	if m := clockPattern.FindString(utterance); m != "" {
		if t, ok := NormalizeTime(m); ok {
			f.Time = t
		}
	}

	f.Date = extractDate(utterance, now)
	f.InterviewType = ClassifyInterviewType(utterance)

	return f
}

// extractDate matches explicit date literals only. Relative expressions
// ("tomorrow", weekday names) are left for the language model to surface;
// its output runs through ResolveDate the same way.
func extractDate(utterance string, now time.Time) string {
	for _, pat := range []*regexp.Regexp{isoDatePattern, slashPattern, monthPattern} {
		m := pat.FindString(utterance)
		if m == "" {
			continue
		}
		m = ordinalSuffix.ReplaceAllString(m, "$1")
		if d, ok := ResolveDate(m, now); ok {
			return d
		}
	}
	return ""
}

// cleanName trims a captured name at the first stop word so "John Smith and
// my email is ..." yields just the name.
func cleanName(raw string) string {
	words := strings.Fields(raw)
	kept := words[:0]
	for _, w := range words {
		if nameStopWords[strings.ToLower(w)] {
			break
		}
		kept = append(kept, strings.Trim(w, ".,"))
	}
	if len(kept) == 0 {
		return ""
	}
	return titleCase(strings.Join(kept, " "))
}

package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NormalizeTime converts a time expression to 24-hour HH:MM. Returns false
// when the expression is not a recognisable time.
func NormalizeTime(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, "noon"):
		return "12:00", true
	case strings.Contains(s, "midnight"):
		return "00:00", true
	}

	s = strings.ReplaceAll(s, ".", "")
	meridiem := ""
	if strings.Contains(s, "pm") {
		meridiem = "pm"
	} else if strings.Contains(s, "am") {
		meridiem = "am"
	}
	s = strings.TrimSpace(strings.NewReplacer("am", "", "pm", "").Replace(s))

	hourStr, minuteStr := s, "0"
	if i := strings.Index(s, ":"); i >= 0 {
		hourStr, minuteStr = s[:i], s[i+1:]
	} else if meridiem == "" {
		// Bare numbers without am/pm are only accepted as short hours, so
		// "2026" in a date never reads as a time.
		if len(s) > 2 {
			return "", false
		}
	}

	hour, err := strconv.Atoi(strings.TrimSpace(hourStr))
	if err != nil {
		return "", false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(minuteStr))
	if err != nil {
		return "", false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", false
	}

	switch meridiem {
	case "pm":
		if hour > 12 {
			return "", false
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var explicitDateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"1-2-2006",
	"January 2, 2006",
	"January 2 2006",
	"2 January 2006",
}

var yearlessDateLayouts = []string{
	"January 2",
	"2 January",
}

// ResolveDate turns a date expression into a calendar date (YYYY-MM-DD).
// Relative expressions resolve against now; a month-day with no year assumes
// the next occurrence.
func ResolveDate(raw string, now time.Time) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch s {
	case "today", "tonight":
		return today.Format("2006-01-02"), true
	case "tomorrow":
		return today.AddDate(0, 0, 1).Format("2006-01-02"), true
	case "day after tomorrow", "the day after tomorrow":
		return today.AddDate(0, 0, 2).Format("2006-01-02"), true
	}

	// Weekday names resolve to the next occurrence, "next" included: a
	// strictly future day 1-7 days ahead.
	wd := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s, "next "), "this "))
	if target, ok := weekdays[wd]; ok {
		ahead := (int(target) - int(today.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead).Format("2006-01-02"), true
	}

	titled := titleCase(raw)
	for _, layout := range explicitDateLayouts {
		if d, err := time.Parse(layout, titled); err == nil {
			return d.Format("2006-01-02"), true
		}
	}
	for _, layout := range yearlessDateLayouts {
		if d, err := time.Parse(layout, titled); err == nil {
			resolved := time.Date(now.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
			if resolved.Before(today) {
				resolved = resolved.AddDate(1, 0, 0)
			}
			return resolved.Format("2006-01-02"), true
		}
	}

	return "", false
}

func titleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		if len(w) > 0 && w[0] >= 'a' && w[0] <= 'z' {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Interview type keyword table, checked in order so classification is
// deterministic. Single words match on token boundaries; phrases match as
// substrings.
var interviewTypeKeywords = []struct {
	label    string
	keywords []string
}{
	{TypeTechnical, []string{"technical", "coding", "programming", "development", "engineer", "software", "algorithm"}},
	{TypeHR, []string{"hr", "human resources", "behavioral", "culture", "recruiter", "hiring"}},
	{TypePhone, []string{"phone", "call", "voice", "telephone", "ring"}},
	{TypeVideo, []string{"video", "zoom", "teams", "meet", "online", "virtual", "skype"}},
	{TypeOnsite, []string{"onsite", "in-person", "office", "visit", "face-to-face"}},
}

var wordSplit = regexp.MustCompile(`[^a-z0-9-]+`)

// ClassifyInterviewType maps free text onto the closed interview-type set.
// Returns empty when no type signal is present; callers default to general.
func ClassifyInterviewType(text string) string {
	lower := strings.ToLower(text)
	tokens := make(map[string]bool)
	for _, tok := range wordSplit.Split(lower, -1) {
		if tok != "" {
			tokens[tok] = true
		}
	}

	for _, entry := range interviewTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.ContainsAny(kw, " -") {
				if strings.Contains(lower, kw) {
					return entry.label
				}
			} else if tokens[kw] {
				return entry.label
			}
		}
	}
	return ""
}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// ValidEmail reports whether s is a syntactically plausible address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s) && emailPattern.FindString(s) == s
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ValidTime reports whether s is a well-formed 24-hour HH:MM time.
func ValidTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

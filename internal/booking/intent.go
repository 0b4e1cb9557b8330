package booking

import "strings"

// Booking-intent vocabulary: scheduling verbs plus interview-domain nouns.
// "time", "date" and "available" keep multi-turn completions ("date is
// 2026-03-15") inside an open draft's flow.
var intentKeywords = []string{
	"book",
	"schedule",
	"appointment",
	"interview",
	"meeting",
	"slot",
	"time",
	"date",
	"available",
	"reserve",
	"set up",
	"arrange",
}

// DetectIntent is the lightweight lexical pass that gates all extraction
// work for a turn.
func DetectIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range intentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

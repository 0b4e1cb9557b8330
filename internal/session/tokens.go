package session

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// TokenCount estimates the token footprint of a rendering. Used by the
// responder to bound how much history goes into a prompt. Falls back to a
// chars/4 heuristic when the BPE vocabulary is unavailable.
func TokenCount(text string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	if encoding == nil {
		return (len(text) + 3) / 4
	}
	return len(encoding.Encode(text, nil, nil))
}

// TrimToBudget drops the oldest turns until the compact rendering of what
// remains fits the token budget. The most recent turn is always kept.
func TrimToBudget(turns []Turn, budget int) []Turn {
	if budget <= 0 || len(turns) == 0 {
		return turns
	}
	for len(turns) > 1 && TokenCount(RenderCompact(turns)) > budget {
		turns = turns[1:]
	}
	return turns
}

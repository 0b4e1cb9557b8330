package chunker

import (
	"regexp"
	"strings"
)

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+(?:\s|$)|[^.!?]+$`)

// semantic partitions text at sentence and paragraph boundaries, keeping each
// chunk within the configured width as a soft bound. A single sentence longer
// than the bound becomes its own oversized chunk rather than being split.
func (c *Chunker) semantic(text string) []string {
	var parts []string
	var current strings.Builder
	curRunes := 0 // width is counted in runes, same as fixedSize

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			parts = append(parts, s)
		}
		current.Reset()
		curRunes = 0
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		plen := len([]rune(para))

		if plen <= c.width {
			if curRunes > 0 && curRunes+plen+2 > c.width {
				flush()
			}
			if curRunes > 0 {
				current.WriteString("\n\n")
				curRunes += 2
			}
			current.WriteString(para)
			curRunes += plen
			continue
		}

		// Paragraph exceeds the bound: close the running chunk and pack
		// the paragraph sentence by sentence.
		flush()
		for _, sentence := range splitSentences(para) {
			slen := len([]rune(sentence))
			if curRunes > 0 && curRunes+slen+1 > c.width {
				flush()
			}
			if curRunes > 0 {
				current.WriteString(" ")
				curRunes++
			}
			current.WriteString(sentence)
			curRunes += slen
		}
		flush()
	}
	flush()

	return parts
}

// splitSentences breaks a paragraph on terminal punctuation. Trailing text
// with no terminator still counts as a sentence.
func splitSentences(text string) []string {
	matches := sentencePattern.FindAllString(text, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		if s := strings.TrimSpace(text); s != "" {
			sentences = []string{s}
		}
	}
	return sentences
}

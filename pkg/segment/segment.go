// Package segment splits extracted page text into content blocks.
package segment

import (
	"regexp"
	"strings"
)

// MinBlockWords is the qualification threshold for independent
// per-section summarization; shorter blocks are kept as filler.
const MinBlockWords = 30

var (
	reBlankLines = regexp.MustCompile(`\n{2,}`)
	reListMarker = regexp.MustCompile(`(?m)^\s*(?:\d+[).\s]|[-•*]\s)`)
	reItemStart  = regexp.MustCompile(`^\s*(?:\d+[).\s]|[-•*]\s)`)
)

// Split breaks text on blank-line boundaries. Chunks that look like an
// enumerated or bulleted list are split again at each marker boundary,
// one block per item.
func Split(text string) []string {
	var out []string
	for _, chunk := range reBlankLines.Split(text, -1) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if !reListMarker.MatchString(chunk) {
			out = append(out, chunk)
			continue
		}
		out = append(out, splitListItems(chunk)...)
	}
	return out
}

// splitListItems groups a list chunk's lines into one block per marker.
func splitListItems(chunk string) []string {
	var items []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			if item := strings.TrimSpace(strings.Join(cur, "\n")); item != "" {
				items = append(items, item)
			}
			cur = nil
		}
	}
	for _, line := range strings.Split(chunk, "\n") {
		if reItemStart.MatchString(line) {
			flush()
		}
		cur = append(cur, line)
	}
	flush()
	return items
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Qualifies reports whether a block is long enough for independent
// summarization.
func Qualifies(block string) bool {
	return WordCount(block) > MinBlockWords
}

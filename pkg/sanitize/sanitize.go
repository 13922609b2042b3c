// Package sanitize is the single cleanup/heuristic library shared by the
// synthesizer and the reconciler: generated slide bodies and titles pass
// through here before anything is rendered or cached.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

const maxLineWords = 500

var (
	reBulletPrefix    = regexp.MustCompile(`^\s*[-•]+\s*`)
	reRewritePrefix   = regexp.MustCompile(`(?i)^rewrite\b[^:]*:\s*`)
	reWritePrefix     = regexp.MustCompile(`(?i)^write\b[^:]*:\s*`)
	reSentencesPrefix = regexp.MustCompile(`(?i)^in\s+\d+[-–]?\d*\s*sentences?:?\s*`)
	reScenePrefix     = regexp.MustCompile(`(?i)^\(?\s*(?:scene|slide)\s*\d+\)?\s*[:\-–]?\s*`)
	reLabelPrefix     = regexp.MustCompile(`(?i)^\s*(?:title|headline)\s*[:\-–]\s*`)
	reNoPrefaces      = regexp.MustCompile(`(?i)^\s*no\s+prefaces,\s*no\s+labels,\s*no\s+quotes\.?\s*`)
	reTurnIdea        = regexp.MustCompile(`(?i)^\s*turn the idea into one cinematic line[^.]*\.\s*`)
	reWhitespace      = regexp.MustCompile(`\s+`)
	reQuotes          = regexp.MustCompile(`^["'“”]+|["'“”]+$`)
	reTrailingPunct   = regexp.MustCompile(`[.!?]+$`)
	reLeadingMarkers  = regexp.MustCompile(`^[—–\-•\s]+`)
	reTitlePunct      = regexp.MustCompile(`[.!?,"“”'()\-–—]+`)
)

// stripInstructionPhrases removes prompt fragments that models echo back.
func stripInstructionPhrases(s string) string {
	s = reTurnIdea.ReplaceAllString(s, "")
	s = reNoPrefaces.ReplaceAllString(s, "")
	s = reScenePrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Line cleans a generated slide body: leaked instructions and bullet
// markers go, whitespace collapses, and the result always ends in
// terminal punctuation. Idempotent.
func Line(raw string) string {
	s := strings.TrimSpace(raw)
	// Prefixes stack ("- Scene 2: rewrite this: ..."), so strip to a
	// fixpoint.
	for {
		prev := s
		s = stripInstructionPhrases(s)
		s = reBulletPrefix.ReplaceAllString(s, "")
		s = reRewritePrefix.ReplaceAllString(s, "")
		s = reWritePrefix.ReplaceAllString(s, "")
		s = reSentencesPrefix.ReplaceAllString(s, "")
		if s == prev {
			break
		}
	}
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	words := strings.Fields(s)
	if len(words) > maxLineWords {
		s = strings.Join(words[:maxLineWords], " ") + "…"
	}

	if s != "" && !strings.ContainsAny(string(s[len(s)-1:]), ".!?") && !strings.HasSuffix(s, "…") {
		s += "."
	}
	return s
}

// Title cleans a generated headline: quotes and scene/slide labels are
// stripped, trailing sentence punctuation dropped, words clamped to 8 and
// lightly title-cased. Callers handle the empty-string fallback. Idempotent.
func Title(raw string) string {
	t := strings.TrimSpace(raw)
	for {
		prev := t
		t = reQuotes.ReplaceAllString(t, "")
		t = reScenePrefix.ReplaceAllString(t, "")
		t = reLabelPrefix.ReplaceAllString(t, "")
		t = reRewritePrefix.ReplaceAllString(t, "")
		if t == prev {
			break
		}
	}
	t = reTrailingPunct.ReplaceAllString(t, "")
	t = reWhitespace.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)
	t = ClampWords(t, 8)
	return titleCase(t)
}

// ClampWords keeps at most n leading words of s.
func ClampWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		return strings.Join(words[:n], " ")
	}
	return strings.Join(words, " ")
}

func titleCase(s string) string {
	prev := rune(' ')
	return strings.Map(func(r rune) rune {
		out := r
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			out = unicode.ToUpper(r)
		}
		prev = r
		return out
	}, s)
}

// IsBadTitle reports whether t is empty or a generic placeholder.
func IsBadTitle(t string) bool {
	s := strings.ToLower(strings.TrimSpace(t))
	return s == "" || s == "overview" || s == "loading" || s == "untitled"
}

var reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeForCompare lowercases and strips punctuation so near-duplicate
// titles compare equal.
func NormalizeForCompare(s string) string {
	out := strings.ToLower(s)
	out = reNonAlnum.ReplaceAllString(out, " ")
	out = reWhitespace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// TitlesEqual reports case/punctuation-insensitive equality.
func TitlesEqual(a, b string) bool {
	return NormalizeForCompare(a) == NormalizeForCompare(b)
}

// stopWords are dropped when deriving a title from body text.
// Trimmed-down version of the frequency-analysis common-word list.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "for": {},
	"nor": {}, "so": {}, "to": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"by": {}, "with": {}, "from": {}, "about": {}, "as": {}, "into": {},
	"over": {}, "after": {}, "before": {}, "between": {}, "through": {},
	"during": {}, "without": {}, "within": {}, "along": {}, "across": {},
	"behind": {}, "beyond": {}, "under": {}, "above": {},
}

// TitleFromLine derives a headline from a slide body: first clause,
// stop words dropped, clamped to 6 tokens. Never returns empty.
func TitleFromLine(line string) string {
	s := line
	if parts := Sentences(line); len(parts) > 0 {
		s = parts[0]
	}
	s = reTitlePunct.ReplaceAllString(s, " ")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	var tokens []string
	for _, w := range strings.Fields(s) {
		if _, stop := stopWords[strings.ToLower(w)]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	t := strings.Join(tokens, " ")
	t = ClampWords(t, 6)
	if t == "" {
		if len(s) > 48 {
			t = s[:48]
		} else {
			t = s
		}
	}
	if out := Title(t); out != "" {
		return out
	}
	return "Overview"
}

// TitleFromSource derives a headline from raw block text: first sentence,
// leading markers trimmed, clamped to 6 words. Never returns empty.
func TitleFromSource(src string) string {
	s := strings.TrimSpace(src)
	if s == "" {
		return "Overview"
	}
	if parts := Sentences(s); len(parts) > 0 {
		s = parts[0]
	}
	s = reLeadingMarkers.ReplaceAllString(s, "")
	s = reScenePrefix.ReplaceAllString(s, "")
	s = strings.TrimRight(s, ".,;:!?")
	s = ClampWords(s, 6)
	if out := Title(s); out != "" {
		return out
	}
	return "Overview"
}

// Sentences splits text after terminal punctuation followed by space.
func Sentences(text string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if (runes[i] == '.' || runes[i] == '!' || runes[i] == '?') &&
			i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
			}
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// Package synthesize turns segmented page content into an ordered,
// bounded slide deck, consulting the capability registry and degrading
// per slide to heuristic fallbacks.
package synthesize

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/webslide/webslide/models"
	"github.com/webslide/webslide/pkg/capability"
	"github.com/webslide/webslide/pkg/sanitize"
	"github.com/webslide/webslide/pkg/segment"
)

const (
	// MinSlides and MaxSlides bound the adaptive deck size.
	MinSlides = 8
	MaxSlides = 30

	maxSummaryInput = 8000
)

var reAbsoluteHTTP = regexp.MustCompile(`(?i)^https?://`)

type Synthesizer struct {
	reg *capability.Registry
	log *slog.Logger
}

func New(reg *capability.Registry, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{reg: reg, log: logger}
}

// Synthesize builds a full deck for one request. A single slide's
// generation failure degrades that slide to its fallback; it never aborts
// the whole deck.
func (s *Synthesizer) Synthesize(ctx context.Context, req models.BuildRequest) (*models.BuildResult, error) {
	blocks := segment.Split(req.Text)
	images := filterImages(req.Images)
	wanted := wantedSlides(len(blocks))

	availability := s.reg.Availability(ctx)

	var gen capability.Session
	if availability == capability.Ready {
		sess, err := s.reg.Provider(capability.KindGenerator).Open(ctx, capability.Options{
			SharedContext: "You are a cinematic, accurate web explainer.",
			Temperature:   1,
			TopK:          3,
		})
		if err != nil {
			s.log.Warn("generator session failed, using fallback", "error", err)
		} else {
			gen = sess
			defer gen.Close()
		}
	}

	hook := s.hook(ctx, gen, req.Title)

	sumProv := s.reg.Provider(capability.KindSummarizer)
	sumReady := sumProv.Probe(ctx) == capability.Ready
	rewProv := s.reg.Provider(capability.KindRewriter)
	rewReady := rewProv.Probe(ctx) == capability.Ready

	scenes := make([]models.Slide, 0, wanted)
	for i := 0; i < wanted; i++ {
		src := fmt.Sprintf("Key idea %d", i+1)
		qualifies := false
		if len(blocks) > 0 {
			src = blocks[i%len(blocks)]
			qualifies = segment.Qualifies(src)
		}

		line := s.slideLine(ctx, sumProv, sumReady && qualifies, src, req.Title)
		title := s.slideTitle(ctx, rewProv, rewReady, src, line, hook)

		var image string
		if len(images) > 0 {
			image = images[i%len(images)]
		}
		scenes = append(scenes, models.Slide{Title: title, Line: line, Image: image})
	}

	deckTitle := s.deckTitle(ctx, gen, req.Title, hook)

	return &models.BuildResult{
		Title:  deckTitle,
		Script: models.Script{Hook: hook, Scenes: scenes},
		Meta: models.BuildMeta{
			Availability:  string(availability),
			Lang:          req.Options.Normalized().Lang,
			HadPageImages: len(images) > 0,
		},
	}, nil
}

// wantedSlides adapts the deck size to the content: one slide per three
// blocks, clamped to [MinSlides, MaxSlides].
func wantedSlides(blockCount int) int {
	wanted := (blockCount + 2) / 3
	if wanted < MinSlides {
		return MinSlides
	}
	if wanted > MaxSlides {
		return MaxSlides
	}
	return wanted
}

func (s *Synthesizer) hook(ctx context.Context, gen capability.Session, pageTitle string) string {
	if gen != nil {
		out, err := gen.Invoke(ctx, fmt.Sprintf(
			"Write a cinematic 1–2 sentence hook about: %s. No prefaces, no labels, no quotes.",
			orThisPage(pageTitle)), "")
		if err == nil {
			if hook := sanitize.Line(out); hook != "" {
				return hook
			}
		} else {
			s.log.Warn("hook generation failed, using fallback", "error", err)
		}
	}
	return sanitize.Line(fmt.Sprintf(
		"A quick tour of “%s” — origins, turning points, and why it still matters today.",
		orThisPage(pageTitle)))
}

// slideLine produces the slide body: one summarizer session per slide,
// opened and closed inside the loop, falling back to a verbatim
// sentence window of the source block.
func (s *Synthesizer) slideLine(ctx context.Context, prov capability.Provider, useSummarizer bool, src, pageTitle string) string {
	if useSummarizer {
		sess, err := prov.Open(ctx, capability.Options{
			SharedContext: fmt.Sprintf("Create readable slide paragraphs for a deck titled %q.", pageTitle),
			Format:        "plain-text",
			Length:        "long",
		})
		if err == nil {
			out, ierr := sess.Invoke(ctx, truncate(src, maxSummaryInput),
				"Produce 4–6 full sentences suitable for a single slide. No lists.")
			sess.Close()
			if ierr == nil && strings.TrimSpace(out) != "" {
				return sanitize.Line(out)
			}
			if ierr != nil {
				s.log.Warn("summarize failed, using block text", "error", ierr)
			}
		}
	}
	if sentences := sanitize.Sentences(src); len(sentences) > 6 {
		return sanitize.Line(strings.Join(sentences[:6], " "))
	}
	return sanitize.Line(src)
}

// slideTitle produces the slide headline via the rewriter-as-shortener,
// then a chain of heuristics; the result is never empty and never a
// near-duplicate of the deck hook.
func (s *Synthesizer) slideTitle(ctx context.Context, prov capability.Provider, useRewriter bool, src, line, hook string) string {
	var title string
	if useRewriter {
		sess, err := prov.Open(ctx, capability.Options{
			Tone:   "as-is",
			Format: "plain-text",
			Length: "shorter",
		})
		if err == nil {
			out, ierr := sess.Invoke(ctx, src,
				"Turn this into a short, punchy slide title (max 6 words). No quotes, no numbering.")
			sess.Close()
			if ierr == nil {
				title = sanitize.ClampWords(sanitize.Title(out), 6)
			}
		}
	}
	if title == "" || sanitize.TitlesEqual(title, hook) {
		title = sanitize.TitleFromLine(line)
	}
	if sanitize.IsBadTitle(title) || sanitize.TitlesEqual(title, hook) {
		title = sanitize.TitleFromSource(src)
	}
	if sanitize.IsBadTitle(title) && title != "Overview" {
		title = "Overview"
	}
	return title
}

// deckTitle produces a headline distinct from the hook, retrying once on
// a hook duplicate and once on a generic placeholder, then falling back
// to the sanitized page title and finally the product name.
func (s *Synthesizer) deckTitle(ctx context.Context, gen capability.Session, pageTitle, hook string) string {
	fallback := sanitize.Title(pageTitle)

	var title string
	if gen != nil {
		out, err := gen.Invoke(ctx, fmt.Sprintf(
			"Rewrite this into a short, punchy headline (max 6 words, no quotes, no numbering).\n"+
				"Do not repeat this hook verbatim:\n%s\n\nTITLE:\n%s",
			hook, orThisPage(pageTitle)), "")
		if err == nil {
			title = sanitize.ClampWords(sanitize.Title(out), 6)
		} else {
			title = fallback
		}

		if title != "" && sanitize.TitlesEqual(title, hook) {
			alt, aerr := gen.Invoke(ctx, fmt.Sprintf(
				"Give a different short headline (max 6 words) that does NOT repeat:\n%s\n\nTITLE:\n%s",
				hook, orThisPage(pageTitle)), "")
			if aerr == nil {
				if t := sanitize.ClampWords(sanitize.Title(alt), 6); t != "" {
					title = t
				}
			}
		}

		if sanitize.IsBadTitle(title) {
			alt, aerr := gen.Invoke(ctx, fmt.Sprintf(
				"Provide a different short headline (max 6 words). Avoid repeating this hook: %s", hook), "")
			if aerr == nil {
				title = sanitize.ClampWords(sanitize.Title(alt), 6)
			}
		}
	} else {
		title = fallback
	}

	// The headline must never collapse into the hook, even when the
	// generator keeps echoing it.
	if sanitize.IsBadTitle(title) || sanitize.TitlesEqual(title, hook) {
		title = fallback
	}
	if title == "" || sanitize.TitlesEqual(title, hook) {
		title = models.DefaultProductName
	}
	return title
}

func filterImages(raw []string) []string {
	var out []string
	for _, u := range raw {
		if reAbsoluteHTTP.MatchString(u) {
			out = append(out, u)
		}
	}
	return out
}

func orThisPage(title string) string {
	if strings.TrimSpace(title) == "" {
		return "this page"
	}
	return title
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

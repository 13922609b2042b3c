// Package reconcile mutates an already-rendered deck in place: tone
// rewrites via the rewriter capability, translation via the translator.
// Per-node failures leave the node unchanged; a capability that probes
// unavailable signals ErrNotApplied once so the caller can fall back to a
// full rebuild with the new option baked into the cache key.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"

	"github.com/webslide/webslide/models"
	"github.com/webslide/webslide/pkg/capability"
	"github.com/webslide/webslide/pkg/deckcache"
	"github.com/webslide/webslide/pkg/sanitize"
)

// ErrNotApplied signals that the transform could not run at all; the
// rendered deck is untouched and the caller should rebuild instead.
var ErrNotApplied = errors.New("transform not applied")

type Reconciler struct {
	reg   *capability.Registry
	store *deckcache.Store
	log   *slog.Logger

	detectOnce sync.Once
	detector   lingua.LanguageDetector
}

func New(reg *capability.Registry, store *deckcache.Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{reg: reg, store: store, log: logger}
}

// ToneInstruction maps a named tone to its rewrite instruction. Unknown
// tones get the default style.
func ToneInstruction(tone string) string {
	switch tone {
	case models.ToneKidFriendly:
		return "Rewrite for kids aged 8–10: simple words, warm and encouraging, short sentences, no jargon."
	case models.ToneSkeptical:
		return "Rewrite with a cautious, evidence-seeking tone: neutral, avoids hype, briefly notes uncertainty."
	case models.ToneOptimistic:
		return "Rewrite upbeat and inspiring, focus on the positive, energetic but not cheesy."
	case models.ToneExpert:
		return "Rewrite concise and expert: precise, neutral, assumes an informed reader, no fluff."
	default:
		return "Rewrite clear and friendly for a general audience."
	}
}

// RewriteTone transforms the rendered deck's hook, slide titles and
// bodies to the target tone, node by node. On success the mirror is
// persisted; the shared keyed cache is never touched.
func (r *Reconciler) RewriteTone(ctx context.Context, pageURL string, deck *models.BuildResult, tone string) error {
	prov := r.reg.Provider(capability.KindRewriter)
	if prov.Probe(ctx) != capability.Ready {
		return ErrNotApplied
	}
	sess, err := prov.Open(ctx, capability.Options{
		Tone:          "as-is",
		Format:        "plain-text",
		SharedContext: "WebSlide is rewriting slide blurbs.",
	})
	if err != nil {
		return ErrNotApplied
	}
	defer sess.Close()

	instr := ToneInstruction(tone)

	r.transformNode(ctx, sess, instr, &deck.Script.Hook, sanitize.Line)
	for i := range deck.Script.Scenes {
		sc := &deck.Script.Scenes[i]
		r.transformNode(ctx, sess, instr, &sc.Title, func(s string) string {
			return sanitize.ClampWords(sanitize.Title(s), 6)
		})
		r.transformNode(ctx, sess, instr, &sc.Line, sanitize.Line)
	}

	r.store.SetMirror(pageURL, deck)
	return nil
}

// Translate transforms the rendered deck into the target language. When
// sourceLang is empty the deck's recorded language is used, falling back
// to detection from the rendered text. Identical source and target is a
// successful no-op.
func (r *Reconciler) Translate(ctx context.Context, pageURL string, deck *models.BuildResult, sourceLang, targetLang string) error {
	target := models.NormalizeLang(targetLang)
	source := models.NormalizeLang(sourceLang)
	if sourceLang == "" {
		if deck.Meta.Lang != "" {
			source = models.NormalizeLang(deck.Meta.Lang)
		} else {
			source = r.detectLanguage(deck)
		}
	}
	if source == target {
		return nil
	}

	prov := r.reg.Provider(capability.KindTranslator)
	if prov.Probe(ctx) != capability.Ready {
		return ErrNotApplied
	}
	sess, err := prov.Open(ctx, capability.Options{
		SourceLanguage: source,
		TargetLanguage: target,
	})
	if err != nil {
		return ErrNotApplied
	}
	defer sess.Close()

	keep := func(s string) string { return strings.TrimSpace(s) }
	r.transformNode(ctx, sess, "", &deck.Title, keep)
	r.transformNode(ctx, sess, "", &deck.Script.Hook, keep)
	for i := range deck.Script.Scenes {
		sc := &deck.Script.Scenes[i]
		r.transformNode(ctx, sess, "", &sc.Title, keep)
		r.transformNode(ctx, sess, "", &sc.Line, keep)
	}

	deck.Meta.Lang = target
	r.store.SetMirror(pageURL, deck)
	return nil
}

// transformNode runs one invocation against a single rendered string,
// leaving it unchanged on failure or empty output.
func (r *Reconciler) transformNode(ctx context.Context, sess capability.Session, taskContext string, node *string, clean func(string) string) {
	if node == nil || strings.TrimSpace(*node) == "" {
		return
	}
	out, err := sess.Invoke(ctx, *node, taskContext)
	if err != nil {
		r.log.Warn("node transform failed, leaving unchanged", "error", err)
		return
	}
	if cleaned := clean(out); cleaned != "" {
		*node = cleaned
	}
}

var detectable = []lingua.Language{
	lingua.English, lingua.Spanish, lingua.French, lingua.German,
	lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Swedish,
	lingua.Russian, lingua.Arabic, lingua.Hindi, lingua.Japanese,
	lingua.Korean, lingua.Chinese, lingua.Thai,
}

// detectLanguage guesses the deck's current language from its rendered
// text. Defaults to English when detection fails.
func (r *Reconciler) detectLanguage(deck *models.BuildResult) string {
	r.detectOnce.Do(func() {
		r.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectable...).
			Build()
	})

	var b strings.Builder
	b.WriteString(deck.Script.Hook)
	for _, sc := range deck.Script.Scenes {
		b.WriteString(" ")
		b.WriteString(sc.Line)
	}
	lang, ok := r.detector.DetectLanguageOf(b.String())
	if !ok {
		return "en"
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

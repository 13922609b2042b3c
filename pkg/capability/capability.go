// Package capability is a uniform probe/open/invoke/close facade over the
// four independent AI capability kinds used for deck synthesis. Providers
// are resolved once into a Registry; call sites never branch on existence,
// they treat a non-ready probe as "use the heuristic fallback".
package capability

import (
	"context"
	"errors"
)

// Kind identifies one AI capability.
type Kind string

const (
	KindGenerator  Kind = "generator"
	KindSummarizer Kind = "summarizer"
	KindRewriter   Kind = "rewriter"
	KindTranslator Kind = "translator"
)

// Availability is the result of probing a capability.
type Availability string

const (
	Ready        Availability = "ready"
	Downloadable Availability = "downloadable"
	Unavailable  Availability = "unavailable"
)

// ErrUnavailable is returned by Open when the capability cannot serve.
var ErrUnavailable = errors.New("capability unavailable")

// Options configure a session. Zero values mean provider defaults.
type Options struct {
	Tone          string
	Format        string
	Length        string
	SharedContext string
	Temperature   float64
	TopK          int

	// Translator sessions only.
	SourceLanguage string
	TargetLanguage string
}

// Session is a scoped capability handle. Callers must Close on every exit
// path once no further Invoke calls are needed in that scope.
type Session interface {
	// Invoke runs one generation over input with free-form task context.
	Invoke(ctx context.Context, input, taskContext string) (string, error)
	Close()
}

// Provider exposes one capability kind.
type Provider interface {
	Kind() Kind
	Probe(ctx context.Context) Availability
	Open(ctx context.Context, opts Options) (Session, error)
}

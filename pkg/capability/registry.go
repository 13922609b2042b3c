package capability

import "context"

// Registry holds one provider per kind, resolved once at startup.
type Registry struct {
	providers map[Kind]Provider
}

// NewRegistry builds a registry from the given providers. Later providers
// win when two claim the same kind.
func NewRegistry(providers ...Provider) *Registry {
	m := make(map[Kind]Provider, len(providers))
	for _, p := range providers {
		if p != nil {
			m[p.Kind()] = p
		}
	}
	return &Registry{providers: m}
}

// Provider returns the provider for kind. Unresolved kinds get a null
// provider that probes unavailable, so callers always hold a usable value.
func (r *Registry) Provider(kind Kind) Provider {
	if p, ok := r.providers[kind]; ok {
		return p
	}
	return nullProvider{kind: kind}
}

// Availability reports the generator capability's probe result; it is the
// deck-level availability recorded in build metadata.
func (r *Registry) Availability(ctx context.Context) Availability {
	return r.Provider(KindGenerator).Probe(ctx)
}

type nullProvider struct {
	kind Kind
}

func (n nullProvider) Kind() Kind                         { return n.kind }
func (n nullProvider) Probe(context.Context) Availability { return Unavailable }
func (n nullProvider) Open(context.Context, Options) (Session, error) {
	return nil, ErrUnavailable
}

package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiProvider serves one capability kind over the Gemini API. All four
// kinds share one underlying client; Close on a session is a no-op release
// since the remote API holds no per-session state.
type GeminiProvider struct {
	client *genai.Client
	model  string
	kind   Kind
}

// NewGeminiProviders creates one provider per capability kind sharing a
// single client.
func NewGeminiProviders(ctx context.Context, apiKey, model string) ([]Provider, error) {
	if apiKey == "" {
		return nil, errors.New("missing API key")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	kinds := []Kind{KindGenerator, KindSummarizer, KindRewriter, KindTranslator}
	providers := make([]Provider, 0, len(kinds))
	for _, k := range kinds {
		providers = append(providers, &GeminiProvider{client: client, model: model, kind: k})
	}
	return providers, nil
}

func (p *GeminiProvider) Kind() Kind { return p.kind }

func (p *GeminiProvider) Probe(ctx context.Context) Availability {
	if p.client == nil {
		return Unavailable
	}
	return Ready
}

func (p *GeminiProvider) Open(ctx context.Context, opts Options) (Session, error) {
	if p.client == nil {
		return nil, ErrUnavailable
	}
	return &geminiSession{provider: p, opts: opts}, nil
}

type geminiSession struct {
	provider *GeminiProvider
	opts     Options
}

func (s *geminiSession) Invoke(ctx context.Context, input, taskContext string) (string, error) {
	prompt := s.buildPrompt(input, taskContext)
	cfg := &genai.GenerateContentConfig{}
	if s.opts.Temperature > 0 {
		cfg.Temperature = ptr(float32(s.opts.Temperature))
	}
	if s.opts.TopK > 0 {
		cfg.TopK = ptr(float32(s.opts.TopK))
	}
	if s.opts.SharedContext != "" {
		cfg.SystemInstruction = genai.NewContentFromText(s.opts.SharedContext, genai.RoleUser)
	}
	res, err := s.provider.client.Models.GenerateContent(ctx, s.provider.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, cfg)
	if err != nil {
		return "", fmt.Errorf("generate failed: %w", err)
	}
	return strings.TrimSpace(res.Text()), nil
}

// buildPrompt folds the kind-specific instruction prelude, the task
// context and the input into one prompt.
func (s *geminiSession) buildPrompt(input, taskContext string) string {
	var b strings.Builder
	switch s.provider.kind {
	case KindSummarizer:
		length := s.opts.Length
		if length == "" {
			length = "long"
		}
		fmt.Fprintf(&b, "Summarize the text below as %s plain text.\n", length)
	case KindRewriter:
		b.WriteString("Rewrite the text below. Return only the rewritten text.\n")
		if s.opts.Length == "shorter" {
			b.WriteString("Make it shorter than the original.\n")
		}
	case KindTranslator:
		fmt.Fprintf(&b, "Translate the text below from %s to %s. Return only the translation, nothing else.\n",
			s.opts.SourceLanguage, s.opts.TargetLanguage)
	}
	if taskContext != "" {
		fmt.Fprintf(&b, "%s\n", taskContext)
	}
	fmt.Fprintf(&b, "\n%s", input)
	return b.String()
}

func (s *geminiSession) Close() {}

func ptr[T any](v T) *T { return &v }

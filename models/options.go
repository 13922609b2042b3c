package models

import (
	"net/url"
	"strings"
)

// SchemaVersion tags cache keys. Bump whenever synthesis output shape
// changes so stale-shaped entries are never served.
const SchemaVersion = "deck_v2"

// DefaultProductName is the last-resort deck title.
const DefaultProductName = "WebSlide"

// Known tone names. Unknown tones fall back to the default rewrite style.
const (
	ToneDefault     = "default"
	ToneKidFriendly = "kid-friendly"
	ToneSkeptical   = "skeptical"
	ToneOptimistic  = "optimistic"
	ToneExpert      = "expert"
)

// BuildOptions are the user-selectable knobs baked into the cache key.
type BuildOptions struct {
	Tone string `json:"tone"`
	Lang string `json:"lang"`
}

// Normalized fills empty fields with the defaults used throughout.
func (o BuildOptions) Normalized() BuildOptions {
	if o.Tone == "" {
		o.Tone = ToneDefault
	}
	if o.Lang == "" {
		o.Lang = "en"
	}
	o.Lang = NormalizeLang(o.Lang)
	return o
}

// CacheKey composes the persistent cache key for this page + options.
// Keys are stable for the lifetime of unchanged (url, tone, lang, version).
func (o BuildOptions) CacheKey(rawURL string) string {
	o = o.Normalized()
	return NormalizeURL(rawURL) + "::" + o.Tone + "::" + o.Lang + "::" + SchemaVersion
}

// NormalizeURL strips the fragment so anchors on the same page share a key.
func NormalizeURL(rawURL string) string {
	if rawURL == "" {
		return "about:blank"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		if i := strings.IndexByte(rawURL, '#'); i >= 0 {
			return rawURL[:i]
		}
		return rawURL
	}
	u.Fragment = ""
	return u.String()
}

var langAliases = map[string]string{
	"zh-cn":   "zh",
	"zh-hans": "zh",
	"zh-hant": "zh",
	"pt-br":   "pt",
	"pt-pt":   "pt",
}

// NormalizeLang reduces a BCP-47-ish tag to the bare two-letter code
// used by the translator capability and the cache key.
func NormalizeLang(lang string) string {
	m := strings.ToLower(strings.TrimSpace(lang))
	if m == "" {
		return "en"
	}
	if mapped, ok := langAliases[m]; ok {
		return mapped
	}
	if i := strings.IndexByte(m, '-'); i > 0 {
		return m[:i]
	}
	return m
}

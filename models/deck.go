// Package models defines the deck data model, build options and runtime configuration.
package models

// Slide is one title + body (+ optional image) unit of a deck.
type Slide struct {
	Title string `json:"title"`
	Line  string `json:"line"`
	Image string `json:"image,omitempty"`
}

// Script is the narrated portion of a deck: a short cinematic hook
// followed by the ordered slides.
type Script struct {
	Hook   string  `json:"hook"`
	Scenes []Slide `json:"scenes"`
}

// BuildMeta records how a deck was produced. Lang is the language the
// deck text is currently in; translation updates it.
type BuildMeta struct {
	Availability  string `json:"availability"`
	Lang          string `json:"lang,omitempty"`
	FromCache     bool   `json:"from_cache"`
	TimedOut      bool   `json:"timed_out,omitempty"`
	HadPageImages bool   `json:"had_page_images"`
}

// BuildResult is the unit stored in the cache and delivered to the renderer.
type BuildResult struct {
	Title  string    `json:"title"`
	Script Script    `json:"script"`
	Meta   BuildMeta `json:"meta"`
}

// Clone returns a deep copy so cached results can be handed out
// without sharing the scenes slice with callers that mutate it.
func (r *BuildResult) Clone() *BuildResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Script.Scenes = make([]Slide, len(r.Script.Scenes))
	copy(out.Script.Scenes, r.Script.Scenes)
	return &out
}

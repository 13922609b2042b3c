package models

// PageContent is the readable text pulled out of a single page,
// produced once per extraction and immutable afterwards.
type PageContent struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// BuildRequest carries everything the build coordinator needs for one deck.
type BuildRequest struct {
	URL     string       `json:"url"`
	Title   string       `json:"title"`
	Text    string       `json:"text"`
	Images  []string     `json:"images,omitempty"`
	Options BuildOptions `json:"options"`
}

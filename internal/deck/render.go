package deck

import (
	"fmt"
	"io"

	"github.com/webslide/webslide/models"
)

// RenderDeck writes a plain-text rendering of a deck: hero block first,
// then the numbered slides. This is the CLI stand-in for the overlay
// renderer; the reconciler mutates the same deck through the mirror.
func RenderDeck(w io.Writer, res *models.BuildResult) {
	fmt.Fprintf(w, "== %s ==\n", res.Title)
	if res.Script.Hook != "" {
		fmt.Fprintf(w, "%s\n", res.Script.Hook)
	}
	fmt.Fprintf(w, "[model: %s%s%s]\n", res.Meta.Availability, noteIf(res.Meta.FromCache, ", from cache"), noteIf(res.Meta.TimedOut, ", preview while building"))
	fmt.Fprintln(w)

	if len(res.Script.Scenes) == 0 {
		fmt.Fprintln(w, "No content found on this page.")
		fmt.Fprintln(w, "This page has little readable text. Try an article page instead.")
		return
	}

	for i, sc := range res.Script.Scenes {
		fmt.Fprintf(w, "%2d. %s\n", i+1, sc.Title)
		fmt.Fprintf(w, "    %s\n", sc.Line)
		if sc.Image != "" {
			fmt.Fprintf(w, "    [image: %s]\n", sc.Image)
		}
	}
}

func noteIf(cond bool, note string) string {
	if cond {
		return note
	}
	return ""
}

package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	minImageDim   = 200
	maxCandidates = 12
)

var (
	reAbsoluteHTTP = regexp.MustCompile(`(?i)^https?://`)
	reBadImageSrc  = regexp.MustCompile(`(?i)sprite|icon|logo|avatar|emoji|transparent|data:image`)
	reBadImageAlt  = regexp.MustCompile(`(?i)logo|icon`)
)

// ExtractImages collects candidate illustration URLs: absolute http(s)
// sources only, tiny images and logo/icon/sprite assets rejected,
// deduplicated in encounter order, capped at a dozen.
func (e *Extractor) ExtractImages(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(out) >= maxCandidates {
			return false
		}
		src, _ := s.Attr("src")
		src = strings.TrimSpace(src)
		if !reAbsoluteHTTP.MatchString(src) {
			return true
		}
		if tooSmall(s) {
			return true
		}
		alt, _ := s.Attr("alt")
		if reBadImageSrc.MatchString(src) || (alt != "" && reBadImageAlt.MatchString(alt)) {
			return true
		}
		if _, dup := seen[src]; dup {
			return true
		}
		seen[src] = struct{}{}
		out = append(out, src)
		return true
	})
	return out
}

// tooSmall rejects images whose declared dimensions fall under the
// threshold. Missing dimensions pass; the natural size is unknown here.
func tooSmall(s *goquery.Selection) bool {
	for _, attr := range []string{"width", "height"} {
		if v, ok := s.Attr(attr); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n < minImageDim {
				return true
			}
		}
	}
	return false
}

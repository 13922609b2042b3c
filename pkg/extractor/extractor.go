// Package extractor pulls readable text and candidate images out of a
// page's DOM. Pure read of the parsed document; no network access.
package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/webslide/webslide/models"
)

const (
	minUnitChars     = 30
	maxFallbackParas = 200
)

var reNoise = regexp.MustCompile(`(?i)cookies|subscribe|sign in|advert`)

type Extractor struct{}

// ExtractContent reads the page's readable text. Container preference:
// the first article/main element, then the go-readability distillation,
// then the first 200 paragraph nodes.
func (e *Extractor) ExtractContent(rawURL, html string) (models.PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.PageContent{}, err
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = "Untitled"
	}

	var units []string
	if container := doc.Find("article, main").First(); container.Length() > 0 {
		units = collectUnits(container, "h2,h3,p,li", -1)
	} else if distilled := distill(rawURL, html); distilled != nil {
		units = collectUnits(distilled.Selection, "h1,h2,h3,p,li", -1)
	} else {
		units = collectUnits(doc.Selection, "p", maxFallbackParas)
	}

	kept := units[:0]
	for _, u := range units {
		if len(u) <= minUnitChars || reNoise.MatchString(u) {
			continue
		}
		kept = append(kept, u)
	}

	return models.PageContent{Title: title, Text: strings.Join(kept, "\n\n")}, nil
}

// distill runs go-readability over the raw HTML and reparses the clean
// article content. Returns nil when readability finds nothing usable.
func distill(rawURL, html string) *goquery.Document {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), parsedURL)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil
	}
	return doc
}

func collectUnits(root *goquery.Selection, selector string, limit int) []string {
	var out []string
	root.Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if limit >= 0 && len(out) >= limit {
			return false
		}
		if text := normalizeText(s.Text()); text != "" {
			out = append(out, text)
		}
		return true
	})
	return out
}

// normalizeText trims each line and joins with single spaces.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

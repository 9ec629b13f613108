package client

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DescriptionSummary is what the product table shows of the editor HTML
type DescriptionSummary struct {
	Excerpt   string   `json:"excerpt"`
	WordCount int      `json:"wordCount"`
	Images    []string `json:"images,omitempty"`
	Links     []string `json:"links,omitempty"`
}

// SummarizeDescription extracts plain text, image sources and link targets
// from rich-text HTML. The excerpt is cut at maxRunes on a word boundary.
func SummarizeDescription(html string, maxRunes int) (*DescriptionSummary, error) {
	summary := &DescriptionSummary{}
	if strings.TrimSpace(html) == "" {
		return summary, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style").Remove()

	doc.Find("img[src]").Each(func(i int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			summary.Images = append(summary.Images, src)
		}
	})
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" && !strings.HasPrefix(href, "#") {
			summary.Links = append(summary.Links, href)
		}
	})

	// block elements would otherwise glue neighbouring words together
	doc.Find("p, div, br, li, h1, h2, h3, h4, h5, h6, tr").Each(func(i int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	words := strings.Fields(doc.Text())
	summary.WordCount = len(words)
	summary.Excerpt = excerpt(words, maxRunes)

	return summary, nil
}

func excerpt(words []string, maxRunes int) string {
	full := strings.Join(words, " ")
	if maxRunes <= 0 || utf8.RuneCountInString(full) <= maxRunes {
		return full
	}

	var b strings.Builder
	n := 0
	for i, w := range words {
		wl := utf8.RuneCountInString(w)
		if i > 0 {
			wl++
		}
		if n+wl > maxRunes {
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		n += wl
	}
	if b.Len() == 0 {
		// a single word longer than the limit
		r := []rune(words[0])
		return string(r[:maxRunes]) + "…"
	}
	return b.String() + "…"
}

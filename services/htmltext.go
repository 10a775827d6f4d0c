package services

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// TextSegments parses raw HTML and returns its visible text nodes in document
// order, whitespace-normalised. Script and style content is skipped.
func TextSegments(raw string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil
	}

	var segments []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := NormaliseText(n.Data); t != "" {
				segments = append(segments, t)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return segments
}

// JoinedText is TextSegments joined by single spaces.
func JoinedText(raw string) string {
	return strings.Join(TextSegments(raw), " ")
}

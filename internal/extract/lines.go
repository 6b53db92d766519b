package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Lines flattens a selection into its trimmed, non-empty text nodes, which is
// close enough to the browser's innerText split on newlines for the row
// layouts we read.
func Lines(sel *goquery.Selection) []string {
	var lines []string
	for _, n := range sel.Nodes {
		collectLines(n, &lines)
	}
	return lines
}

func collectLines(n *html.Node, lines *[]string) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			*lines = append(*lines, t)
		}
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectLines(c, lines)
	}
}

// Row is a demographic row split into its parts.
type Row struct {
	Value      string
	Label      string
	Percentage float64
}

// PercentageRow reads a block of lines laid out as value, label, ... with the
// percentage on the first line containing '%'.
func PercentageRow(lines []string) (Row, bool) {
	if len(lines) < 2 {
		return Row{}, false
	}
	for _, l := range lines {
		if !strings.Contains(l, "%") {
			continue
		}
		pct, ok := ParsePercent(l)
		if !ok {
			return Row{}, false
		}
		return Row{
			Value:      strings.TrimSpace(lines[0]),
			Label:      strings.TrimSpace(lines[1]),
			Percentage: pct,
		}, true
	}
	return Row{}, false
}

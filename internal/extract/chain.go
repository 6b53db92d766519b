// Package extract holds the pure text and DOM matchers used by the scrapers.
// Nothing here touches the browser: every function takes HTML, text or a
// goquery selection and returns a value plus whether it was found.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy is one way of extracting a T from an input. It reports false when
// it finds nothing plausible.
type Strategy[I, T any] func(in I) (T, bool)

// Chain is an ordered list of strategies; the first hit wins.
type Chain[I, T any] []Strategy[I, T]

// Extract runs the strategies in order and stops at the first hit.
func (c Chain[I, T]) Extract(in I) (T, bool) {
	for _, s := range c {
		if v, ok := s(in); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Or is Extract with a fallback for the all-miss case.
func (c Chain[I, T]) Or(in I, fallback T) T {
	if v, ok := c.Extract(in); ok {
		return v
	}
	return fallback
}

// CountPattern matches re against the input and parses its first capture
// group with ParseCount.
func CountPattern(re *regexp.Regexp) Strategy[string, int] {
	return func(in string) (int, bool) {
		m := re.FindStringSubmatch(in)
		if len(m) < 2 {
			return 0, false
		}
		return ParseCount(m[1]), true
	}
}

// CountPatterns builds a chain of CountPattern strategies, one per regexp.
func CountPatterns(patterns ...string) Chain[string, int] {
	chain := make(Chain[string, int], 0, len(patterns))
	for _, p := range patterns {
		chain = append(chain, CountPattern(regexp.MustCompile(p)))
	}
	return chain
}

// SelectorText returns the trimmed text of the first element matching css,
// provided it is longer than minLen characters.
func SelectorText(css string, minLen int) Strategy[*goquery.Selection, string] {
	return func(sel *goquery.Selection) (string, bool) {
		found := sel.Find(css).First()
		if found.Length() == 0 {
			return "", false
		}
		text := strings.TrimSpace(found.Text())
		if len([]rune(text)) <= minLen {
			return "", false
		}
		return text, true
	}
}

// SelectorTexts builds a chain of SelectorText strategies sharing minLen.
func SelectorTexts(minLen int, selectors ...string) Chain[*goquery.Selection, string] {
	chain := make(Chain[*goquery.Selection, string], 0, len(selectors))
	for _, css := range selectors {
		chain = append(chain, SelectorText(css, minLen))
	}
	return chain
}

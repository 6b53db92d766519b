package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ibeckermayer/lisync/internal/browser"
	"github.com/ibeckermayer/lisync/internal/extract"
	"github.com/ibeckermayer/lisync/internal/types"
)

type demographicsStrategy = extract.Strategy[*goquery.Document, []types.Demographic]

// audienceChain tries the compact "top demographics" list first, then the
// per-section layout.
var audienceChain = extract.Chain[*goquery.Document, []types.Demographic]{
	nonEmpty(summaryListDemographics),
	nonEmpty(sectionDemographics),
}

func nonEmpty(f func(*goquery.Document) []types.Demographic) demographicsStrategy {
	return func(doc *goquery.Document) ([]types.Demographic, bool) {
		d := f(doc)
		return d, len(d) > 0
	}
}

// ScrapeDemographics reads the account-level audience breakdown
func (s *Scraper) ScrapeDemographics(ctx context.Context, page browser.Page) ([]types.Demographic, error) {
	snap, err := s.load(ctx, page, AudiencePath)
	if err != nil {
		return nil, err
	}

	demographics, _ := audienceChain.Extract(snap.doc)
	s.log.Info().Int("count", len(demographics)).Msg("Found demographic data points")
	return demographics, nil
}

func summaryListDemographics(doc *goquery.Document) []types.Demographic {
	var demographics []types.Demographic

	doc.Find("ul").EachWithBreak(func(_ int, list *goquery.Selection) bool {
		text := strings.Join(extract.Lines(list), "\n")
		if !containsAny(text, AudienceSummaryMarkers) {
			return true
		}
		list.Find("li").Each(func(_ int, li *goquery.Selection) {
			if d, ok := extract.Demographic(extract.Lines(li)); ok {
				demographics = append(demographics, d)
			}
		})
		return len(demographics) == 0
	})

	return demographics
}

var audienceSections = []struct {
	header   string
	category types.Category
}{
	{"Top job titles", types.CategoryJobTitle},
	{"Top industries", types.CategoryIndustry},
	{"Top locations", types.CategoryLocation},
	{"Top companies", types.CategoryCompany},
}

func sectionDemographics(doc *goquery.Document) []types.Demographic {
	var demographics []types.Demographic

	for _, section := range audienceSections {
		header := findLeafWithText(doc.Selection, section.header)
		if header.Length() == 0 {
			continue
		}

		list := header.Parent().Parent().Find("ul").First()
		list.Find("li").Each(func(_ int, li *goquery.Selection) {
			lines := extract.Lines(li)
			if len(lines) < 2 {
				return
			}
			for _, l := range lines {
				if !strings.Contains(l, "%") {
					continue
				}
				if pct, ok := extract.ParsePercent(l); ok {
					demographics = append(demographics, types.Demographic{
						Category:   section.category,
						Value:      lines[0],
						Percentage: pct,
					})
				}
				return
			}
		})
	}

	return demographics
}

// findLeafWithText returns the first element without element children whose
// text contains text, ignoring case and runs of whitespace.
func findLeafWithText(sel *goquery.Selection, text string) *goquery.Selection {
	want := normalizeText(text)
	return sel.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Children().Length() == 0 && strings.Contains(normalizeText(s.Text()), want)
	}).First()
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ScrapePostAnalytics reads the audience breakdown of a single post
func (s *Scraper) ScrapePostAnalytics(ctx context.Context, page browser.Page, urn string) ([]types.Demographic, error) {
	if urn == "" {
		return nil, fmt.Errorf("post has no urn")
	}

	if err := page.Navigate(ctx, s.url(fmt.Sprintf(PostSummaryPath, urn))); err != nil {
		return nil, err
	}

	if err := page.ScrollToBottom(ctx); err != nil {
		s.log.Debug().Err(err).Msg("Scroll failed")
	}
	if _, err := page.ClickText(ctx, ShowAllText); err != nil {
		s.log.Debug().Err(err).Msg("Show all click failed")
	}

	snap, err := s.capture(ctx, page)
	if err != nil {
		return nil, err
	}

	rows := snap.doc.Find(DemographicRow)
	demographics := parsePostDemographics(rows)
	s.log.Info().
		Str("urn", urn).
		Int("rows", rows.Length()).
		Int("extracted", len(demographics)).
		Msg("Post analytics parsed")

	return demographics, nil
}

func parsePostDemographics(rows *goquery.Selection) []types.Demographic {
	type key struct {
		category types.Category
		value    string
	}
	seen := make(map[key]bool)

	var demographics []types.Demographic
	rows.Each(func(_ int, row *goquery.Selection) {
		d, ok := extract.Demographic(extract.Lines(row))
		if !ok {
			return
		}
		k := key{d.Category, d.Value}
		if seen[k] {
			return
		}
		seen[k] = true
		demographics = append(demographics, d)
	})
	return demographics
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

package scraper

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/lisync/internal/browser/browsertest"
	"github.com/ibeckermayer/lisync/internal/types"
)

func TestScrapeDemographics_SummaryList(t *testing.T) {
	page := browsertest.New(map[string]string{
		base + AudiencePath: `<html><body>
		<ul>
			<li><span>Software Engineer</span><span>With this experience level</span><span>39%</span></li>
			<li><span>Tel Aviv</span><span>From this location</span><span>22.5%</span></li>
			<li><span>Acme</span><span>Something unrelated</span><span>5%</span></li>
			<li><span>Nowhere</span><span>From this location</span><span>0%</span></li>
		</ul>
		</body></html>`,
	})

	d, err := newTestScraper(15).ScrapeDemographics(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, []types.Demographic{
		{Category: types.CategoryJobTitle, Value: "Software Engineer", Percentage: 39},
		{Category: types.CategoryLocation, Value: "Tel Aviv", Percentage: 22.5},
	}, d)
}

func TestScrapeDemographics_SectionFallback(t *testing.T) {
	page := browsertest.New(map[string]string{
		base + AudiencePath: `<html><body>
		<section>
			<div><h2>Top industries</h2></div>
			<ul>
				<li><span>Software Development</span><span>30%</span></li>
				<li><span>No percentage</span></li>
			</ul>
		</section>
		<section>
			<div><h2>Top companies</h2></div>
			<ul><li><span>Initech</span><span>4%</span></li></ul>
		</section>
		</body></html>`,
	})

	d, err := newTestScraper(15).ScrapeDemographics(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, []types.Demographic{
		{Category: types.CategoryIndustry, Value: "Software Development", Percentage: 30},
		{Category: types.CategoryCompany, Value: "Initech", Percentage: 4},
	}, d)
}

func TestScrapeDemographics_SectionHeaderWithCount(t *testing.T) {
	page := browsertest.New(map[string]string{
		base + AudiencePath: `<html><body>
		<section>
			<div><h2>
				TOP JOB   TITLES (12)
			</h2></div>
			<ul><li><span>Engineer</span><span>22%</span></li></ul>
		</section>
		</body></html>`,
	})

	d, err := newTestScraper(15).ScrapeDemographics(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, []types.Demographic{
		{Category: types.CategoryJobTitle, Value: "Engineer", Percentage: 22},
	}, d)
}

func TestScrapeDemographics_NothingFound(t *testing.T) {
	page := browsertest.New(map[string]string{
		base + AudiencePath: `<html><body><p>No data</p></body></html>`,
	})

	d, err := newTestScraper(15).ScrapeDemographics(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, d)
}

func row(value, label, pct string) string {
	return fmt.Sprintf(`<div class="member-analytics-addon-meter-bars-chart__row"><span>%s</span><span>%s</span><span>%s</span></div>`, value, label, pct)
}

func TestScrapePostAnalytics(t *testing.T) {
	urn := "urn:li:activity:111"
	url := base + fmt.Sprintf(PostSummaryPath, urn)
	page := browsertest.New(map[string]string{
		url: `<html><body>` +
			row("Product Manager", "Job titles", "18%") +
			row("Product Manager", "Job titles", "18%") +
			row("Berlin", "Locations", "9%") +
			row("Computer Software", "Industry", "27%") +
			row("Mystery", "Unknown bucket", "3%") +
			`</body></html>`,
	})

	d, err := newTestScraper(15).ScrapePostAnalytics(context.Background(), page, urn)
	require.NoError(t, err)
	assert.Equal(t, []types.Demographic{
		{Category: types.CategoryJobTitle, Value: "Product Manager", Percentage: 18},
		{Category: types.CategoryLocation, Value: "Berlin", Percentage: 9},
		{Category: types.CategoryIndustry, Value: "Computer Software", Percentage: 27},
	}, d)
	assert.Equal(t, []string{ShowAllText}, page.Clicks)
	assert.Equal(t, 1, page.Scrolls)
}

func TestScrapePostAnalytics_EmptyURN(t *testing.T) {
	page := browsertest.New(map[string]string{})

	_, err := newTestScraper(15).ScrapePostAnalytics(context.Background(), page, "")
	assert.Error(t, err)
	assert.Empty(t, page.Visited)
}

package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/ibeckermayer/lisync/internal/reconcile"
	"github.com/ibeckermayer/lisync/internal/types"
)

// Builder renders run reports from a finished sync
type Builder struct {
	maxPosts int
	template *template.Template
}

// New creates a new report builder listing at most maxPosts posts
func New(maxPosts int) (*Builder, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"percent": percent,
	}).Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	if maxPosts < 0 {
		maxPosts = 0
	}
	return &Builder{
		maxPosts: maxPosts,
		template: tmpl,
	}, nil
}

// Run is everything a report is built from
type Run struct {
	Stage             string
	Err               error
	Profile           types.Profile
	Stats             reconcile.Stats
	PostsScraped      int
	PostAnalytics     int
	ProfileViews      int
	SearchAppearances int
	Duration          time.Duration
	Posts             []types.Post
	Audience          []types.Demographic
}

// Failed reports whether the run stopped with an error
func (r Run) Failed() bool {
	return r.Err != nil
}

// Report is a rendered run report ready for saving or sending
type Report struct {
	Subject   string
	HTMLBody  string
	PlainBody string
	CreatedAt time.Time
}

// reportData is the template data structure
type reportData struct {
	Title    string
	Date     string
	Status   string
	Error    string
	Profile  types.Profile
	Run      Run
	Posts    []postData
	Audience []types.Demographic
}

type postData struct {
	Content     string
	Type        types.PostType
	Impressions int
	Likes       int
	Comments    int
	Shares      int
	Rate        float64
	URL         string
}

// Build renders the report for run
func (b *Builder) Build(run Run, now time.Time) (*Report, error) {
	status := "completed"
	if run.Failed() {
		status = "failed at " + run.Stage
	}

	data := reportData{
		Title:    "LinkedIn sync " + status,
		Date:     now.Format("Monday, January 2 15:04"),
		Status:   status,
		Profile:  run.Profile,
		Run:      run,
		Posts:    b.topPosts(run.Posts),
		Audience: run.Audience,
	}
	if run.Err != nil {
		data.Error = run.Err.Error()
	}

	var htmlBuf bytes.Buffer
	if err := b.template.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Report{
		Subject:   fmt.Sprintf("LinkedIn sync %s - %s", status, now.Format("Jan 2")),
		HTMLBody:  htmlBuf.String(),
		PlainBody: buildPlainText(data),
		CreatedAt: now,
	}, nil
}

// topPosts orders posts by engagement rate, then impressions
func (b *Builder) topPosts(posts []types.Post) []postData {
	out := make([]postData, 0, len(posts))
	for _, p := range posts {
		out = append(out, postData{
			Content:     truncate(p.Content, 200),
			Type:        p.PostType,
			Impressions: p.Impressions,
			Likes:       p.Likes,
			Comments:    p.Comments,
			Shares:      p.Shares,
			Rate:        reconcile.EngagementRate(p),
			URL:         postURL(p.URN),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rate != out[j].Rate {
			return out[i].Rate > out[j].Rate
		}
		return out[i].Impressions > out[j].Impressions
	})

	if len(out) > b.maxPosts {
		out = out[:b.maxPosts]
	}
	return out
}

func postURL(urn string) string {
	if urn == "" {
		return ""
	}
	return "https://www.linkedin.com/feed/update/" + urn + "/"
}

func percent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

func truncate(s string, maxLen int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= maxLen {
		return string(r)
	}
	return string(r[:maxLen-3]) + "..."
}

func buildPlainText(data reportData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n%s\n\n", data.Title, data.Date)
	if data.Error != "" {
		fmt.Fprintf(&buf, "Error: %s\n\n", data.Error)
	}

	r := data.Run
	fmt.Fprintf(&buf, "Profile: %s (%d followers, %d connections)\n", data.Profile.Name, data.Profile.Followers, data.Profile.Connections)
	fmt.Fprintf(&buf, "Posts: %d scraped, %d new, %d updated\n", r.PostsScraped, r.Stats.PostsNew, r.Stats.PostsUpdated)
	fmt.Fprintf(&buf, "Profile views: %d, search appearances: %d\n", r.ProfileViews, r.SearchAppearances)
	fmt.Fprintf(&buf, "Duration: %s\n", r.Duration.Round(time.Second))

	if len(data.Posts) > 0 {
		buf.WriteString("\nTop posts\n")
	}
	for i, p := range data.Posts {
		fmt.Fprintf(&buf, "%d. [%s] %s\n", i+1, percent(p.Rate), p.Content)
		fmt.Fprintf(&buf, "   %d impressions, %d likes, %d comments, %d shares\n", p.Impressions, p.Likes, p.Comments, p.Shares)
		if p.URL != "" {
			fmt.Fprintf(&buf, "   %s\n", p.URL)
		}
	}

	if len(data.Audience) > 0 {
		buf.WriteString("\nAudience\n")
	}
	for _, d := range data.Audience {
		fmt.Fprintf(&buf, "- %s: %s %s\n", d.Category, d.Value, percent(d.Percentage/100))
	}

	return buf.String()
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 640px; margin: 0 auto; padding: 20px; background: #f3f2ef; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #0a66c2; margin-bottom: 5px; }
        h2 { color: #333; font-size: 16px; margin-top: 24px; }
        .date { color: #666; margin-bottom: 20px; }
        .error { background: #fdecea; color: #b3261e; padding: 10px; border-radius: 4px; }
        table { border-collapse: collapse; width: 100%; }
        td { padding: 4px 0; }
        td.n { text-align: right; font-weight: bold; }
        .post { border-bottom: 1px solid #eee; padding: 12px 0; }
        .post:last-child { border-bottom: none; }
        .content { margin: 6px 0; line-height: 1.4; }
        .metrics { color: #666; font-size: 13px; }
        .rate { color: #0a66c2; font-weight: bold; }
        .link { color: #0a66c2; text-decoration: none; }
        .footer { margin-top: 20px; padding-top: 15px; border-top: 1px solid #eee; color: #999; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <div class="date">{{.Date}}</div>
        {{if .Error}}<div class="error">{{.Error}}</div>{{end}}

        <h2>{{if .Profile.Name}}{{.Profile.Name}}{{else}}Profile{{end}}</h2>
        <table>
            <tr><td>Followers</td><td class="n">{{.Profile.Followers}}</td></tr>
            <tr><td>Connections</td><td class="n">{{.Profile.Connections}}</td></tr>
            <tr><td>Profile views</td><td class="n">{{.Run.ProfileViews}}</td></tr>
            <tr><td>Search appearances</td><td class="n">{{.Run.SearchAppearances}}</td></tr>
            <tr><td>Posts scraped</td><td class="n">{{.Run.PostsScraped}}</td></tr>
            <tr><td>New / updated posts</td><td class="n">{{.Run.Stats.PostsNew}} / {{.Run.Stats.PostsUpdated}}</td></tr>
            <tr><td>Comments saved</td><td class="n">{{.Run.Stats.CommentsSaved}}</td></tr>
        </table>

        {{if .Posts}}<h2>Top posts</h2>{{end}}
        {{range .Posts}}
        <div class="post">
            <div class="content">{{.Content}}</div>
            <div class="metrics"><span class="rate">{{percent .Rate}}</span> · {{.Impressions}} impressions · {{.Likes}} likes · {{.Comments}} comments · {{.Shares}} shares</div>
            {{if .URL}}<a href="{{.URL}}" class="link">View on LinkedIn →</a>{{end}}
        </div>
        {{end}}

        {{if .Audience}}<h2>Audience</h2>
        <table>
            {{range .Audience}}<tr><td>{{.Category}} · {{.Value}}</td><td class="n">{{.Percentage}}%</td></tr>{{end}}
        </table>{{end}}

        <div class="footer">Generated by lisync</div>
    </div>
</body>
</html>`

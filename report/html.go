package report

import (
	"html/template"
	"io"
	"time"
)

const distributionWidth = 300

const dashboardTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>MovieLens report</title>
<style>
body{font-family:Arial, sans-serif; margin:20px; background:#0b0f19; color:#e6e6e6;}
.card{background:#121a2a; border:1px solid #26324a; border-radius:12px; padding:16px; margin-bottom:16px;}
h1{margin:0 0 6px 0;}
.grid{display:grid; grid-template-columns:repeat(3,1fr); gap:12px;}
.kpi{font-size:22px; font-weight:bold;}
table{width:100%; border-collapse:collapse; margin-top:10px;}
th,td{border-bottom:1px solid #26324a; padding:8px; text-align:left;}
th{color:#b7c4ff;}
.muted{color:#9aa6bd;}
.track{background:#26324a; height:10px; border-radius:8px; overflow:hidden;}
.fill{height:10px; background:#7aa2ff;}
</style>
</head>
<body>
  <div class="card">
    <h1>MovieLens report (Hadoop streaming)</h1>
    <div class="muted">Generated {{.Generated}}</div>
  </div>

  <div class="grid">
    <div class="card"><div class="muted">Movies</div><div class="kpi">{{.Movies}}</div></div>
    <div class="card"><div class="muted">Ratings</div><div class="kpi">{{.Ratings}}</div></div>
    <div class="card"><div class="muted">Votes per movie (mean)</div><div class="kpi">{{.VotesPerMovie}}</div></div>
  </div>

  <div class="card">
    <h2>Rating distribution</h2>
    {{range .Distribution}}
    <div style="margin:8px 0">
      <div class="muted">{{.Stars}} stars - {{.Count}} ({{printf "%.2f" .Percent}}%)</div>
      <div class="track"><div class="fill" style="width:{{.Width}}px"></div></div>
    </div>
    {{end}}
  </div>

  <div class="card">
    <h2>Top {{len .Popular}} most popular movies</h2>
    <table><tr><th>Title</th><th>Votes</th><th>Mean rating</th></tr>
    {{range .Popular}}<tr><td>{{.Title}}</td><td>{{.Count}}</td><td>{{printf "%.2f" .Avg}}</td></tr>
    {{end}}</table>
  </div>

  <div class="card">
    <h2>Top {{len .TopRated}} best rated movies (min {{.MinVotes}} votes)</h2>
    <table><tr><th>Title</th><th>Mean rating</th><th>Votes</th></tr>
    {{range .TopRated}}<tr><td>{{.Title}}</td><td>{{printf "%.2f" .Avg}}</td><td>{{.Count}}</td></tr>
    {{end}}</table>
  </div>
{{if .GenreMovies}}
  <div class="card">
    <h2>Movies per genre</h2>
    <table><tr><th>Genre</th><th>Movies</th></tr>
    {{range .GenreMovies}}<tr><td>{{.Label}}</td><td>{{.Count}}</td></tr>
    {{end}}</table>
  </div>
{{end}}{{if .ActiveUsers}}
  <div class="card">
    <h2>Most active users</h2>
    <table><tr><th>User</th><th>Votes</th><th>Mean rating</th></tr>
    {{range .ActiveUsers}}<tr><td>{{.UserID}}</td><td>{{.Count}}</td><td>{{printf "%.2f" .Avg}}</td></tr>
    {{end}}</table>
  </div>
{{end}}</body>
</html>
`

var dashboard = template.Must(template.New("dashboard").Parse(dashboardTemplate))

type htmlBucket struct {
	Bucket
	Width int
}

type htmlView struct {
	*Report
	Generated    string
	Distribution []htmlBucket
}

// RenderHTML writes the dashboard page. Titles are escaped by the template.
func RenderHTML(w io.Writer, r *Report) error {
	view := htmlView{
		Report:    r,
		Generated: r.Generated.Format(time.DateTime),
	}
	vmax := 1
	for _, b := range r.Distribution {
		vmax = max(vmax, b.Count)
	}
	for _, b := range r.Distribution {
		view.Distribution = append(view.Distribution, htmlBucket{Bucket: b, Width: b.Count * distributionWidth / vmax})
	}
	return dashboard.Execute(w, view)
}

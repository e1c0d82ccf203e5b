package web

import (
	"html/template"
	"io"
	"strconv"
	"time"

	"aprScope/internal/chrome"
	"aprScope/internal/dashboard"
	"aprScope/internal/format"
	"aprScope/internal/model"
)

type windowOption struct {
	Value    model.Window
	Label    string
	Selected bool
}

type pairOption struct {
	dashboard.PairOption
	Selected bool
}

type pairPanel struct {
	Loading    bool
	Error      string
	Symbols    string
	ReserveUSD string
	VolumeUSD  string
	Updated    string
}

type healthBadge struct {
	Loading bool
	Healthy bool
	Detail  string
}

type pageData struct {
	Title    string
	Header   chrome.Header
	Nav      []chrome.NavEntry
	Pairs    []pairOption
	Windows  []windowOption
	Model    dashboard.Model
	Details  []pointDetail
	Pair     pairPanel
	Health   healthBadge
	ChartURL string
}

type pointDetail struct {
	Number    int
	Time      string
	APR       string
	Fees      string
	Liquidity string
}

func buildPage(path string, snap dashboard.Snapshot, hs healthBadge, loc *time.Location) pageData {
	pairs := make([]pairOption, 0, len(snap.Pairs))
	for _, p := range snap.Pairs {
		pairs = append(pairs, pairOption{PairOption: p, Selected: p.Address == snap.Selection.Pair.Address})
	}
	windows := make([]windowOption, 0, len(model.Windows))
	for _, w := range model.Windows {
		windows = append(windows, windowOption{Value: w, Label: w.Label(), Selected: w == snap.Selection.Window})
	}

	details := make([]pointDetail, 0, len(snap.Model.ChartData))
	for _, p := range snap.Model.ChartData {
		details = append(details, pointDetail{
			Number:    p.Index + 1,
			Time:      p.FormattedTime,
			APR:       format.CompactAPR(p.APR),
			Fees:      format.CompactNumber(p.FeesUSD),
			Liquidity: format.CompactNumber(p.ReserveUSD),
		})
	}

	panel := pairPanel{Loading: snap.Pair.Loading, Error: snap.Pair.ErrorMessage()}
	if s := snap.Pair.Data; s != nil {
		if s.Token0Symbol != "" || s.Token1Symbol != "" {
			panel.Symbols = s.Token0Symbol + "/" + s.Token1Symbol
		}
		panel.ReserveUSD = format.CompactNumber(s.ReserveUSD)
		panel.VolumeUSD = format.CompactNumber(s.VolumeUSD)
		panel.Updated = format.Timestamp(s.Timestamp, loc)
	}

	return pageData{
		Title:    "APR Analysis Dashboard",
		Header:   chrome.NewHeader("Dashboard"),
		Nav:      chrome.Nav(path),
		Pairs:    pairs,
		Windows:  windows,
		Model:    snap.Model,
		Details:  details,
		Pair:     panel,
		Health:   hs,
		ChartURL: "/dashboard/chart.png?g=" + strconv.FormatUint(snap.APR.Generation, 10),
	}
}

func renderPage(w io.Writer, data pageData) error {
	return pageTemplate.Execute(w, data)
}

var pageTemplate = template.Must(template.New("dashboard").Parse(dashboardHTML))

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  {{- if or (eq .Model.Status "loading") .Pair.Loading}}
  <meta http-equiv="refresh" content="2" />
  {{- end}}
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; display: flex; height: 100vh; background: #f9fafb; color: #333335;
      font-family: Inter, -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; }
    aside { width: 63px; padding: 20px 0; background: #fff; border-right: 1px solid #e5e7eb;
      display: flex; flex-direction: column; align-items: center; gap: 20px; }
    aside a, aside span { width: 40px; height: 40px; border-radius: 8px; display: flex;
      align-items: center; justify-content: center; font-size: 11px; color: #4b5563; text-decoration: none; }
    aside a.active { background: #dbeafe; color: #2e71f0; }
    aside span.disabled { color: #9ca3af; cursor: not-allowed; }
    .main { flex: 1; display: flex; flex-direction: column; min-width: 0; }
    header { height: 64px; padding: 0 40px; display: flex; align-items: center; justify-content: space-between;
      background: #fff; border-bottom: 1px solid #e5e7eb; }
    header h1 { font-size: 20px; margin: 0; }
    header input { width: 300px; padding: 8px 12px; border: 1px solid #d1d5db; border-radius: 8px; }
    .content { flex: 1; overflow-y: auto; padding: 40px; }
    .controls label { display: block; font-size: 14px; font-weight: 500; margin-bottom: 8px; }
    .controls select { width: 100%; padding: 8px 12px; border: 1px solid #d1d5db; border-radius: 8px; }
    .windows { display: flex; gap: 12px; margin: 16px 0 24px; }
    .windows button { padding: 8px 24px; border: 1px solid #d1d5db; border-radius: 8px; background: #fff; }
    .windows button.selected { background: #3b82f6; color: #fff; border-color: #3b82f6; }
    .cards { display: grid; grid-template-columns: repeat(4, 1fr); gap: 16px; margin-bottom: 24px; }
    .card { background: #fff; padding: 16px; border: 1px solid #e5e7eb; border-radius: 8px; }
    .card h3 { font-size: 14px; color: #4b5563; margin: 0 0 4px; font-weight: 400; }
    .card p { margin: 0 0 4px; }
    .card .value { font-size: 18px; font-weight: 700; color: #111827; }
    .green { color: #16a34a; } .red { color: #dc2626; } .gray { color: #4b5563; }
    .panel { background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; padding: 24px; margin-bottom: 16px; }
    .state { height: 384px; display: flex; flex-direction: column; align-items: center; justify-content: center; }
    .info { display: flex; justify-content: space-between; font-size: 14px; color: #4b5563; margin-bottom: 16px; }
    .badge { font-size: 12px; padding: 4px 10px; border-radius: 9999px; }
    .badge.ok { background: #dcfce7; color: #166534; } .badge.down { background: #fee2e2; color: #991b1b; }
    .badge.pending { background: #f3f4f6; color: #4b5563; }
    table { width: 100%; border-collapse: collapse; font-size: 12px; }
    th, td { text-align: left; padding: 4px 8px; border-bottom: 1px solid #f3f4f6; }
    img.chart { width: 100%; height: auto; }
  </style>
</head>
<body>
  <aside>
    {{- range .Nav}}
    {{- if .Disabled}}
    <span class="disabled" title="{{.Title}}">{{.Name}}</span>
    {{- else}}
    <a href="{{.Path}}" title="{{.Title}}"{{if .Active}} class="active"{{end}}>{{.Name}}</a>
    {{- end}}
    {{- end}}
  </aside>
  <div class="main">
    <header>
      <h1>{{.Header.Title}}</h1>
      <div>
        {{- if .Health.Loading}}
        <span class="badge pending">Checking backend…</span>
        {{- else if .Health.Healthy}}
        <span class="badge ok">Backend healthy</span>
        {{- else}}
        <span class="badge down" title="{{.Health.Detail}}">Backend unavailable</span>
        {{- end}}
        <input type="text" placeholder="{{.Header.Placeholder}}" />
      </div>
    </header>
    <div class="content">
      <form class="controls" method="post" action="/dashboard/select">
        <label for="pair">Select Uniswap V2 Pair</label>
        <select id="pair" name="pair" onchange="this.form.submit()">
          {{- range .Pairs}}
          <option value="{{.Address}}"{{if .Selected}} selected{{end}}>{{.Name}}</option>
          {{- end}}
        </select>
        <label style="margin-top:16px">Moving Average Window</label>
        <div class="windows">
          {{- range .Windows}}
          <button type="submit" name="window" value="{{.Value}}"{{if .Selected}} class="selected"{{end}}>{{.Label}}</button>
          {{- end}}
        </div>
      </form>

      {{- with .Model.Cards}}
      <div class="cards">
        {{- range .}}
        <div class="card">
          <h3>{{.Title}}</h3>
          <p class="value">{{.Value}}</p>
          {{- if .Change}}
          <p class="{{.Color}}">{{.Change}}</p>
          {{- end}}
        </div>
        {{- end}}
      </div>
      {{- end}}

      <div class="panel">
        {{- if eq .Model.Status "loading"}}
        <div class="state"><p class="gray">Loading APR data...</p></div>
        {{- else if eq .Model.Status "error"}}
        <div class="state">
          <p class="red">Error loading data:</p>
          <p class="gray">{{.Model.Error}}</p>
          <form method="post" action="/dashboard/refetch"><button type="submit">Try Again</button></form>
        </div>
        {{- else if eq .Model.Status "empty"}}
        <div class="state"><p class="gray">No APR data available</p></div>
        {{- else}}
        <div class="info">
          <span>{{.Model.Info.Summary}}</span>
          <span>Latest: {{.Model.Info.Latest}}</span>
        </div>
        <img class="chart" src="{{.ChartURL}}" alt="APR chart" />
        <table>
          <thead><tr><th>#</th><th>Time</th><th>APR</th><th>Fees</th><th>Liquidity</th></tr></thead>
          <tbody>
            {{- range .Details}}
            <tr><td>{{.Number}}</td><td>{{.Time}}</td><td>{{.APR}}</td><td>{{.Fees}}</td><td>{{.Liquidity}}</td></tr>
            {{- end}}
          </tbody>
        </table>
        {{- end}}
      </div>

      <div class="panel">
        <h3>Pair snapshot</h3>
        {{- if .Pair.Loading}}
        <p class="gray">Loading pair data...</p>
        {{- else if .Pair.Error}}
        <p class="red">{{.Pair.Error}}</p>
        {{- else}}
        {{- if .Pair.Symbols}}<p>{{.Pair.Symbols}}</p>{{end}}
        <p>Reserve: {{.Pair.ReserveUSD}} · Volume: {{.Pair.VolumeUSD}} · Updated: {{.Pair.Updated}}</p>
        {{- end}}
      </div>
    </div>
  </div>
</body>
</html>
`

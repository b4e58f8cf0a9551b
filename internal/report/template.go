package report

// ReportTemplate is the HTML template for the crowd sentiment report.
// It is embedded as a Go constant — no external file dependencies.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1, h2, h3 { font-weight: 600; }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 16px 0 8px; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-right { text-align: right; }

  .stat-bar {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(140px, 1fr));
    gap: 8px;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
    margin-bottom: 16px;
  }
  .stat-item { text-align: center; }
  .stat-item .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .stat-item .value { font-size: 1rem; font-weight: 600; }
  .positive { color: var(--green); }
  .negative { color: var(--red); }

  .gauge-box { display: flex; align-items: center; gap: 24px; margin: 12px 0; }
  .gauge-label { font-size: 1.3rem; font-weight: 700; }

  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); }
  .bar-cell { min-width: 120px; }
  .bar {
    display: inline-block;
    height: 10px;
    background: var(--accent);
    border-radius: 2px;
    vertical-align: middle;
  }
  .error-tag { color: var(--red); font-size: 0.8rem; }

  .news-item { padding: 6px 0; border-bottom: 1px solid var(--border); }
  .news-item .source { color: var(--muted); font-size: 0.8rem; }

  .footer {
    margin-top: 24px;
    padding-top: 12px;
    border-top: 1px solid var(--border);
    color: var(--muted);
    font-size: 0.8rem;
  }
  @media print { body { padding: 0; } }
</style>
</head>
<body>

<div class="header">
  <div>
    <h1>{{.Title}}</h1>
    <p class="muted">Period: {{.Period}} &middot; {{.InvestorCount}} investors collected{{if .ErrorCount}} &middot; <span class="error-tag">{{.ErrorCount}} fetch errors</span>{{end}}</p>
  </div>
  <div class="header-right">
    <p class="muted">Generated {{.GeneratedAt}}</p>
    <p class="muted">{{.Author}}</p>
  </div>
</div>

{{range .Bands}}
<h2>Top {{.BandSize}} Popular Investors</h2>

<div class="gauge-box">
  {{.Gauge}}
  <div>
    <div class="gauge-label">{{.FearGreedLabel}}</div>
    <p class="muted">Fear &amp; greed index {{.FearGreedIndex}} — derived from an average cash allocation of {{.AvgCashPct}}</p>
  </div>
</div>

<div class="stat-bar">
  <div class="stat-item"><div class="label">Avg Cash</div><div class="value">{{.AvgCashPct}}</div></div>
  <div class="stat-item"><div class="label">Avg Instruments</div><div class="value">{{.AvgUniqueInstruments}}</div></div>
  <div class="stat-item"><div class="label">Avg Gain</div><div class="value {{.AvgGainClass}}">{{.AvgGain}}</div></div>
  <div class="stat-item"><div class="label">Avg Risk</div><div class="value">{{.AvgRiskScore}}</div></div>
  <div class="stat-item"><div class="label">Avg Trades</div><div class="value">{{.AvgTrades}}</div></div>
  <div class="stat-item"><div class="label">Avg Win Ratio</div><div class="value">{{.AvgWinRatio}}</div></div>
</div>

<h3>Most Held Instruments</h3>
<table>
  <tr><th>#</th><th>Instrument</th><th>Holders</th><th>Avg Allocation</th><th>Day</th><th>Week</th><th>Month</th></tr>
  {{range .TopHoldings}}
  <tr>
    <td>{{.Rank}}</td>
    <td>{{.Name}}</td>
    <td>{{.Holders}}</td>
    <td>{{.AvgAllocation}}</td>
    <td class="{{.DayClass}}">{{.PriorDay}}</td>
    <td class="{{.WeekClass}}">{{.Week}}</td>
    <td class="{{.MonthClass}}">{{.Month}}</td>
  </tr>
  {{end}}
</table>

<h3>Top Performers</h3>
<table>
  <tr><th>#</th><th>Investor</th><th>Copiers</th><th>Gain</th><th>Risk</th><th>Cash</th><th>Instruments</th><th>Win Ratio</th></tr>
  {{range .TopPerformers}}
  <tr>
    <td>{{.Rank}}</td>
    <td>{{.Name}}{{if .FetchError}} <span class="error-tag" title="{{.FetchError}}">!</span>{{end}}</td>
    <td>{{.Copiers}}</td>
    <td class="{{.GainClass}}">{{.Gain}}</td>
    <td>{{.RiskScore}}</td>
    <td>{{.CashPct}}</td>
    <td>{{.UniqueInstruments}}</td>
    <td>{{.WinRatio}}</td>
  </tr>
  {{end}}
</table>

<h3>Distributions</h3>
{{range .Distributions}}
<table>
  <tr><th>{{.Title}}</th><th>Investors</th><th class="bar-cell"></th></tr>
  {{range .Rows}}
  <tr><td>{{.Label}}</td><td>{{.Count}}</td><td class="bar-cell"><span class="bar" style="width:{{.BarWidth}}px"></span></td></tr>
  {{end}}
</table>
{{end}}
{{end}}

{{if .News}}
<h2>Market News</h2>
{{range .News}}
<div class="news-item">
  <a href="{{.Link}}">{{.Title}}</a>
  <div class="source">{{.Source}}{{if .Published}} &middot; {{.Published}}{{end}}</div>
</div>
{{end}}
{{end}}

<div class="footer">
  Data collected from public popular-investor portfolios. Percentages are
  of each investor's equity; failed portfolio fetches count as fully in
  cash and are flagged. Not investment advice.
</div>

</body>
</html>`

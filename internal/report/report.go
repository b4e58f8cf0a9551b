// Package report renders a collection snapshot as a static HTML page
// (one section per band) or as a plain-text summary for the CLI. It is a
// consumer of the analysis output; nothing here feeds back into the
// pipeline.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/crowdfolio/crowdfolio/internal/analysis"
	"github.com/crowdfolio/crowdfolio/internal/news"
	"github.com/crowdfolio/crowdfolio/internal/snapshot"
)

const (
	// topHoldingsRows / topPerformerRows bound table sizes in the HTML
	// report; the JSON snapshot always keeps the full lists.
	topHoldingsRows  = 25
	topPerformerRows = 25

	// distBarMaxWidth is the widest distribution bar in pixels.
	distBarMaxWidth = 120
)

// Config controls report generation.
type Config struct {
	Title  string
	Author string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Title:  "Popular Investor Crowd Report",
		Author: "crowdfolio",
	}
}

// --- Template model ---

// ReportData is the template model passed to the HTML template.
type ReportData struct {
	Title         string
	Period        string
	InvestorCount int
	ErrorCount    int
	GeneratedAt   string
	Author        string
	Bands         []BandSection
	News          []NewsRow
}

// BandSection is one band's flattened section.
type BandSection struct {
	BandSize             int
	Gauge                template.HTML
	FearGreedIndex       string
	FearGreedLabel       string
	AvgCashPct           string
	AvgUniqueInstruments string
	AvgGain              string
	AvgGainClass         string
	AvgRiskScore         string
	AvgTrades            string
	AvgWinRatio          string
	TopHoldings          []HoldingRow
	TopPerformers        []PerformerRow
	Distributions        []DistTable
}

// HoldingRow is one instrument row.
type HoldingRow struct {
	Rank          int
	Name          string
	Holders       int
	AvgAllocation string
	PriorDay      string
	DayClass      string
	Week          string
	WeekClass     string
	Month         string
	MonthClass    string
}

// PerformerRow is one investor row.
type PerformerRow struct {
	Rank              int
	Name              string
	Copiers           int
	Gain              string
	GainClass         string
	RiskScore         int
	CashPct           string
	UniqueInstruments int
	WinRatio          string
	FetchError        string
}

// DistTable is one rendered distribution.
type DistTable struct {
	Title string
	Rows  []DistRow
}

// DistRow is one histogram bar.
type DistRow struct {
	Label    string
	Count    int
	BarWidth int
}

// NewsRow is one headline in the sidebar.
type NewsRow struct {
	Title     string
	Link      string
	Source    string
	Published string
}

// --- Generation ---

// GenerateHTML renders the snapshot (and optional news headlines) as a
// standalone HTML page.
func GenerateHTML(snap *snapshot.Snapshot, headlines []news.Article, cfg Config) (string, error) {
	if snap == nil {
		return "", fmt.Errorf("report: snapshot is nil")
	}

	data := buildReportData(snap, headlines, cfg)

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// GenerateText renders a terminal-friendly summary of the snapshot.
func GenerateText(snap *snapshot.Snapshot, cfg Config) (string, error) {
	if snap == nil {
		return "", fmt.Errorf("report: snapshot is nil")
	}
	data := buildReportData(snap, nil, cfg)
	return renderTextReport(data), nil
}

func buildReportData(snap *snapshot.Snapshot, headlines []news.Article, cfg Config) ReportData {
	data := ReportData{
		Title:         cfg.Title,
		Period:        string(snap.Period),
		InvestorCount: len(snap.Investors),
		ErrorCount:    snap.ErrorCount,
		GeneratedAt:   time.Now().UTC().Format("02 Jan 2006 15:04 UTC"),
		Author:        cfg.Author,
	}
	if data.Title == "" {
		data.Title = DefaultConfig().Title
	}

	for _, ba := range snap.Analyses {
		data.Bands = append(data.Bands, buildBandSection(ba))
	}

	for _, a := range headlines {
		row := NewsRow{Title: a.Title, Link: a.Link, Source: a.Source}
		if !a.Published.IsZero() {
			row.Published = a.Published.UTC().Format("02 Jan 15:04")
		}
		data.News = append(data.News, row)
	}
	return data
}

func buildBandSection(ba analysis.BandAnalysis) BandSection {
	a := ba.Analysis
	sec := BandSection{
		BandSize:             ba.BandSize,
		Gauge:                template.HTML(GaugeChart(a.FearGreedIndex, "Fear & Greed", 180)),
		FearGreedIndex:       fmt.Sprintf("%.0f", a.FearGreedIndex),
		FearGreedLabel:       a.FearGreedLabel,
		AvgCashPct:           formatPct(a.AvgCashPct),
		AvgUniqueInstruments: fmt.Sprintf("%.1f", a.AvgUniqueInstruments),
		AvgGain:              formatPct(a.AvgGain),
		AvgGainClass:         signClass(a.AvgGain),
		AvgRiskScore:         fmt.Sprintf("%.1f", a.AvgRiskScore),
		AvgTrades:            fmt.Sprintf("%.0f", a.AvgTrades),
		AvgWinRatio:          formatPct(a.AvgWinRatio),
	}

	for i, h := range a.Holdings {
		if i == topHoldingsRows {
			break
		}
		name := h.Name
		if name == "" {
			name = fmt.Sprintf("Instrument %d", h.InstrumentID)
		} else if h.Symbol != "" {
			name = fmt.Sprintf("%s (%s)", name, h.Symbol)
		}
		sec.TopHoldings = append(sec.TopHoldings, HoldingRow{
			Rank:          i + 1,
			Name:          name,
			Holders:       h.Holders,
			AvgAllocation: formatPct(h.AvgAllocation),
			PriorDay:      formatPct(h.PriorDayPct),
			DayClass:      signClass(h.PriorDayPct),
			Week:          formatPct(h.WeekPct),
			WeekClass:     signClass(h.WeekPct),
			Month:         formatPct(h.MonthPct),
			MonthClass:    signClass(h.MonthPct),
		})
	}

	for i, p := range a.Performers {
		if i == topPerformerRows {
			break
		}
		name := p.Username
		if p.FullName != "" {
			name = fmt.Sprintf("%s (@%s)", p.FullName, p.Username)
		}
		sec.TopPerformers = append(sec.TopPerformers, PerformerRow{
			Rank:              i + 1,
			Name:              name,
			Copiers:           p.Copiers,
			Gain:              formatPct(p.Gain),
			GainClass:         signClass(p.Gain),
			RiskScore:         p.RiskScore,
			CashPct:           formatPct(p.CashPct),
			UniqueInstruments: p.UniqueInstruments,
			WinRatio:          formatPct(p.WinRatio),
			FetchError:        p.FetchError,
		})
	}

	sec.Distributions = []DistTable{
		buildDistTable("Cash Allocation", a.CashDist),
		buildDistTable("Gain", a.GainDist),
		buildDistTable("Risk Score", a.RiskDist),
		buildDistTable("Distinct Instruments", a.InstrumentsDist),
	}
	return sec
}

func buildDistTable(title string, d analysis.Distribution) DistTable {
	t := DistTable{Title: title}
	max := 0
	for _, b := range d.Buckets {
		if b.Count > max {
			max = b.Count
		}
	}
	for _, b := range d.Buckets {
		width := 0
		if max > 0 {
			width = b.Count * distBarMaxWidth / max
		}
		t.Rows = append(t.Rows, DistRow{Label: b.Label, Count: b.Count, BarWidth: width})
	}
	return t
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func signClass(v float64) string {
	switch {
	case v > 0:
		return "positive"
	case v < 0:
		return "negative"
	default:
		return ""
	}
}

// --- Plain-text renderer ---

func renderTextReport(d ReportData) string {
	var sb strings.Builder
	line := strings.Repeat("═", 64)
	thinLine := strings.Repeat("─", 64)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Title))
	sb.WriteString(fmt.Sprintf("  Period: %s | Investors: %d | Errors: %d\n", d.Period, d.InvestorCount, d.ErrorCount))
	sb.WriteString(fmt.Sprintf("  Generated: %s\n", d.GeneratedAt))
	sb.WriteString(line + "\n")

	for _, band := range d.Bands {
		sb.WriteString(fmt.Sprintf("\n  ■ TOP %d\n", band.BandSize))
		sb.WriteString(fmt.Sprintf("  Fear/Greed: %s (%s) | Avg Cash: %s | Avg Gain: %s | Avg Risk: %s\n",
			band.FearGreedIndex, band.FearGreedLabel, band.AvgCashPct, band.AvgGain, band.AvgRiskScore))
		sb.WriteString(thinLine + "\n")

		sb.WriteString("  Most held:\n")
		for i, h := range band.TopHoldings {
			if i == 10 {
				break
			}
			sb.WriteString(fmt.Sprintf("    %2d. %-32s %4d holders  avg %s\n", h.Rank, h.Name, h.Holders, h.AvgAllocation))
		}
		sb.WriteString(thinLine + "\n")
	}

	sb.WriteString("\n" + line + "\n")
	return sb.String()
}

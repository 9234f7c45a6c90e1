// Package renderer turns a run's results into the markdown command
// center report.
package renderer

import (
	"bytes"
	"fmt"
	"sort"

	md "github.com/nao1215/markdown"
	"github.com/oakledger/tickbook"
	"github.com/shopspring/decimal"
)

const notApplicable = "NA"

// fmtPct renders a fractional return (0.05 is five percent) for display.
func fmtPct(v float64, ok bool) string {
	if !ok {
		return notApplicable
	}
	return tickbook.Percent(v * 100).SignedString()
}

// fmtDiff renders a ledger diff, already a fraction, for display.
func fmtDiff(v decimal.Decimal) string {
	return tickbook.Percent(v.InexactFloat64() * 100).SignedString()
}

// ReportMarkdown renders one invocation's snapshot, rankings, ledger
// summary and diagnostics as a markdown document.
func ReportMarkdown(result *tickbook.RunResult) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	snap := result.Snapshot
	doc.H1("Command Center")

	if snap != nil {
		doc.Table(md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
			Header:    []string{md.Bold("As Of"), snap.AsOf.String()},
			Rows: [][]string{
				{"Portfolio Value", snap.PortfolioValue.String()},
			},
		})

		renderRankings(doc, snap)
		renderAnalytics(doc, snap)
		renderRotation(doc, snap)
	}

	renderLedgerAlpha(doc, result.LedgerAlpha)
	renderBackfill(doc, result.Backfill)
	renderDiagnostics(doc, result.Diagnostics)

	return doc.String()
}

func renderRankings(doc *md.Markdown, snap *tickbook.Snapshot) {
	if len(snap.Rankings) == 0 {
		return
	}
	doc.H2("Momentum Rankings")
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignRight, md.AlignRight,
			md.AlignLeft, md.AlignLeft, md.AlignLeft,
		},
		Header: []string{"Ticker", "Score", "Alpha vs Proxy", "Proxy", "Sleeve", "Status"},
	}
	for _, r := range snap.Rankings {
		table.Rows = append(table.Rows, []string{
			r.Ticker,
			fmtPct(r.Score, r.ScoreOK),
			fmtPct(r.Alpha, r.AlphaOK),
			r.Proxy,
			r.Sleeve,
			r.Status(),
		})
	}
	doc.Table(table)
}

func renderAnalytics(doc *md.Markdown, snap *tickbook.Snapshot) {
	if len(snap.Analytics) == 0 {
		return
	}
	doc.H2("Activated Tickers")
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignLeft, md.AlignRight,
			md.AlignRight, md.AlignLeft,
		},
		Header: []string{"Ticker", "Baseline", "Alpha", "Correlation", "Review"},
	}
	for _, a := range snap.Analytics {
		corr := notApplicable
		if a.CorrelationOK {
			corr = fmt.Sprintf("%.3f", a.Correlation)
		}
		table.Rows = append(table.Rows, []string{
			a.Ticker,
			a.Baseline,
			fmtPct(a.Alpha, a.AlphaOK),
			corr,
			a.ReviewLabel(),
		})
	}
	doc.Table(table)
}

func renderRotation(doc *md.Markdown, snap *tickbook.Snapshot) {
	rot := snap.Rotation
	if rot.Trim == "" && rot.Buy == "" {
		return
	}
	doc.H2("Rotation")
	if rot.Trim != "" {
		doc.BulletList(fmt.Sprintf("Trim candidate: %s", md.Bold(rot.Trim)))
	}
	if rot.Buy != "" {
		doc.BulletList(fmt.Sprintf("Buy candidate: %s", md.Bold(rot.Buy)))
	}
}

func renderLedgerAlpha(doc *md.Markdown, alpha map[string]decimal.Decimal) {
	if len(alpha) == 0 {
		return
	}
	baselines := make([]string, 0, len(alpha))
	for b := range alpha {
		baselines = append(baselines, b)
	}
	sort.Strings(baselines)

	doc.H2("Ledger Alpha")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Baseline", "Alpha Since Base"},
	}
	for _, b := range baselines {
		table.Rows = append(table.Rows, []string{b, fmtDiff(alpha[b])})
	}
	doc.Table(table)
}

func renderBackfill(doc *md.Markdown, report *tickbook.BackfillReport) {
	if report == nil {
		return
	}
	if len(report.Completed) == 0 && len(report.Unfinished) == 0 && len(report.Merged) == 0 {
		return
	}
	doc.H2("Backfill")
	total := 0
	for _, n := range report.Merged {
		total += n
	}
	items := []string{fmt.Sprintf("%d rows merged across %d tickers", total, len(report.Merged))}
	if len(report.Completed) > 0 {
		items = append(items, fmt.Sprintf("%d tickers reached full coverage", len(report.Completed)))
	}
	if len(report.Unfinished) > 0 {
		items = append(items, fmt.Sprintf("%d tickers deferred to the next run", len(report.Unfinished)))
	}
	doc.BulletList(items...)
}

func renderDiagnostics(doc *md.Markdown, diags []tickbook.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	doc.H2("Diagnostics")
	items := make([]string, 0, len(diags))
	for _, d := range diags {
		items = append(items, d.String())
	}
	doc.BulletList(items...)
}

package salary

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

// Fixed report texts for missing data.
const (
	NoDataNarrative       = "No salary data found for the specified criteria."
	NoDataTable           = "No data available"
	InsufficientNarrative = "Insufficient data for market analysis."
)

var reportHeaders = []string{"Source", "Company", "Min Salary", "Max Salary", "Average Salary"}

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// ComposeReport renders records into a SalaryReport. It is deterministic:
// identical inputs give byte-identical output.
func ComposeReport(q StructuredQuery, records []SalaryRecord) SalaryReport {
	slog.Info("composing report", slog.Int("records", len(records)))

	report := SalaryReport{
		JobTitle:        q.JobTitle,
		Location:        q.Location,
		ExperienceLevel: q.ExperienceLevel,
		Records:         slices.Clone(records),
	}
	if len(records) == 0 {
		report.Records = []SalaryRecord{}
		report.NarrativeInsights = NoDataNarrative
		report.TabularSummary = NoDataTable
		return report
	}

	report.TabularSummary = renderTable(records)
	report.Stats = ComputeStats(SalaryPool(records))
	report.NarrativeInsights = renderNarrative(q, records, report.Stats)
	return report
}

// SalaryPool flattens records into data points: min and max when both are
// known, else the average when known, else nothing.
func SalaryPool(records []SalaryRecord) []float64 {
	var pool []float64
	for _, r := range records {
		switch {
		case r.MinSalary != nil && r.MaxSalary != nil:
			pool = append(pool, *r.MinSalary, *r.MaxSalary)
		case r.AverageSalary != nil:
			pool = append(pool, *r.AverageSalary)
		}
	}
	return pool
}

// ComputeStats returns count, mean, min and max of pool, or nil when empty.
func ComputeStats(pool []float64) *SalaryStats {
	if len(pool) == 0 {
		return nil
	}
	var sum float64
	for _, v := range pool {
		sum += v
	}
	return &SalaryStats{
		Count: len(pool),
		Mean:  sum / float64(len(pool)),
		Min:   slices.Min(pool),
		Max:   slices.Max(pool),
	}
}

func renderTable(records []SalaryRecord) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(true).
		Headers(reportHeaders...).
		StyleFunc(func(_, _ int) lipgloss.Style { return cellStyle })
	for _, r := range records {
		company := "N/A"
		if r.Company != nil {
			company = *r.Company
		}
		t.Row(r.Source, company,
			formatAmount(r.Currency, r.MinSalary),
			formatAmount(r.Currency, r.MaxSalary),
			formatAmount(r.Currency, r.AverageSalary))
	}
	return t.String()
}

func formatAmount(currency string, v *float64) string {
	if v == nil {
		return "N/A"
	}
	return currency + " " + commaf(*v)
}

func commaf(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func renderNarrative(q StructuredQuery, records []SalaryRecord, stats *SalaryStats) string {
	if stats == nil {
		return InsufficientNarrative
	}

	currencies := recordCurrencies(records)
	money := commaf
	if len(currencies) == 1 {
		money = func(v float64) string { return currencies[0] + " " + commaf(v) }
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Market Analysis for %s in %s (%s)\n\n", q.JobTitle, q.Location, q.ExperienceLevel)
	fmt.Fprintf(&sb, "• Average Market Salary: %s\n", money(stats.Mean))
	fmt.Fprintf(&sb, "• Salary Range: %s - %s\n", money(stats.Min), money(stats.Max))
	fmt.Fprintf(&sb, "• Data Sources: %d sources analyzed\n", len(records))
	fmt.Fprintf(&sb, "• Based on %d salary data points", stats.Count)
	if len(currencies) > 1 {
		fmt.Fprintf(&sb, "\n• Note: figures mix currencies (%s) and are not converted", strings.Join(currencies, ", "))
	}
	return sb.String()
}

// recordCurrencies returns the sorted distinct currencies of records.
func recordCurrencies(records []SalaryRecord) []string {
	var out []string
	for _, r := range records {
		if !slices.Contains(out, r.Currency) {
			out = append(out, r.Currency)
		}
	}
	slices.Sort(out)
	return out
}

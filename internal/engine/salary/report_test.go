package salary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeReportEmpty(t *testing.T) {
	got := ComposeReport(pune, nil)
	assert.Equal(t, NoDataNarrative, got.NarrativeInsights)
	assert.Equal(t, NoDataTable, got.TabularSummary)
	assert.NotNil(t, got.Records)
	assert.Empty(t, got.Records)
	assert.Nil(t, got.Stats)
	assert.Equal(t, "Data Engineer", got.JobTitle)
	assert.Equal(t, "Pune", got.Location)
	assert.Equal(t, "5 years", got.ExperienceLevel)
}

func TestComposeReportStats(t *testing.T) {
	records := []SalaryRecord{
		{MinSalary: f64(80000), MaxSalary: f64(120000), Currency: "USD", Source: "Glassdoor", Company: str("Acme")},
		{AverageSalary: f64(95000), Currency: "USD", Source: "Levels"},
	}
	got := ComposeReport(pune, records)

	require.NotNil(t, got.Stats)
	assert.Equal(t, 3, got.Stats.Count)
	assert.InDelta(t, 98333.33, got.Stats.Mean, 0.01)
	assert.InDelta(t, 80000, got.Stats.Min, 0)
	assert.InDelta(t, 120000, got.Stats.Max, 0)

	assert.Contains(t, got.NarrativeInsights, "Market Analysis for Data Engineer in Pune (5 years)")
	assert.Contains(t, got.NarrativeInsights, "Average Market Salary: USD 98,333")
	assert.Contains(t, got.NarrativeInsights, "Salary Range: USD 80,000 - USD 120,000")
	assert.Contains(t, got.NarrativeInsights, "2 sources analyzed")
	assert.Contains(t, got.NarrativeInsights, "Based on 3 salary data points")

	for _, cell := range []string{"Source", "Average Salary", "Glassdoor", "Acme", "USD 80,000", "USD 120,000", "USD 95,000", "N/A"} {
		assert.Contains(t, got.TabularSummary, cell)
	}
	assert.Len(t, got.Records, 2)
}

func TestComposeReportPoolRules(t *testing.T) {
	records := []SalaryRecord{
		{MinSalary: f64(50000), AverageSalary: f64(60000), Currency: "USD", Source: "a"},
		{MinSalary: f64(40000), Currency: "USD", Source: "b"},
	}
	pool := SalaryPool(records)
	assert.Equal(t, []float64{60000}, pool)
}

func TestComposeReportInsufficient(t *testing.T) {
	records := []SalaryRecord{{MinSalary: f64(40000), Currency: "USD", Source: "Indeed"}}
	got := ComposeReport(pune, records)
	assert.Nil(t, got.Stats)
	assert.Equal(t, InsufficientNarrative, got.NarrativeInsights)
	assert.Contains(t, got.TabularSummary, "Indeed")
}

func TestComposeReportMixedCurrencies(t *testing.T) {
	records := []SalaryRecord{
		{AverageSalary: f64(1500000), Currency: "INR", Source: "Naukri"},
		{AverageSalary: f64(30000), Currency: "USD", Source: "Glassdoor"},
	}
	got := ComposeReport(pune, records)
	assert.Contains(t, got.NarrativeInsights, "Average Market Salary: 765,000")
	assert.Contains(t, got.NarrativeInsights, "INR, USD")
}

func TestComposeReportDeterministic(t *testing.T) {
	records := []SalaryRecord{
		{MinSalary: f64(1000000), MaxSalary: f64(1800000), Currency: "INR", Source: "AmbitionBox"},
		{AverageSalary: f64(1200000), Currency: "INR", Source: "Glassdoor", Company: str("Infosys")},
	}
	first := ComposeReport(pune, records)
	second := ComposeReport(pune, records)
	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first.NarrativeInsights, "Market Analysis for"))
}

func TestComputeStatsEmpty(t *testing.T) {
	assert.Nil(t, ComputeStats(nil))
}

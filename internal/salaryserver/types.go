package salaryserver

import (
	"errors"
	"strings"

	"github.com/anatolykoptev/go_salary/internal/engine/salary"
)

// Wire types: plain data exchanged with MCP callers, decoupled from the
// salary package's model types.

// QueryData is a StructuredQuery as data.
type QueryData struct {
	JobTitle        string `json:"job_title,omitempty" jsonschema:"Job title, e.g. Data Engineer"`
	Location        string `json:"location,omitempty" jsonschema:"Location, e.g. Pune or USA"`
	YearsExperience string `json:"years_experience,omitempty" jsonschema:"Experience, e.g. 5 years or senior"`
	OriginalQuery   string `json:"original_query,omitempty" jsonschema:"Original free-text query"`
}

// HitData is a SearchHit as data.
type HitData struct {
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Link    string `json:"link,omitempty"`
	Query   string `json:"query,omitempty" jsonschema:"Search query that produced this hit"`
	Error   string `json:"error,omitempty" jsonschema:"Set when the lookup for query failed"`
}

// RecordData is a SalaryRecord as data.
type RecordData struct {
	MinSalary     *float64 `json:"min_salary,omitempty"`
	MaxSalary     *float64 `json:"max_salary,omitempty"`
	AverageSalary *float64 `json:"average_salary,omitempty"`
	Currency      string   `json:"currency,omitempty" jsonschema:"ISO currency code (default USD)"`
	Source        string   `json:"source,omitempty"`
	Company       *string  `json:"company,omitempty"`
}

// StatsData is SalaryStats as data.
type StatsData struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// ReportData is a SalaryReport as data.
type ReportData struct {
	JobTitle        string       `json:"job_title"`
	Location        string       `json:"location"`
	YearsExperience string       `json:"years_experience"`
	SalaryData      []RecordData `json:"salary_data"`
	Stats           *StatsData   `json:"stats,omitempty"`
	MarketInsights  string       `json:"market_insights"`
	SummaryTable    string       `json:"summary_table"`
}

var (
	errNoJobTitle = errors.New("parsed_query.job_title is required")
	errNoLocation = errors.New("parsed_query.location is required")
)

func fromQuery(q salary.StructuredQuery) QueryData {
	return QueryData{
		JobTitle:        q.JobTitle,
		Location:        q.Location,
		YearsExperience: q.ExperienceLevel,
		OriginalQuery:   q.OriginalQuery,
	}
}

// toQuery validates d. A blank experience gets the interpreter default.
func toQuery(d QueryData) (salary.StructuredQuery, error) {
	q := salary.StructuredQuery{
		JobTitle:        strings.TrimSpace(d.JobTitle),
		Location:        strings.TrimSpace(d.Location),
		ExperienceLevel: strings.TrimSpace(d.YearsExperience),
		OriginalQuery:   d.OriginalQuery,
	}
	if q.JobTitle == "" {
		return q, errNoJobTitle
	}
	if q.Location == "" {
		return q, errNoLocation
	}
	if q.ExperienceLevel == "" {
		q.ExperienceLevel = salary.DefaultExperience
	}
	return q, nil
}

func fromHits(hits []salary.SearchHit) []HitData {
	out := make([]HitData, 0, len(hits))
	for _, h := range hits {
		out = append(out, HitData{
			Title:   h.Title,
			Snippet: h.Snippet,
			Link:    h.Link,
			Query:   h.SourceQuery,
			Error:   h.Error,
		})
	}
	return out
}

func toHits(data []HitData) []salary.SearchHit {
	out := make([]salary.SearchHit, 0, len(data))
	for _, d := range data {
		out = append(out, salary.SearchHit{
			Title:       d.Title,
			Snippet:     d.Snippet,
			Link:        d.Link,
			SourceQuery: d.Query,
			Error:       d.Error,
		})
	}
	return out
}

func fromRecords(records []salary.SalaryRecord) []RecordData {
	out := make([]RecordData, 0, len(records))
	for _, r := range records {
		out = append(out, RecordData{
			MinSalary:     r.MinSalary,
			MaxSalary:     r.MaxSalary,
			AverageSalary: r.AverageSalary,
			Currency:      r.Currency,
			Source:        r.Source,
			Company:       r.Company,
		})
	}
	return out
}

// toRecords applies the structurer's defaults to caller-supplied records.
func toRecords(data []RecordData) []salary.SalaryRecord {
	out := make([]salary.SalaryRecord, 0, len(data))
	for _, d := range data {
		r := salary.SalaryRecord{
			MinSalary:     positive(d.MinSalary),
			MaxSalary:     positive(d.MaxSalary),
			AverageSalary: positive(d.AverageSalary),
			Currency:      strings.ToUpper(strings.TrimSpace(d.Currency)),
			Source:        strings.TrimSpace(d.Source),
			Company:       d.Company,
		}
		if r.Currency == "" {
			r.Currency = "USD"
		}
		if r.Source == "" {
			r.Source = "Unknown"
		}
		if r.Company != nil && strings.TrimSpace(*r.Company) == "" {
			r.Company = nil
		}
		out = append(out, r)
	}
	return out
}

func positive(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}

func fromReport(r salary.SalaryReport) ReportData {
	out := ReportData{
		JobTitle:        r.JobTitle,
		Location:        r.Location,
		YearsExperience: r.ExperienceLevel,
		SalaryData:      fromRecords(r.Records),
		MarketInsights:  r.NarrativeInsights,
		SummaryTable:    r.TabularSummary,
	}
	if r.Stats != nil {
		out.Stats = &StatsData{Count: r.Stats.Count, Mean: r.Stats.Mean, Min: r.Stats.Min, Max: r.Stats.Max}
	}
	return out
}

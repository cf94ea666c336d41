// Package salary implements the salary research pipeline: free-text query
// interpretation, snippet retrieval, LLM structuring and report composition.
package salary

// StructuredQuery holds normalized job search parameters extracted from free text.
type StructuredQuery struct {
	JobTitle        string `json:"job_title"`
	Location        string `json:"location"`
	ExperienceLevel string `json:"years_experience"`
	OriginalQuery   string `json:"original_query"`
}

// SearchHit is one ranked search result, or an error placeholder for a failed lookup.
type SearchHit struct {
	Title       string `json:"title,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
	Link        string `json:"link,omitempty"`
	SourceQuery string `json:"query"`
	Error       string `json:"error,omitempty"`
}

// Failed reports whether the hit is an error placeholder.
func (h SearchHit) Failed() bool { return h.Error != "" }

// SalaryRecord is one extracted compensation data point.
// Nil amounts are unknown; amounts are never zero or negative.
type SalaryRecord struct {
	MinSalary     *float64 `json:"min_salary"`
	MaxSalary     *float64 `json:"max_salary"`
	AverageSalary *float64 `json:"average_salary"`
	Currency      string   `json:"currency"`
	Source        string   `json:"source"`
	Company       *string  `json:"company"`
}

// SalaryStats aggregates the flattened salary pool of a report.
type SalaryStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// SalaryReport is the terminal rendered output of the pipeline.
type SalaryReport struct {
	JobTitle          string         `json:"job_title"`
	Location          string         `json:"location"`
	ExperienceLevel   string         `json:"years_experience"`
	Records           []SalaryRecord `json:"salary_data"`
	Stats             *SalaryStats   `json:"stats,omitempty"`
	NarrativeInsights string         `json:"market_insights"`
	TabularSummary    string         `json:"summary_table"`
}

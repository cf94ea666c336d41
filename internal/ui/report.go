// Package ui renders salary reports for the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/anatolykoptev/go_salary/internal/engine/salary"
	"github.com/pterm/pterm"
)

// Title is the header shown above every report.
const Title = "Salary Analysis Report"

// PrintReport writes r to w as header, query summary, table and insights.
func PrintReport(w io.Writer, r salary.SalaryReport) {
	fmt.Fprintln(w, pterm.DefaultHeader.WithFullWidth().Sprint(Title))
	fmt.Fprintln(w, Summary(r))

	fmt.Fprint(w, pterm.DefaultSection.Sprint("Summary Table"))
	fmt.Fprintln(w, r.TabularSummary)

	fmt.Fprint(w, pterm.DefaultSection.Sprint("Market Insights"))
	fmt.Fprintln(w, r.NarrativeInsights)
}

// Summary returns the job/location/experience lines of r.
func Summary(r salary.SalaryReport) string {
	var sb strings.Builder
	line := func(label, value string) {
		sb.WriteString(pterm.Bold.Sprint(label+":") + " " + value + "\n")
	}
	line("Job Title", r.JobTitle)
	line("Location", r.Location)
	line("Experience", r.ExperienceLevel)
	if r.Stats != nil {
		line("Data Points", fmt.Sprint(r.Stats.Count))
	}
	return sb.String()
}

// PrintError reports a failed run on w.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, pterm.Error.Sprint(err.Error()))
}

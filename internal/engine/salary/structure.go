package salary

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_salary/internal/engine"
	"github.com/tidwall/gjson"
)

const snippetLimit = 500

// Structurer asks the LLM to extract SalaryRecords from search hits.
type Structurer struct {
	llm     engine.Completer
	timeout time.Duration
}

// NewStructurer creates a Structurer.
func NewStructurer(llm engine.Completer, timeout time.Duration) *Structurer {
	return &Structurer{llm: llm, timeout: timeout}
}

// Structure returns zero or more records. Error-tagged hits are skipped; if none
// remain the LLM is not called. LLM and parse failures degrade to an empty
// result. The error is non-nil only when ctx is done.
func (s *Structurer) Structure(ctx context.Context, hits []SearchHit, q StructuredQuery) ([]SalaryRecord, error) {
	slog.Info("structuring salary data", slog.Int("hits", len(hits)))

	sources := FormatHits(hits)
	if sources == "" || s.llm == nil {
		return []SalaryRecord{}, nil
	}

	prompt := fmt.Sprintf(engine.StructureSalaryPrompt, q.JobTitle, q.Location, q.ExperienceLevel, sources)
	raw, err := engine.CallLLM(ctx, s.llm, s.timeout, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return []SalaryRecord{}, ctx.Err()
		}
		slog.Warn("structurer: llm failed", slog.Any("error", err))
		return []SalaryRecord{}, nil
	}

	records, err := ParseRecords(raw)
	if err != nil {
		slog.Warn("structurer: bad llm reply",
			slog.Any("error", err),
			slog.String("raw", engine.TruncateRunes(raw, 200, "...")))
		return []SalaryRecord{}, nil
	}
	slog.Info("structured salary records", slog.Int("count", len(records)))
	return records, nil
}

// FormatHits renders successful hits as newline-delimited title/snippet/source blocks.
// Returns "" when every hit is an error placeholder.
func FormatHits(hits []SearchHit) string {
	var blocks []string
	for _, h := range hits {
		if h.Failed() {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Title: %s\nSnippet: %s\nSource: %s\n---",
			h.Title, engine.TruncateRunes(h.Snippet, snippetLimit, "..."), h.Link))
	}
	return strings.Join(blocks, "\n")
}

// ParseRecords decodes the first JSON array of an LLM reply into records.
// Non-object elements are skipped.
func ParseRecords(raw string) ([]SalaryRecord, error) {
	arr, err := engine.ExtractJSONArray(raw)
	if err != nil {
		return nil, err
	}
	if !gjson.Valid(arr) {
		return nil, fmt.Errorf("invalid JSON array: %s", engine.TruncateRunes(arr, 120, "..."))
	}

	records := []SalaryRecord{}
	gjson.Parse(arr).ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			records = append(records, recordFromJSON(item))
		}
		return true
	})
	return records, nil
}

func recordFromJSON(item gjson.Result) SalaryRecord {
	rec := SalaryRecord{
		MinSalary:     amountField(item.Get("min_salary")),
		MaxSalary:     amountField(item.Get("max_salary")),
		AverageSalary: amountField(item.Get("average_salary")),
		Currency:      strings.ToUpper(stringField(item, "currency")),
		Source:        stringField(item, "source"),
	}
	if rec.Currency == "" {
		rec.Currency = "USD"
	}
	if rec.Source == "" {
		rec.Source = "Unknown"
	}
	if c := stringField(item, "company"); c != "" {
		rec.Company = &c
	}
	return rec
}

var amountCleaner = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", "₹", "", " ", "")

// amountField reads a positive amount. Numeric strings such as "95,000" or
// "120k" are accepted; anything else is absent.
func amountField(v gjson.Result) *float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Float()
	case gjson.String:
		s := strings.ToLower(amountCleaner.Replace(strings.TrimSpace(v.String())))
		mult := 1.0
		if strings.HasSuffix(s, "k") {
			s, mult = strings.TrimSuffix(s, "k"), 1000
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = n * mult
	default:
		return nil
	}
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

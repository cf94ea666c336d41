package salary

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_salary/internal/engine"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fallback values used when neither the LLM nor the patterns yield a field.
const (
	DefaultJobTitle   = "Data Scientist"
	DefaultLocation   = "USA"
	DefaultExperience = "2 years"
)

var (
	jobTitleRe = regexp.MustCompile(`\b(machine learning engineer|data scientist|data engineer|data analyst|software engineer|devops engineer|product manager|developer|analyst|engineer|scientist)\b`)
	locationRe = regexp.MustCompile(`\b(united states|san francisco|new york|california|bangalore|bengaluru|hyderabad|toronto|chennai|germany|america|canada|london|mumbai|berlin|remote|texas|india|delhi|pune|usa|uk)\b`)

	expRangeRe = regexp.MustCompile(`(\d+)\s*(?:-|to)\s*(\d+)\s*(?:years?|yrs?)`)
	expYearsRe = regexp.MustCompile(`(\d+)\+?\s*(?:years?|yrs?)`)
	expLevelRe = regexp.MustCompile(`\b(entry[ -]level|mid[ -]level|junior|senior|fresher)\b`)
)

// Interpreter turns free text into a StructuredQuery.
type Interpreter struct {
	llm     engine.Completer
	timeout time.Duration
}

// NewInterpreter creates an Interpreter. A nil llm uses the pattern fallback only.
func NewInterpreter(llm engine.Completer, timeout time.Duration) *Interpreter {
	return &Interpreter{llm: llm, timeout: timeout}
}

// Parse always returns a fully populated StructuredQuery. The error is non-nil
// only when ctx is done; the query is still populated from the fallback then.
func (p *Interpreter) Parse(ctx context.Context, text string) (StructuredQuery, error) {
	slog.Info("parsing query", slog.String("query", text))
	fallback := FallbackParse(text)
	if p.llm == nil || strings.TrimSpace(text) == "" {
		return fallback, nil
	}

	raw, err := engine.CallLLM(ctx, p.llm, p.timeout, fmt.Sprintf(engine.ParseQueryPrompt, text))
	if err != nil {
		if ctx.Err() != nil {
			return fallback, ctx.Err()
		}
		slog.Warn("query parser: llm failed, using fallback", slog.Any("error", err))
		return fallback, nil
	}

	parsed, err := decodeParsedQuery(raw)
	if err != nil {
		slog.Warn("query parser: bad llm reply, using fallback",
			slog.Any("error", err),
			slog.String("raw", engine.TruncateRunes(raw, 200, "...")))
		return fallback, nil
	}
	parsed.OriginalQuery = text
	return mergeQuery(parsed, fallback), nil
}

// decodeParsedQuery reads the first JSON object of an LLM reply.
func decodeParsedQuery(raw string) (StructuredQuery, error) {
	obj, err := engine.ExtractJSONObject(raw)
	if err != nil {
		return StructuredQuery{}, err
	}
	if !gjson.Valid(obj) {
		return StructuredQuery{}, fmt.Errorf("invalid JSON object: %s", engine.TruncateRunes(obj, 120, "..."))
	}
	res := gjson.Parse(obj)
	q := StructuredQuery{
		JobTitle:        stringField(res, "job_title", "title"),
		Location:        stringField(res, "location"),
		ExperienceLevel: stringField(res, "years_experience", "experience", "experience_level"),
	}
	if q.JobTitle == "" && q.Location == "" && q.ExperienceLevel == "" {
		return q, fmt.Errorf("no query fields in %s", engine.TruncateRunes(obj, 120, "..."))
	}
	return q, nil
}

// stringField returns the first non-blank scalar among keys.
func stringField(res gjson.Result, keys ...string) string {
	for _, k := range keys {
		v := res.Get(k)
		switch v.Type {
		case gjson.String, gjson.Number:
			if s := strings.TrimSpace(v.String()); s != "" && !strings.EqualFold(s, "null") {
				return s
			}
		}
	}
	return ""
}

// mergeQuery fills blank fields of q from fallback.
func mergeQuery(q, fallback StructuredQuery) StructuredQuery {
	if q.JobTitle == "" {
		q.JobTitle = fallback.JobTitle
	}
	if q.Location == "" {
		q.Location = fallback.Location
	}
	if q.ExperienceLevel == "" {
		q.ExperienceLevel = fallback.ExperienceLevel
	}
	if q.OriginalQuery == "" {
		q.OriginalQuery = fallback.OriginalQuery
	}
	return q
}

// FallbackParse extracts query fields with fixed patterns. Unmatched fields
// get the package defaults, so every field is non-empty.
func FallbackParse(text string) StructuredQuery {
	lower := strings.ToLower(text)
	q := StructuredQuery{
		JobTitle:        DefaultJobTitle,
		Location:        DefaultLocation,
		ExperienceLevel: DefaultExperience,
		OriginalQuery:   text,
	}
	if q.OriginalQuery == "" {
		q.OriginalQuery = "(empty query)"
	}

	if m := jobTitleRe.FindStringSubmatch(lower); m != nil {
		q.JobTitle = titleCase(m[1])
	}
	if m := locationRe.FindStringSubmatch(lower); m != nil {
		if len(m[1]) <= 3 {
			q.Location = strings.ToUpper(m[1])
		} else {
			q.Location = titleCase(m[1])
		}
	}
	if exp := matchExperience(lower); exp != "" {
		q.ExperienceLevel = exp
	}
	return q
}

// titleCase builds a fresh Caser per call; Casers are not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func matchExperience(lower string) string {
	if m := expRangeRe.FindStringSubmatch(lower); m != nil {
		return m[1] + "-" + m[2] + " years"
	}
	if m := expYearsRe.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n == 1 {
			return "1 year"
		}
		return m[1] + " years"
	}
	if m := expLevelRe.FindStringSubmatch(lower); m != nil {
		return strings.ReplaceAll(m[1], "-", " ")
	}
	return ""
}

package salary

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anatolykoptev/go_salary/internal/engine"
)

// fakeSearcher returns perQuery canned results, failing for queries in failOn.
type fakeSearcher struct {
	mu       sync.Mutex
	perQuery int
	failOn   map[string]error
	queries  []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]engine.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if err := f.failOn[query]; err != nil {
		return nil, err
	}
	out := make([]engine.SearchResult, 0, f.perQuery)
	for i := range f.perQuery {
		out = append(out, engine.SearchResult{
			Title:   fmt.Sprintf("Result %d", i+1),
			Snippet: fmt.Sprintf("Salary range ₹%d,00,000 per year", 8+i),
			Link:    fmt.Sprintf("https://example.com/%d", i+1),
		})
	}
	return out, nil
}

func (f *fakeSearcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// scriptedLLM answers parse and structure prompts with fixed replies and
// counts calls per kind.
type scriptedLLM struct {
	mu             sync.Mutex
	parseReply     string
	structureReply string
	parseCalls     int
	structureCalls int
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.Contains(prompt, "query parser") {
		s.parseCalls++
		return s.parseReply, nil
	}
	s.structureCalls++
	return s.structureReply, nil
}

func failingLLM(err error) engine.Completer {
	return engine.CompleterFunc(func(context.Context, string) (string, error) { return "", err })
}

func f64(v float64) *float64 { return &v }

func str(s string) *string { return &s }

package salaryserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go_salary/internal/engine"
	"github.com/anatolykoptev/go_salary/internal/engine/salary"
	"github.com/anatolykoptev/go_salary/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct{ fail bool }

func (s stubSearcher) Search(_ context.Context, query string, _ int) ([]engine.SearchResult, error) {
	if s.fail {
		return nil, errors.New("status 500 Internal Server Error")
	}
	return []engine.SearchResult{{Title: "Salaries", Snippet: "₹12 LPA for " + query, Link: "https://example.com"}}, nil
}

func stubLLM() engine.Completer {
	return engine.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "query parser") {
			return `{"job_title": "Data Engineer", "location": "Pune", "years_experience": "5 years"}`, nil
		}
		return `[{"min_salary": 1000000, "max_salary": 1600000, "currency": "INR", "source": "AmbitionBox"}]`, nil
	})
}

func connect(t *testing.T, d Deps) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer("test", d)
	clientT, serverT := mcp.NewInMemoryTransports()

	ss, err := server.Connect(ctx, serverT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

// call invokes tool and decodes its structured envelope into out.
func call[T any](t *testing.T, cs *mcp.ClientSession, tool string, args map[string]any) toolutil.Envelope[T] {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: tool, Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError, "tool %s returned a protocol-level error", tool)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var env toolutil.Envelope[T]
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func testDeps(search engine.Searcher) Deps {
	return Deps{LLM: stubLLM(), Search: search, Options: salary.Options{LLMTimeout: time.Second}}
}

func TestListTools(t *testing.T) {
	cs := connect(t, testDeps(stubSearcher{}))
	res, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, ToolNames, names)
}

func TestToolChain(t *testing.T) {
	cs := connect(t, testDeps(stubSearcher{}))

	parsed := call[QueryData](t, cs, ToolParseQuery, map[string]any{"query": "data engineer salary of 5 year experience candidate in pune"})
	require.True(t, parsed.Success, parsed.Error)
	assert.Equal(t, "Data Engineer", parsed.Data.JobTitle)
	assert.Equal(t, "5 years", parsed.Data.YearsExperience)

	scraped := call[[]HitData](t, cs, ToolScrapeData, map[string]any{"parsed_query": parsed.Data})
	require.True(t, scraped.Success, scraped.Error)
	require.Len(t, scraped.Data, 2)
	assert.NotEmpty(t, scraped.Data[0].Query)

	structured := call[[]RecordData](t, cs, ToolStructureData, map[string]any{
		"raw_data":     scraped.Data,
		"parsed_query": parsed.Data,
	})
	require.True(t, structured.Success, structured.Error)
	require.Len(t, structured.Data, 1)
	assert.Equal(t, "INR", structured.Data[0].Currency)

	report := call[ReportData](t, cs, ToolGenerateReport, map[string]any{
		"parsed_query": parsed.Data,
		"salary_data":  structured.Data,
	})
	require.True(t, report.Success, report.Error)
	require.NotNil(t, report.Data.Stats)
	assert.Equal(t, 2, report.Data.Stats.Count)
	assert.Contains(t, report.Data.MarketInsights, "INR 1,300,000")
	assert.Contains(t, report.Data.SummaryTable, "AmbitionBox")
}

func TestAnalyze(t *testing.T) {
	cs := connect(t, testDeps(stubSearcher{}))
	env := call[ReportData](t, cs, ToolAnalyze, map[string]any{"query": "data engineer in pune with 5 years"})
	require.True(t, env.Success, env.Error)
	assert.Equal(t, "Pune", env.Data.Location)
	assert.Len(t, env.Data.SalaryData, 1)
}

func TestToolErrorsStayInEnvelope(t *testing.T) {
	cs := connect(t, testDeps(stubSearcher{}))

	t.Run("empty query falls back to defaults", func(t *testing.T) {
		for _, q := range []string{"", "  "} {
			env := call[QueryData](t, cs, ToolParseQuery, map[string]any{"query": q})
			require.True(t, env.Success, env.Error)
			assert.Equal(t, salary.DefaultJobTitle, env.Data.JobTitle)
			assert.Equal(t, salary.DefaultLocation, env.Data.Location)
			assert.Equal(t, salary.DefaultExperience, env.Data.YearsExperience)
		}
	})

	t.Run("missing job title", func(t *testing.T) {
		env := call[[]HitData](t, cs, ToolScrapeData, map[string]any{"parsed_query": map[string]any{"location": "Pune"}})
		assert.False(t, env.Success)
		assert.Contains(t, env.Error, "job_title")
	})

	t.Run("report without data", func(t *testing.T) {
		env := call[ReportData](t, cs, ToolGenerateReport, map[string]any{
			"parsed_query": map[string]any{"job_title": "Data Engineer", "location": "Pune"},
		})
		require.True(t, env.Success, env.Error)
		assert.Equal(t, salary.NoDataNarrative, env.Data.MarketInsights)
		assert.Equal(t, salary.DefaultExperience, env.Data.YearsExperience)
	})
}

func TestScrapeFailuresAreData(t *testing.T) {
	cs := connect(t, testDeps(stubSearcher{fail: true}))
	env := call[[]HitData](t, cs, ToolScrapeData, map[string]any{
		"parsed_query": map[string]any{"job_title": "Data Engineer", "location": "Pune", "years_experience": "5 years"},
	})
	require.True(t, env.Success, env.Error)
	require.Len(t, env.Data, 2)
	for _, h := range env.Data {
		assert.NotEmpty(t, h.Error)
		assert.NotEmpty(t, h.Query)
	}
}

func TestToRecordsDefaults(t *testing.T) {
	zero, blank := 0.0, " "
	got := toRecords([]RecordData{{MinSalary: &zero, Currency: "inr", Company: &blank}})
	require.Len(t, got, 1)
	assert.Nil(t, got[0].MinSalary)
	assert.Equal(t, "INR", got[0].Currency)
	assert.Equal(t, "Unknown", got[0].Source)
	assert.Nil(t, got[0].Company)
}

// Package salaryserver exposes the salary pipeline stages as MCP tools.
package salaryserver

import (
	"context"
	"log/slog"

	"github.com/anatolykoptev/go_salary/internal/engine"
	"github.com/anatolykoptev/go_salary/internal/engine/salary"
	"github.com/anatolykoptev/go_salary/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names.
const (
	ToolParseQuery     = "parse_salary_query"
	ToolScrapeData     = "scrape_salary_data"
	ToolStructureData  = "structure_salary_data"
	ToolGenerateReport = "generate_salary_report"
	ToolAnalyze        = "analyze_salary"
)

// ToolNames lists every tool RegisterTools adds, in registration order.
var ToolNames = []string{ToolParseQuery, ToolScrapeData, ToolStructureData, ToolGenerateReport, ToolAnalyze}

// Deps are the collaborators shared by all tools. Each call builds its own
// stage components from them.
type Deps struct {
	LLM     engine.Completer
	Search  engine.Searcher
	Options salary.Options
}

// ParseQueryInput is the input of parse_salary_query and analyze_salary.
type ParseQueryInput struct {
	Query string `json:"query,omitempty" jsonschema:"Free-text salary question, e.g. data engineer salary with 5 years experience in Pune"`
}

// ScrapeInput is the input of scrape_salary_data.
type ScrapeInput struct {
	ParsedQuery QueryData `json:"parsed_query,omitempty" jsonschema:"Output of parse_salary_query"`
}

// StructureInput is the input of structure_salary_data.
type StructureInput struct {
	RawData     []HitData `json:"raw_data,omitempty" jsonschema:"Output of scrape_salary_data"`
	ParsedQuery QueryData `json:"parsed_query,omitempty" jsonschema:"Output of parse_salary_query"`
}

// ReportInput is the input of generate_salary_report.
type ReportInput struct {
	ParsedQuery QueryData    `json:"parsed_query,omitempty" jsonschema:"Output of parse_salary_query"`
	SalaryData  []RecordData `json:"salary_data,omitempty" jsonschema:"Output of structure_salary_data"`
}

// RegisterTools registers the salary tools on server:
// parse_salary_query, scrape_salary_data, structure_salary_data,
// generate_salary_report, analyze_salary.
func RegisterTools(server *mcp.Server, d Deps) {
	registerParseQuery(server, d)
	registerScrapeData(server, d)
	registerStructureData(server, d)
	registerGenerateReport(server)
	registerAnalyze(server, d)
	slog.Debug("salary tools registered", slog.Int("count", len(ToolNames)))
}

func registerParseQuery(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolParseQuery,
		Description: "Parse a free-text salary question into job_title, location and years_experience. Uses the LLM when available and falls back to keyword matching otherwise.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ParseQueryInput) (*mcp.CallToolResult, toolutil.Envelope[QueryData], error) {
		return nil, toolutil.Wrap(ToolParseQuery, func() (QueryData, error) {
			q, err := salary.NewInterpreter(d.LLM, d.Options.LLMTimeout).Parse(ctx, input.Query)
			if err != nil {
				return QueryData{}, err
			}
			return fromQuery(q), nil
		}), nil
	})
}

func registerScrapeData(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolScrapeData,
		Description: "Run web searches for salary information about a parsed query. Returns up to 10 hits; a failed lookup yields a hit carrying an error instead of failing the call.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr(true)},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ScrapeInput) (*mcp.CallToolResult, toolutil.Envelope[[]HitData], error) {
		return nil, toolutil.Wrap(ToolScrapeData, func() ([]HitData, error) {
			q, err := toQuery(input.ParsedQuery)
			if err != nil {
				return nil, err
			}
			hits, err := salary.NewRetriever(d.Search, d.Options.SearchPause).Retrieve(ctx, q)
			if err != nil {
				return nil, err
			}
			return fromHits(hits), nil
		}), nil
	})
}

func registerStructureData(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolStructureData,
		Description: "Extract structured salary records (min, max, average, currency, source, company) from scraped search hits using the LLM.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input StructureInput) (*mcp.CallToolResult, toolutil.Envelope[[]RecordData], error) {
		return nil, toolutil.Wrap(ToolStructureData, func() ([]RecordData, error) {
			q, err := toQuery(input.ParsedQuery)
			if err != nil {
				return nil, err
			}
			records, err := salary.NewStructurer(d.LLM, d.Options.LLMTimeout).Structure(ctx, toHits(input.RawData), q)
			if err != nil {
				return nil, err
			}
			return fromRecords(records), nil
		}), nil
	})
}

func registerGenerateReport(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolGenerateReport,
		Description: "Compose a salary report (summary table, statistics and market insights) from structured salary records. Makes no network calls.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, input ReportInput) (*mcp.CallToolResult, toolutil.Envelope[ReportData], error) {
		return nil, toolutil.Wrap(ToolGenerateReport, func() (ReportData, error) {
			q, err := toQuery(input.ParsedQuery)
			if err != nil {
				return ReportData{}, err
			}
			return fromReport(salary.ComposeReport(q, toRecords(input.SalaryData))), nil
		}), nil
	})
}

func registerAnalyze(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolAnalyze,
		Description: "Answer a free-text salary question end to end: parse, search, structure and report in one call.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: ptr(true)},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ParseQueryInput) (*mcp.CallToolResult, toolutil.Envelope[ReportData], error) {
		return nil, toolutil.Wrap(ToolAnalyze, func() (ReportData, error) {
			out, err := salary.NewPipeline(d.LLM, d.Search, d.Options).Run(ctx, input.Query)
			if err != nil {
				return ReportData{}, err
			}
			return fromReport(out.Report), nil
		}), nil
	})
}

func ptr[T any](v T) *T { return &v }

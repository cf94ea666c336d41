package salary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_salary/internal/engine"
	"github.com/google/uuid"
)

// Stage names a pipeline state.
type Stage string

const (
	StageNone       Stage = ""
	StageParsed     Stage = "parsed"
	StageScraped    Stage = "scraped"
	StageStructured Stage = "structured"
	StageReported   Stage = "reported"
)

// ErrStagePanic marks a stage that panicked instead of returning.
var ErrStagePanic = errors.New("stage panicked")

// StageError aborts a run. Completed is the last stage that finished.
type StageError struct {
	Stage     Stage
	Completed Stage
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Parsed is the state after query interpretation.
type Parsed struct {
	RunID string
	Query StructuredQuery
}

// Scraped adds the retrieved hits.
type Scraped struct {
	Parsed
	Hits []SearchHit
}

// Structured adds the extracted records.
type Structured struct {
	Scraped
	Records []SalaryRecord
}

// Reported is the terminal state.
type Reported struct {
	Structured
	Report SalaryReport
}

// Options configures the components built by NewPipeline.
type Options struct {
	LLMTimeout  time.Duration
	SearchPause time.Duration
}

// Pipeline runs parse → scrape → structure → report strictly in order.
type Pipeline struct {
	interpreter *Interpreter
	retriever   *Retriever
	structurer  *Structurer
}

// NewPipeline builds a pipeline with its own component instances.
func NewPipeline(llm engine.Completer, search engine.Searcher, opts Options) *Pipeline {
	return &Pipeline{
		interpreter: NewInterpreter(llm, opts.LLMTimeout),
		retriever:   NewRetriever(search, opts.SearchPause),
		structurer:  NewStructurer(llm, opts.LLMTimeout),
	}
}

// Interpreter returns the pipeline's query interpreter.
func (p *Pipeline) Interpreter() *Interpreter { return p.interpreter }

// Retriever returns the pipeline's search retriever.
func (p *Pipeline) Retriever() *Retriever { return p.retriever }

// Structurer returns the pipeline's data structurer.
func (p *Pipeline) Structurer() *Structurer { return p.structurer }

// Run executes all four stages. Any stage error aborts the remaining stages
// and is returned as a *StageError; there is no partial report.
func (p *Pipeline) Run(ctx context.Context, query string) (*Reported, error) {
	engine.IncrPipelineRuns()
	runID := uuid.NewString()
	log := slog.With(slog.String("run_id", runID))
	log.Info("starting salary analysis", slog.String("query", query))

	var out *Reported
	err := engine.TrackOperation(ctx, "pipeline:"+runID, func(ctx context.Context) error {
		var err error
		out, err = p.run(ctx, log, runID, query)
		return err
	})
	if err != nil {
		engine.IncrPipelineErrors()
		log.Error("salary analysis failed", slog.Any("error", err))
		return nil, err
	}
	log.Info("salary analysis complete", slog.Int("records", len(out.Records)))
	return out, nil
}

func (p *Pipeline) run(ctx context.Context, log *slog.Logger, runID, query string) (*Reported, error) {
	log.Info("stage: parse")
	q, err := guard(func() (StructuredQuery, error) { return p.interpreter.Parse(ctx, query) })
	if err != nil {
		return nil, &StageError{Stage: StageParsed, Completed: StageNone, Err: err}
	}
	parsed := Parsed{RunID: runID, Query: q}

	log.Info("stage: scrape", slog.String("job_title", q.JobTitle), slog.String("location", q.Location))
	hits, err := guard(func() ([]SearchHit, error) { return p.retriever.Retrieve(ctx, parsed.Query) })
	if err != nil {
		return nil, &StageError{Stage: StageScraped, Completed: StageParsed, Err: err}
	}
	scraped := Scraped{Parsed: parsed, Hits: hits}
	log.Info("scraped data", slog.Int("items", len(hits)))

	log.Info("stage: structure")
	records, err := guard(func() ([]SalaryRecord, error) {
		return p.structurer.Structure(ctx, scraped.Hits, scraped.Query)
	})
	if err != nil {
		return nil, &StageError{Stage: StageStructured, Completed: StageScraped, Err: err}
	}
	structured := Structured{Scraped: scraped, Records: records}

	log.Info("stage: report")
	report, err := guard(func() (SalaryReport, error) {
		return ComposeReport(structured.Query, structured.Records), nil
	})
	if err != nil {
		return nil, &StageError{Stage: StageReported, Completed: StageStructured, Err: err}
	}
	return &Reported{Structured: structured, Report: report}, nil
}

// guard converts a panic in fn into ErrStagePanic.
func guard[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStagePanic, r)
		}
	}()
	return fn()
}

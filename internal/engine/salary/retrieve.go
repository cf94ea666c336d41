package salary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_salary/internal/engine"
	"golang.org/x/time/rate"
)

// Retrieval bounds: only the first MaxQueries variants are sent, and each
// contributes at most ResultsPerQuery hits.
const (
	MaxQueries      = 2
	ResultsPerQuery = 5
)

// Retriever fetches ranked snippets for a StructuredQuery.
type Retriever struct {
	search  engine.Searcher
	limiter *rate.Limiter
}

// NewRetriever creates a Retriever that waits pause between successive
// outbound queries. pause <= 0 disables the wait.
func NewRetriever(search engine.Searcher, pause time.Duration) *Retriever {
	limit := rate.Inf
	if pause > 0 {
		limit = rate.Every(pause)
	}
	return &Retriever{search: search, limiter: rate.NewLimiter(limit, 1)}
}

// BuildSearchQueries returns the query-string variants for q, most specific first.
func BuildSearchQueries(q StructuredQuery) []string {
	return []string{
		fmt.Sprintf("%s salary %s %s", q.JobTitle, q.ExperienceLevel, q.Location),
		fmt.Sprintf("%s compensation %s %s", q.JobTitle, q.Location, q.ExperienceLevel),
		fmt.Sprintf("average %s salary %s", q.JobTitle, q.Location),
		fmt.Sprintf("%s pay scale %s experience", q.JobTitle, q.Location),
	}
}

// Retrieve runs the first MaxQueries variants in order. A failed lookup adds one
// error-tagged hit for its query and does not stop the others. The error is
// non-nil only when ctx is done; hits gathered so far are returned with it.
func (r *Retriever) Retrieve(ctx context.Context, q StructuredQuery) ([]SearchHit, error) {
	slog.Info("retrieving salary data",
		slog.String("job_title", q.JobTitle),
		slog.String("location", q.Location))

	queries := BuildSearchQueries(q)
	if len(queries) > MaxQueries {
		queries = queries[:MaxQueries]
	}

	hits := make([]SearchHit, 0, len(queries)*ResultsPerQuery)
	for _, query := range queries {
		if err := r.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return hits, ctx.Err()
			}
			// The deadline falls before the next pause ends.
			slog.Warn("search skipped", slog.String("query", query), slog.Any("error", err))
			hits = append(hits, SearchHit{SourceQuery: query, Error: err.Error()})
			continue
		}

		results, err := r.search.Search(ctx, query, ResultsPerQuery)
		if err != nil {
			if ctx.Err() != nil {
				return hits, ctx.Err()
			}
			slog.Warn("search failed", slog.String("query", query), slog.Any("error", err))
			hits = append(hits, SearchHit{SourceQuery: query, Error: err.Error()})
			continue
		}

		if len(results) > ResultsPerQuery {
			results = results[:ResultsPerQuery]
		}
		for _, res := range results {
			hits = append(hits, SearchHit{
				Title:       res.Title,
				Snippet:     res.Snippet,
				Link:        res.Link,
				SourceQuery: query,
			})
		}
	}

	slog.Info("retrieved search hits", slog.Int("count", len(hits)))
	return hits, nil
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SearchRequests atomic.Int64
	SearchErrors   atomic.Int64
	LLMCalls       atomic.Int64
	LLMErrors      atomic.Int64
	LLMTimeouts    atomic.Int64
	PipelineRuns   atomic.Int64
	PipelineErrors atomic.Int64
	ToolCalls      atomic.Int64
	ToolErrors     atomic.Int64
}

var metricKeys = []string{
	"search_requests", "search_errors",
	"llm_calls", "llm_errors", "llm_timeouts",
	"pipeline_runs", "pipeline_errors",
	"tool_calls", "tool_errors",
}

// GetMetrics returns a snapshot of all counters.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"search_requests": metrics.SearchRequests.Load(),
		"search_errors":   metrics.SearchErrors.Load(),
		"llm_calls":       metrics.LLMCalls.Load(),
		"llm_errors":      metrics.LLMErrors.Load(),
		"llm_timeouts":    metrics.LLMTimeouts.Load(),
		"pipeline_runs":   metrics.PipelineRuns.Load(),
		"pipeline_errors": metrics.PipelineErrors.Load(),
		"tool_calls":      metrics.ToolCalls.Load(),
		"tool_errors":     metrics.ToolErrors.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sub-packages.
func IncrPipelineRuns()   { metrics.PipelineRuns.Add(1) }
func IncrPipelineErrors() { metrics.PipelineErrors.Add(1) }
func IncrToolCalls()      { metrics.ToolCalls.Add(1) }
func IncrToolErrors()     { metrics.ToolErrors.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 30*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}

// Package toolutil provides the uniform result envelope shared by go_salary MCP tools.
package toolutil

import (
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_salary/internal/engine"
)

// Envelope is the {success, data-or-error} shape every tool returns.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitzero"`
	Error   string `json:"error,omitempty"`
}

// OK wraps data in a successful envelope.
func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: data}
}

// Fail wraps err in a failed envelope.
func Fail[T any](err error) Envelope[T] {
	return Envelope[T]{Error: err.Error()}
}

// Wrap runs fn and folds its result, error or panic into an Envelope.
// Nothing fn does escapes as an error or panic.
func Wrap[T any](tool string, fn func() (T, error)) (env Envelope[T]) {
	engine.IncrToolCalls()
	defer func() {
		if r := recover(); r != nil {
			engine.IncrToolErrors()
			slog.Error("tool panicked", slog.String("tool", tool), slog.Any("panic", r))
			env = Fail[T](fmt.Errorf("internal error: %v", r))
		}
	}()

	data, err := fn()
	if err != nil {
		engine.IncrToolErrors()
		slog.Warn("tool failed", slog.String("tool", tool), slog.Any("error", err))
		return Fail[T](err)
	}
	return OK(data)
}

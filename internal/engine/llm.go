package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrLLMTimeout is returned by CallLLM when the completion deadline passes.
	ErrLLMTimeout = errors.New("llm call timed out")
	// ErrNoJSON is returned when a reply contains no balanced JSON value.
	ErrNoJSON = errors.New("no JSON found in reply")
)

// Completer is a text-completion backend: prompt in, free text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// NewCompleter builds the Completer selected by c.LLMProvider.
func NewCompleter(c Config) Completer {
	if strings.EqualFold(c.LLMProvider, ProviderOpenAI) {
		return NewOpenAICompleter(c)
	}
	return NewGoKitCompleter(c)
}

// NewGoKitCompleter returns a Completer backed by the go-kit OpenAI-compatible client.
func NewGoKitCompleter(c Config) Completer {
	client := llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(c.LLMMaxTokens),
		llm.WithTemperature(c.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: c.LLMTimeout}),
	)
	return CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return client.Complete(ctx, "", prompt)
	})
}

// OpenAICompleter talks to any OpenAI-compatible chat completion endpoint.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAICompleter creates a go-openai backed Completer.
// An empty LLMAPIBase keeps the library default.
func NewOpenAICompleter(c Config) *OpenAICompleter {
	clientCfg := openai.DefaultConfig(c.LLMAPIKey)
	if c.LLMAPIBase != "" {
		clientCfg.BaseURL = c.LLMAPIBase
	}
	clientCfg.HTTPClient = &http.Client{Timeout: c.LLMTimeout}
	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       c.LLMModel,
		temperature: float32(c.LLMTemperature),
		maxTokens:   c.LLMMaxTokens,
	}
}

// Complete implements Completer.
func (o *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// CallLLM sends a prompt bounded by timeout. The call runs in its own goroutine
// so a backend that ignores ctx still cannot hold the caller past the deadline.
func CallLLM(ctx context.Context, c Completer, timeout time.Duration, prompt string) (string, error) {
	metrics.LLMCalls.Add(1)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type reply struct {
		text string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- reply{err: fmt.Errorf("llm completion panicked: %v", r)}
			}
		}()
		text, err := c.Complete(ctx, prompt)
		ch <- reply{text, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				metrics.LLMTimeouts.Add(1)
				return "", fmt.Errorf("%w after %s: %w", ErrLLMTimeout, timeout, r.err)
			}
			metrics.LLMErrors.Add(1)
			return "", r.err
		}
		return stripFences(r.text), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.LLMTimeouts.Add(1)
			return "", fmt.Errorf("%w after %s", ErrLLMTimeout, timeout)
		}
		metrics.LLMErrors.Add(1)
		return "", ctx.Err()
	}
}

// ExtractJSONObject returns the first balanced {...} substring of raw.
func ExtractJSONObject(raw string) (string, error) {
	return extractBalanced(raw, '{', '}')
}

// ExtractJSONArray returns the first balanced [...] substring of raw.
func ExtractJSONArray(raw string) (string, error) {
	return extractBalanced(raw, '[', ']')
}

// extractBalanced scans from each opening delimiter in turn and returns the
// first span whose delimiters balance. Delimiters inside string literals are ignored.
func extractBalanced(raw string, open, close byte) (string, error) {
	start := strings.IndexByte(raw, open)
	for start >= 0 {
		depth := 0
		inStr, esc := false, false
		for i := start; i < len(raw); i++ {
			ch := raw[i]
			if inStr {
				switch {
				case esc:
					esc = false
				case ch == '\\':
					esc = true
				case ch == '"':
					inStr = false
				}
				continue
			}
			switch ch {
			case '"':
				inStr = true
			case open:
				depth++
			case close:
				depth--
				if depth == 0 {
					return raw[start : i+1], nil
				}
			}
		}
		next := strings.IndexByte(raw[start+1:], open)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSON
}

package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "plain object",
			raw:  `{"job_title": "Data Engineer"}`,
			want: `{"job_title": "Data Engineer"}`,
		},
		{
			name: "surrounding prose",
			raw:  `Sure! Here you go: {"location": "Pune"} Hope this helps.`,
			want: `{"location": "Pune"}`,
		},
		{
			name: "nested object",
			raw:  `x {"a": {"b": 1}, "c": 2} y`,
			want: `{"a": {"b": 1}, "c": 2}`,
		},
		{
			name: "braces inside strings",
			raw:  `{"note": "use } and { freely", "ok": true}`,
			want: `{"note": "use } and { freely", "ok": true}`,
		},
		{
			name: "escaped quote inside string",
			raw:  `{"q": "say \"}\" now"}`,
			want: `{"q": "say \"}\" now"}`,
		},
		{
			name: "first object wins",
			raw:  `{"first": 1} {"second": 2}`,
			want: `{"first": 1}`,
		},
		{
			name:    "unbalanced",
			raw:     `{"job_title": "Data Engineer"`,
			wantErr: true,
		},
		{
			name:    "no object",
			raw:     "I could not determine the job title.",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrNoJSON) {
					t.Errorf("ExtractJSONObject() error = %v, want ErrNoJSON", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSONObject() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSONObject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "array of objects",
			raw:  `Result: [{"min_salary": 80000}, {"max_salary": 120000}]`,
			want: `[{"min_salary": 80000}, {"max_salary": 120000}]`,
		},
		{
			name: "empty array",
			raw:  `no data []`,
			want: `[]`,
		},
		{
			name: "bracket in string",
			raw:  `[{"source": "a]b"}]`,
			want: `[{"source": "a]b"}]`,
		},
		{
			name: "skips unbalanced opener",
			raw:  `see [1 then [2, 3]`,
			want: `[2, 3]`,
		},
		{
			name:    "object only",
			raw:     `{"min_salary": 1}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONArray(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrNoJSON) {
					t.Errorf("ExtractJSONArray() error = %v, want ErrNoJSON", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSONArray() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSONArray() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1]\n```", "[1]"},
		{"no fence", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCallLLM(t *testing.T) {
	t.Run("returns reply without fences", func(t *testing.T) {
		c := CompleterFunc(func(_ context.Context, prompt string) (string, error) {
			return "```json\n{\"echo\":\"" + prompt + "\"}\n```", nil
		})
		got, err := CallLLM(context.Background(), c, time.Second, "hi")
		if err != nil {
			t.Fatalf("CallLLM() unexpected error: %v", err)
		}
		if got != `{"echo":"hi"}` {
			t.Errorf("CallLLM() = %q", got)
		}
	})

	t.Run("propagates backend error", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		c := CompleterFunc(func(context.Context, string) (string, error) { return "", boom })
		_, err := CallLLM(context.Background(), c, time.Second, "hi")
		if !errors.Is(err, boom) {
			t.Errorf("CallLLM() error = %v, want %v", err, boom)
		}
	})

	t.Run("times out when backend ignores context", func(t *testing.T) {
		release := make(chan struct{})
		t.Cleanup(func() { close(release) })
		c := CompleterFunc(func(context.Context, string) (string, error) {
			<-release
			return "late", nil
		})

		start := time.Now()
		_, err := CallLLM(context.Background(), c, 20*time.Millisecond, "hi")
		if !errors.Is(err, ErrLLMTimeout) {
			t.Fatalf("CallLLM() error = %v, want ErrLLMTimeout", err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("CallLLM() took %s, want prompt return after deadline", elapsed)
		}
	})

	t.Run("caller cancellation is not a timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := CompleterFunc(func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
		_, err := CallLLM(ctx, c, time.Second, "hi")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("CallLLM() error = %v, want context.Canceled", err)
		}
		if errors.Is(err, ErrLLMTimeout) {
			t.Errorf("CallLLM() reported timeout for a cancelled context")
		}
	})
}

func TestNewCompleter(t *testing.T) {
	c := Config{LLMProvider: ProviderOpenAI, LLMAPIKey: "k", LLMModel: "m", LLMTimeout: time.Second}
	if _, ok := NewCompleter(c).(*OpenAICompleter); !ok {
		t.Errorf("NewCompleter(openai) did not return *OpenAICompleter")
	}
	c.LLMProvider = ProviderGoKit
	if _, ok := NewCompleter(c).(*OpenAICompleter); ok {
		t.Errorf("NewCompleter(gokit) returned *OpenAICompleter")
	}
}

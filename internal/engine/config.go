package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Search backends selectable via SEARCH_BACKEND.
const (
	BackendGoogle     = "google"
	BackendSearxng    = "searxng"
	BackendDuckDuckGo = "duckduckgo"
)

// LLM providers selectable via LLM_PROVIDER.
const (
	ProviderGoKit  = "gokit"
	ProviderOpenAI = "openai"
)

// ErrMissingCredential is returned by Validate when a required value is unset.
var ErrMissingCredential = errors.New("missing required credential")

// Config holds all engine configuration, injected from main.
type Config struct {
	SearchBackend string
	GoogleAPIKey  string
	GoogleCSEID   string
	GoogleCSEURL  string
	SearxngURL    string
	SearchTimeout time.Duration
	SearchPause   time.Duration

	LLMProvider        string
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int
	LLMTimeout         time.Duration
}

// Validate fails fast on missing credentials and unknown backends.
// All problems are reported at once.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.SearchBackend) {
	case BackendGoogle, "":
		if c.GoogleAPIKey == "" {
			errs = append(errs, fmt.Errorf("%w: GOOGLE_API_KEY", ErrMissingCredential))
		}
		if c.GoogleCSEID == "" {
			errs = append(errs, fmt.Errorf("%w: GOOGLE_CSE_ID", ErrMissingCredential))
		}
	case BackendSearxng:
		if c.SearxngURL == "" {
			errs = append(errs, fmt.Errorf("%w: SEARXNG_URL", ErrMissingCredential))
		}
	case BackendDuckDuckGo:
	default:
		errs = append(errs, fmt.Errorf("unknown search backend %q", c.SearchBackend))
	}

	switch strings.ToLower(c.LLMProvider) {
	case ProviderGoKit, ProviderOpenAI, "":
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLMProvider))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

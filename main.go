// go_salary: salary research pipeline and MCP server.
//
// Parses a free-text salary question, searches the web for salary figures,
// extracts structured records with an LLM and renders a report. Runs as a
// one-shot CLI, a stdio MCP server or an HTTP MCP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_salary/internal/engine"
	"github.com/anatolykoptev/go_salary/internal/engine/salary"
	"github.com/anatolykoptev/go_salary/internal/salaryserver"
	"github.com/anatolykoptev/go_salary/internal/ui"
	"github.com/spf13/cobra"
)

// DefaultQuery is analyzed when no mode flag is given.
const DefaultQuery = "data engineer salary of 5 year experience candidate in pune"

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8892")
)

var (
	flagQuery   bool
	flagMCP     bool
	flagMCPHTTP bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "salary-analyzer [--query query words...]",
	Short: "Research salaries for a job title, location and experience level",
	Long: `Runs the salary pipeline: parse the question, search the web, extract
salary records with an LLM and print a report.

Without flags the built-in example query is analyzed. Use --query to analyze
your own question, or --mcp / --mcp-http to serve the pipeline as MCP tools.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		initLogging(flagVerbose)
	},
	RunE: runRoot,
}

func init() {
	rootCmd.Flags().BoolVar(&flagQuery, "query", false, "Analyze the query formed by the remaining arguments")
	rootCmd.Flags().BoolVar(&flagMCP, "mcp", false, "Serve MCP tools over stdio")
	rootCmd.Flags().BoolVar(&flagMCPHTTP, "mcp-http", false, "Serve MCP tools over HTTP on MCP_PORT")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.MarkFlagsMutuallyExclusive("query", "mcp", "mcp-http")
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("salary-analyzer failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	query, err := batchQuery(flagQuery, args)
	if err != nil {
		return err
	}

	c := loadConfig()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	search, err := engine.NewSearcher(c)
	if err != nil {
		return err
	}
	deps := salaryserver.Deps{
		LLM:    engine.NewCompleter(c),
		Search: search,
		Options: salary.Options{
			LLMTimeout:  c.LLMTimeout,
			SearchPause: c.SearchPause,
		},
	}
	slog.Debug("backends ready",
		slog.String("search", c.SearchBackend),
		slog.String("llm", c.LLMProvider),
		slog.String("model", c.LLMModel),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case flagMCP:
		return serveStdio(ctx, deps)
	case flagMCPHTTP:
		return serveHTTP(deps)
	}

	return analyze(ctx, cmd, deps, query)
}

var errNoQueryText = errors.New("--query needs query text")

// batchQuery returns the joined args when useArgs is set and DefaultQuery
// otherwise. Positional words are rejected without --query.
func batchQuery(useArgs bool, args []string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	switch {
	case useArgs && text == "":
		return "", errNoQueryText
	case useArgs:
		return text, nil
	case text != "":
		return "", fmt.Errorf("unexpected arguments %q: use --query to analyze them", text)
	}
	return DefaultQuery, nil
}

func analyze(ctx context.Context, cmd *cobra.Command, deps salaryserver.Deps, query string) error {
	out, err := salary.NewPipeline(deps.LLM, deps.Search, deps.Options).Run(ctx, query)
	if err != nil {
		ui.PrintError(cmd.ErrOrStderr(), err)
		return err
	}
	ui.PrintReport(cmd.OutOrStdout(), out.Report)
	return nil
}

func serveStdio(ctx context.Context, deps salaryserver.Deps) error {
	slog.Info("starting go_salary", slog.String("transport", "stdio"))
	server := salaryserver.NewServer(version, deps)
	if err := salaryserver.ServeStdio(ctx, server); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func serveHTTP(deps salaryserver.Deps) error {
	slog.Info("starting go_salary", slog.String("transport", "http"), slog.String("port", mcpPort))
	server := salaryserver.NewServer(version, deps)
	return mcpserver.Run(server, mcpserver.Config{
		Name:         salaryserver.Name,
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 300 * time.Second,
		Metrics:      engine.FormatMetrics,
	})
}

func loadConfig() engine.Config {
	return engine.Config{
		SearchBackend:      env.Str("SEARCH_BACKEND", engine.BackendGoogle),
		GoogleAPIKey:       env.Str("GOOGLE_API_KEY", ""),
		GoogleCSEID:        env.Str("GOOGLE_CSE_ID", ""),
		GoogleCSEURL:       env.Str("GOOGLE_CSE_URL", engine.DefaultGoogleCSEURL),
		SearxngURL:         env.Str("SEARXNG_URL", ""),
		SearchTimeout:      env.Duration("SEARCH_TIMEOUT", 10*time.Second),
		SearchPause:        env.Duration("SEARCH_PAUSE", time.Second),
		LLMProvider:        env.Str("LLM_PROVIDER", engine.ProviderGoKit),
		LLMAPIKey:          env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:         env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:           env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:     env.Float("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:       env.Int("LLM_MAX_TOKENS", 4096),
		LLMTimeout:         env.Duration("LLM_TIMEOUT", 60*time.Second),
	}
}

// initLogging installs a text handler on stderr; stdout carries the report
// and the stdio MCP channel.
func initLogging(verbose bool) {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(env.Str("LOG_LEVEL", "info"))); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/contentgen/internal/config"
	"github.com/dusk-indust/contentgen/internal/llmpool"
	"github.com/dusk-indust/contentgen/internal/mcptools"
	"github.com/dusk-indust/contentgen/internal/pipeline"
	"github.com/dusk-indust/contentgen/internal/stages"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Input       string
	OutputDir   string
	Endpoint    string
	Model       string
	MaxAttempts int
	Verbose     bool
	ServeMCP    bool
	MCPAddr     string
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("contentgen", flag.ContinueOnError)
	fs.StringVar(&flags.Input, "input", "", "path to a JSON product record (default: stdin)")
	fs.StringVar(&flags.OutputDir, "output-dir", "", "output directory for the generated bundles")
	fs.StringVar(&flags.Endpoint, "endpoint", "", "completion service endpoint URL")
	fs.StringVar(&flags.Model, "model", "", "completion model name")
	fs.IntVar(&flags.MaxAttempts, "max-attempts", 0, "retry budget per completion call")
	fs.BoolVar(&flags.Verbose, "verbose", false, "print per-stage progress")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server on stdio")
	fs.StringVar(&flags.MCPAddr, "mcp-http", "", "run as MCP server on this HTTP address")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, flags)

	logLevel := slog.LevelWarn
	if cfg.Verbose {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := func(outputDir string) (mcptools.Runner, error) {
		return buildExecutor(cfg, outputDir, logger, nil)
	}

	if flags.ServeMCP || flags.MCPAddr != "" {
		svc := mcptools.NewContentService(factory, cfg.OutputDir)
		if flags.MCPAddr != "" {
			return mcptools.RunMCPServerHTTP(ctx, svc, flags.MCPAddr)
		}
		return mcptools.RunMCPServerStdio(ctx, mcptools.NewContentMCPServer(svc))
	}

	raw, err := readProduct(flags.Input)
	if err != nil {
		return err
	}

	var progressDone chan struct{}
	exec, err := buildExecutor(cfg, cfg.OutputDir, logger, func(exec *pipeline.Executor) {
		if !cfg.Verbose {
			return
		}
		progressDone = make(chan struct{})
		go func() {
			defer close(progressDone)
			for ev := range exec.Progress() {
				fmt.Fprintln(os.Stderr, pipeline.FormatProgress(ev))
			}
		}()
	})
	if err != nil {
		return err
	}

	state, err := exec.Run(ctx, map[string]any{stages.InputRaw: raw})
	exec.Close()
	if progressDone != nil {
		<-progressDone
	}
	if err != nil {
		return err
	}

	printSummary(state)
	if state.Phase != pipeline.PhaseCompleted {
		return fmt.Errorf("run %s finished with phase %s", state.RunID, state.Phase)
	}
	return nil
}

func applyFlags(cfg *config.ProjectConfig, flags cliFlags) {
	if flags.OutputDir != "" {
		cfg.OutputDir = flags.OutputDir
	}
	if flags.Endpoint != "" {
		cfg.Endpoint = flags.Endpoint
	}
	if flags.Model != "" {
		cfg.Model = flags.Model
	}
	if flags.MaxAttempts > 0 {
		cfg.MaxAttempts = flags.MaxAttempts
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = llmpool.DefaultMaxAttempts
	}
}

// buildExecutor wires the completion pool, stage set and graph executor for
// one run. onBuild, when set, is called before the executor is returned so
// the caller can attach a progress consumer.
func buildExecutor(cfg *config.ProjectConfig, outputDir string, logger *slog.Logger, onBuild func(*pipeline.Executor)) (*pipeline.Executor, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("completion endpoint not configured (set endpoint in contentgen.yml or -endpoint)")
	}

	pool, err := llmpool.NewPool(cfg.APIKeys, func(credential string) llmpool.CompletionClient {
		return llmpool.NewHTTPClient(cfg.Endpoint, cfg.Model, credential)
	},
		llmpool.WithMaxAttempts(cfg.MaxAttempts),
		llmpool.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("credentials: %w (set %s)", err, config.EnvAPIKeys)
	}

	st := stages.New(pool, outputDir, stages.WithLogger(logger))
	graph, err := st.Graph()
	if err != nil {
		return nil, err
	}
	exec, err := pipeline.NewExecutor(graph, pipeline.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if onBuild != nil {
		onBuild(exec)
	}
	return exec, nil
}

func readProduct(path string) (map[string]any, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read product record: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse product record: %w", err)
	}
	return raw, nil
}

func printSummary(state *pipeline.State) {
	fmt.Printf("run %s: %s\n", state.RunID, state.Phase)

	if files, ok := state.Artifacts[stages.StageWrite].([]string); ok {
		for _, f := range files {
			fmt.Printf("  wrote %s\n", f)
		}
	}
	for name, m := range state.Metrics {
		fmt.Printf("  %s: %d in / %d out tokens, %dms\n", name, m.TokensIn, m.TokensOut, m.ElapsedMs)
	}
	for _, e := range state.Errors {
		fmt.Printf("  error [%s]: %s\n", e.Stage, e.Message)
	}
}

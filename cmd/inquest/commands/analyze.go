package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/inquesthq/inquest/internal/analysis"
	"github.com/inquesthq/inquest/internal/config"
	"github.com/inquesthq/inquest/internal/eventbus"
	"github.com/inquesthq/inquest/internal/knowledge"
	"github.com/inquesthq/inquest/internal/lifecycle"
	"github.com/inquesthq/inquest/internal/logging"
	"github.com/inquesthq/inquest/internal/metrics"
	"github.com/inquesthq/inquest/internal/strategies"
	"github.com/inquesthq/inquest/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// maxConcurrentFiles bounds the errgroup that reads and analyzes input files.
const maxConcurrentFiles = 4

var (
	configPath      string
	analysisTimeout time.Duration
	noCache         bool
	strategyIDs     []string
	knowledgePath   string
	outputFormat    string
	metricsListen   string
	otlpEndpoint    string
	showEvents      bool
	// Inline error record flags
	inlineMessage  string
	inlineCode     string
	inlineCritical bool
	inlineSource   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Analyze recorded errors and report probable root causes",
	Long: `Analyze runs the causal analysis pipeline over recorded errors.

Each input file (JSON or YAML) holds one error record plus the system context
it occurred in: {"error": {...}, "context": {...}}. Multiple files are
analyzed concurrently and results print to stdout in input order. With
--message a single record is built from flags instead of input files.`,
	Run: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML config file (built-in defaults when empty)")
	analyzeCmd.Flags().DurationVar(&analysisTimeout, "timeout", 0, "Strategy deadline per analysis, e.g. 2s (config value when zero)")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the result cache")
	analyzeCmd.Flags().StringSliceVar(&strategyIDs, "strategies", nil,
		"Exact strategy ids to run instead of automatic selection\n"+
			"(event-correlation, dependency-analysis, pattern-matching, state-analysis)")
	analyzeCmd.Flags().StringVar(&knowledgePath, "knowledge-base", "", "Path to the knowledge base YAML file (overrides the config value)")
	analyzeCmd.Flags().StringVar(&outputFormat, "format", "json", "Output format: json or yaml")
	analyzeCmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "host:port for the prometheus scrape endpoint (overrides the config value)")
	analyzeCmd.Flags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint for traces (overrides the config value)")
	analyzeCmd.Flags().BoolVar(&showEvents, "show-events", false, "Print engine events to stderr as JSON lines while analyses run")

	analyzeCmd.Flags().StringVar(&inlineMessage, "message", "", "Error message to analyze inline instead of input files")
	analyzeCmd.Flags().StringVar(&inlineCode, "code", "", "Machine error code for --message (e.g. ETIMEDOUT)")
	analyzeCmd.Flags().BoolVar(&inlineCritical, "critical", false, "Mark the --message error as critical")
	analyzeCmd.Flags().StringVar(&inlineSource, "source", "", "Component that raised the --message error")
}

func runAnalyze(cmd *cobra.Command, args []string) {
	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	// Results own stdout; all diagnostics go to stderr.
	logging.SetOutput(os.Stderr)
	logger := logging.GetLogger("cli.analyze")

	if outputFormat != "json" && outputFormat != "yaml" {
		HandleError(fmt.Errorf("unsupported format %q (must be json or yaml)", outputFormat), "Invalid arguments")
	}
	if inlineMessage == "" && len(args) == 0 {
		HandleError(fmt.Errorf("provide input files or --message"), "Nothing to analyze")
	}
	if inlineMessage != "" && len(args) > 0 {
		HandleError(fmt.Errorf("--message cannot be combined with input files"), "Invalid arguments")
	}
	if inlineMessage == "" && (inlineCode != "" || inlineSource != "" || inlineCritical) {
		HandleError(fmt.Errorf("--code, --critical and --source require --message"), "Invalid arguments")
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		HandleError(err, "Configuration error")
	}
	// CLI flags override file values.
	if cmd.Flags().Changed("knowledge-base") {
		cfg.KnowledgeBase = knowledgePath
	}
	if cmd.Flags().Changed("metrics-listen") {
		cfg.MetricsListen = metricsListen
	}
	if cmd.Flags().Changed("otlp-endpoint") {
		cfg.Tracing.Endpoint = otlpEndpoint
	}
	if err := cfg.Validate(); err != nil {
		HandleError(err, "Configuration error")
	}

	logger.Info("Starting Inquest v%s", Version)

	registry := prometheus.NewRegistry()
	sink := metrics.NewSink(registry)
	bus := eventbus.New(cfg.EventBufferSize)
	enricher := knowledge.NewEnricher(nil)

	analyzer, err := analysis.NewAnalyzer(cfg.ToEngine(), analysis.Dependencies{
		Bus:      bus,
		Metrics:  sink,
		Enricher: enricher,
	})
	HandleError(err, "Failed to create analyzer")
	for _, s := range strategies.Defaults() {
		analyzer.RegisterStrategy(s)
	}

	manager := lifecycle.NewManager()
	if err := manager.Register(bus); err != nil {
		HandleError(err, "Failed to register event bus")
	}
	if cfg.KnowledgeBase != "" {
		watcher, err := knowledge.NewWatcher(knowledge.WatcherConfig{Path: cfg.KnowledgeBase}, func(base *knowledge.Base) error {
			enricher.SetBase(base)
			return nil
		})
		HandleError(err, "Failed to create knowledge watcher")
		if err := manager.Register(watcher); err != nil {
			HandleError(err, "Failed to register knowledge watcher")
		}
	}
	if cfg.MetricsListen != "" {
		if err := manager.Register(metrics.NewListener(cfg.MetricsListen, registry)); err != nil {
			HandleError(err, "Failed to register metrics listener")
		}
	}

	provider, err := tracing.NewProvider(tracing.Config{
		Endpoint:       cfg.Tracing.Endpoint,
		TLSCAPath:      cfg.Tracing.TLSCAPath,
		TLSInsecure:    cfg.Tracing.TLSInsecure,
		ServiceVersion: Version,
	})
	if err != nil {
		logger.Warn("Failed to initialize tracing (continuing without tracing): %v", err)
		provider, _ = tracing.NewProvider(tracing.Config{})
	}
	if err := manager.Register(provider); err != nil {
		HandleError(err, "Failed to register tracing provider")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		HandleError(err, "Failed to start components")
	}

	// Drain engine events to stderr for the duration of the run.
	var eventsDone sync.WaitGroup
	unsubscribe := func() {}
	if showEvents {
		var events <-chan eventbus.Event
		events, unsubscribe = bus.Subscribe(eventbus.Wildcard)
		eventsDone.Add(1)
		go func() {
			defer eventsDone.Done()
			for ev := range events {
				line, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Fprintln(os.Stderr, string(line))
			}
		}()
	}

	opts := &analysis.Options{
		SkipCache:  noCache,
		Timeout:    analysisTimeout,
		Strategies: strategyIDs,
	}
	tracer := provider.Tracer("inquest.cli")

	var results []*analysis.AnalysisResult
	var inputErrs []error
	if inlineMessage != "" {
		rec := analysis.ErrorRecord{Message: inlineMessage, Code: inlineCode, Critical: inlineCritical}
		actx := &analysis.AnalysisContext{Source: inlineSource}
		results = []*analysis.AnalysisResult{analyzeOne(ctx, tracer, analyzer, rec, actx, opts)}
		inputErrs = make([]error, 1)
	} else {
		results, inputErrs = analyzeFiles(ctx, tracer, analyzer, args, opts)
	}

	unsubscribe()
	eventsDone.Wait()

	failed := false
	for i, err := range inputErrs {
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", args[i], err)
			failed = true
		}
	}

	present := make([]*analysis.AnalysisResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			present = append(present, r)
		}
	}
	if len(present) > 0 {
		// A single input prints one document, several print a list.
		var doc interface{} = present
		if inlineMessage != "" || len(args) == 1 {
			doc = present[0]
		}
		out, err := encodeDocument(doc, outputFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode results: %v\n", err)
			failed = true
		} else {
			fmt.Print(string(out))
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	if err := manager.Stop(stopCtx); err != nil {
		logger.Warn("Shutdown reported errors: %v", err)
	}

	if failed {
		os.Exit(1)
	}
}

// analyzeFiles reads and analyzes every path concurrently. The returned
// slices are parallel to paths; a nil result pairs with the read or decode
// error that prevented the analysis. Analysis itself cannot fail.
func analyzeFiles(ctx context.Context, tracer trace.Tracer, analyzer *analysis.CausalAnalyzer, paths []string, opts *analysis.Options) ([]*analysis.AnalysisResult, []error) {
	results := make([]*analysis.AnalysisResult, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)
	for i, path := range paths {
		g.Go(func() error {
			input, err := readInput(path)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = analyzeOne(gctx, tracer, analyzer, input.Error, input.Context, opts)
			return nil
		})
	}
	_ = g.Wait() // workers record failures per file and never return an error

	return results, errs
}

// analyzeOne wraps a single pipeline run in a trace span.
func analyzeOne(ctx context.Context, tracer trace.Tracer, analyzer *analysis.CausalAnalyzer, rec analysis.ErrorRecord, actx *analysis.AnalysisContext, opts *analysis.Options) *analysis.AnalysisResult {
	ctx, span := tracer.Start(ctx, "analyze")
	defer span.End()

	result := analyzer.AnalyzeError(ctx, rec, actx, opts)
	span.SetAttributes(
		attribute.String("analysis.id", result.AnalysisID),
		attribute.Float64("analysis.confidence", result.Confidence),
		attribute.Int("analysis.rootCauses", len(result.RootCauses)),
	)
	return result
}

// analysisInput is the shape of one input file.
type analysisInput struct {
	Error   analysis.ErrorRecord      `json:"error"`
	Context *analysis.AnalysisContext `json:"context"`
}

// readInput loads one input file. Files with a .yaml or .yml extension
// decode as YAML, everything else as JSON.
func readInput(path string) (analysisInput, error) {
	var input analysisInput
	raw, err := os.ReadFile(path)
	if err != nil {
		return input, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = yamlToJSON(raw)
		if err != nil {
			return input, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, fmt.Errorf("failed to parse input: %w", err)
	}
	if input.Error.Message == "" {
		return input, fmt.Errorf("error.message is required")
	}
	return input, nil
}

// yamlToJSON re-encodes YAML as JSON so the camelCase json tags on the
// analysis types apply to YAML inputs as well.
func yamlToJSON(raw []byte) ([]byte, error) {
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

// encodeDocument renders doc in the requested output format. YAML output
// goes through a JSON round-trip so both formats share the camelCase keys.
func encodeDocument(doc interface{}, format string) ([]byte, error) {
	if format == "yaml" {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		var tree interface{}
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, err
		}
		return yaml.Marshal(tree)
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

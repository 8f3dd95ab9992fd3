// Command gotlive translates HTML documents with the gotlive engine.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/ZaguanLabs/gotlive"
	"github.com/ZaguanLabs/gotlive/cache"
	"github.com/ZaguanLabs/gotlive/config"
	"github.com/ZaguanLabs/gotlive/dom"
	"github.com/ZaguanLabs/gotlive/processor"
	"github.com/ZaguanLabs/gotlive/provider"
	"github.com/ZaguanLabs/gotlive/telemetry"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = gotlive.Version
	commit    = gotlive.GitCommit
	buildDate = gotlive.BuildDate
)

// newProvider builds the translation backend. Tests replace it.
var newProvider = func(cfg *config.Config) (gotlive.AIProvider, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, errors.New("OpenAI API key required (--api-key or OPENAI_API_KEY env)")
	}
	return provider.NewOpenAIProvider(provider.OpenAIConfig{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		BaseURL:     cfg.OpenAI.BaseURL,
	}), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runContext(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	return runContext(context.Background(), args, os.Stdin, stdout, stderr)
}

func runContext(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           gotlive.Name,
		Short:         gotlive.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Config file (YAML or TOML)")

	root.AddCommand(
		newTranslateCmd(),
		newSegmentsCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", gotlive.Name, version)
			if commit != "unknown" && commit != "" {
				fmt.Fprintf(out, "  commit:  %s\n", commit)
			}
			if buildDate != "unknown" && buildDate != "" {
				fmt.Fprintf(out, "  built:   %s\n", buildDate)
			}
		},
	}
}

type translateOptions struct {
	lang      string
	source    string
	model     string
	apiKey    string
	output    string
	jsonOut   bool
	quiet     bool
	dumpCache string
	rpm       int
	redisURL  string
}

func newTranslateCmd() *cobra.Command {
	var opts translateOptions

	cmd := &cobra.Command{
		Use:   "translate [file]",
		Short: "Translate an HTML document (reads stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.lang == "" {
				return errors.New("--lang is required")
			}
			configPath, _ := cmd.Flags().GetString("config")
			return runTranslate(cmd, configPath, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.lang, "lang", "l", "", "Target language code (e.g., es_ES, ja_JP)")
	f.StringVar(&opts.source, "source", "", "Source (default) language code")
	f.StringVar(&opts.model, "model", "", "OpenAI model to use")
	f.StringVar(&opts.apiKey, "api-key", "", "OpenAI API key (default: OPENAI_API_KEY env)")
	f.StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")
	f.BoolVar(&opts.jsonOut, "json", false, "Output result as JSON")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress output")
	f.StringVar(&opts.dumpCache, "dump-cache", "", "Write the translation memo to this JSON file")
	f.IntVar(&opts.rpm, "rpm", 0, "Provider requests per minute (0 = unlimited)")
	f.StringVar(&opts.redisURL, "redis-url", "", "Share translations through Redis")

	return cmd
}

func runTranslate(cmd *cobra.Command, configPath string, args []string, opts translateOptions) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.Level()
	if opts.quiet {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	shutdown, err := telemetry.Setup(ctx, gotlive.Name, version, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("gotlive: tracer shutdown failed", "error", err)
		}
	}()

	input, inputName, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	doc, err := dom.Parse(input)
	if err != nil {
		return &gotlive.ProcessorError{Message: "failed to parse " + inputName, Cause: err}
	}

	p, err := newProvider(cfg)
	if err != nil {
		return err
	}
	if cfg.RequestsPerMinute > 0 {
		p = gotlive.NewRateLimitedProvider(p, gotlive.RateLimitConfig{
			RequestsPerMinute: cfg.RequestsPerMinute,
			BurstSize:         1,
		})
	}

	memoOpts := []cache.MemoOption{cache.WithLogger(logger)}
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			URL:       cfg.Redis.URL,
			TTL:       cfg.Redis.TTL,
			KeyPrefix: cfg.Redis.KeyPrefix,
			Session:   cfg.Redis.Session,
		})
		if err != nil {
			return &gotlive.CacheError{Message: "failed to connect to Redis", Cause: err}
		}
		defer rc.Close()
		logger.Debug("gotlive: using redis cache", "prefix", rc.Prefix())
		memoOpts = append(memoOpts, cache.WithBackend(rc))
	}
	memo := cache.NewMemo(memoOpts...)

	engineOpts := append(cfg.EngineOptions(), gotlive.WithLogger(logger), gotlive.WithCache(memo))
	engine := gotlive.NewEngine(doc, p, engineOpts...)
	defer engine.Close()

	if !opts.quiet {
		fmt.Fprintf(stderr, "Translating %s to %s...\n", inputName, gotlive.LanguageName(opts.lang))
	}

	start := time.Now()
	result, err := engine.Translate(ctx, opts.lang)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	content, err := doc.HTML()
	if err != nil {
		return &gotlive.ProcessorError{Message: "failed to render document", Cause: err}
	}

	if opts.dumpCache != "" {
		meta := map[string]string{"source": inputName, "language": result.Language}
		if err := cache.NewExporter(memo).ExportToFile(opts.dumpCache, meta); err != nil {
			return &gotlive.CacheError{Message: "failed to dump cache", Cause: err}
		}
	}

	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if opts.jsonOut {
		return outputJSON(out, content, result, elapsed)
	}

	fmt.Fprint(out, content)

	if !opts.quiet {
		fmt.Fprintf(stderr, "\nDone in %v\n", elapsed.Round(time.Millisecond))
		fmt.Fprintf(stderr, "  Segments:     %d\n", result.Segments)
		fmt.Fprintf(stderr, "  Translated:   %d\n", result.Translated)
		fmt.Fprintf(stderr, "  From cache:   %d\n", result.CacheHits)
		if result.FailedBatches > 0 {
			fmt.Fprintf(stderr, "  Failed:       %d of %d batches\n", result.FailedBatches, result.Batches)
		}
	}

	return nil
}

// applyFlags overlays explicitly set command-line values on cfg.
func applyFlags(cfg *config.Config, opts translateOptions) {
	if opts.source != "" {
		cfg.DefaultLanguage = opts.source
	}
	if opts.model != "" {
		cfg.OpenAI.Model = opts.model
	}
	if opts.apiKey != "" {
		cfg.OpenAI.APIKey = opts.apiKey
	}
	if opts.rpm > 0 {
		cfg.RequestsPerMinute = opts.rpm
	}
	if opts.redisURL != "" {
		cfg.Redis.URL = opts.redisURL
	}
}

func readInput(cmd *cobra.Command, args []string) (content, name string, err error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(args[0]) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), filepath.Base(args[0]), nil
}

// JSONOutput represents the JSON output format.
type JSONOutput struct {
	Content   string          `json:"content"`
	Result    *gotlive.Result `json:"result"`
	ElapsedMs int64           `json:"elapsed_ms"`
}

func outputJSON(w io.Writer, content string, result *gotlive.Result, elapsed time.Duration) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(JSONOutput{
		Content:   content,
		Result:    result,
		ElapsedMs: elapsed.Milliseconds(),
	})
}

func newSegmentsCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "segments [file]",
		Short: "List the segments a translation pass would send, without calling a provider",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, inputName, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			doc, err := dom.Parse(input)
			if err != nil {
				return &gotlive.ProcessorError{Message: "failed to parse " + inputName, Cause: err}
			}

			var pass *processor.Pass
			doc.Do(func(root *html.Node) {
				pass = processor.NewExtractor().Extract(root, nil)
			})

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					InputFile string              `json:"input_file"`
					Locations int                 `json:"locations"`
					Segments  []processor.Segment `json:"segments"`
				}{inputName, pass.Entries(), pass.Segments})
			}

			fmt.Fprintf(out, "%s: %d segments in %d locations\n\n", inputName, len(pass.Segments), pass.Entries())
			for _, s := range pass.Segments {
				text := s.Text
				if len(text) > 60 {
					text = text[:57] + "..."
				}
				fmt.Fprintf(out, "%5s  %q\n", s.ID, text)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

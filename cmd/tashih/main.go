// Command tashih processes speech transcripts offline. It reads one JSON
// TranscriptInput per line from stdin and writes one JSON
// TranscriptionResult per line to stdout.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hakimlabs/tashih/internal/config"
	"github.com/hakimlabs/tashih/internal/feedback"
	"github.com/hakimlabs/tashih/internal/normalize"
	"github.com/hakimlabs/tashih/internal/observe"
	"github.com/hakimlabs/tashih/internal/pipeline"
	"github.com/hakimlabs/tashih/internal/rules"
	"github.com/hakimlabs/tashih/internal/terminology"
	"github.com/hakimlabs/tashih/pkg/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	feedbackMode := flag.Bool("feedback", false, "read clinician feedback submissions instead of transcripts")
	flag.Parse()

	cfg := &config.Config{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tashih: %v\n", err)
			return 1
		}
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	if *feedbackMode {
		if cfg.Feedback.Path == "" {
			fmt.Fprintln(os.Stderr, "tashih: feedback mode requires feedback.path in the config")
			return 1
		}
		if err := collectFeedback(feedback.NewFileStore(cfg.Feedback.Path), os.Stdin); err != nil {
			slog.Error("feedback intake error", "err", err)
			return 1
		}
		return 0
	}

	// Rule tables are the sole global state; a broken table file is fatal.
	tables, err := loadTables(cfg.Rules.Path)
	if err != nil {
		slog.Error("failed to load rule tables", "err", err)
		return 1
	}
	slog.Info("rule tables loaded",
		"version", tables.Mapping.Version,
		"mapping_rules", len(tables.Mapping.Rules))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "tashih"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	p := pipeline.New(
		normalize.New(tables.Normalization),
		terminology.New(tables.Mapping, mapperOptions(cfg.Mapping)...),
		pipeline.WithMetrics(observe.DefaultMetrics()),
	)

	if err := processLines(ctx, p, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("processing error", "err", err)
		return 1
	}
	return 0
}

// processLines decodes one TranscriptInput per line from r and writes one
// TranscriptionResult per line to w. Blank lines are skipped; a malformed
// line yields a failure result rather than aborting the batch.
func processLines(ctx context.Context, p *pipeline.Pipeline, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var in types.TranscriptInput
		if err := json.Unmarshal(line, &in); err != nil {
			if encErr := enc.Encode(types.TranscriptionResult{
				Success: false,
				Error:   fmt.Sprintf("decode input: %v", err),
			}); encErr != nil {
				return fmt.Errorf("encode result: %w", encErr)
			}
			continue
		}

		if err := enc.Encode(p.Process(ctx, in)); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func loadTables(path string) (*rules.Tables, error) {
	if path == "" {
		return rules.Default()
	}
	return rules.Load(path)
}

func mapperOptions(mc config.MappingConfig) []terminology.Option {
	var opts []terminology.Option
	if mc.ContextWindow > 0 {
		opts = append(opts, terminology.WithContextWindow(mc.ContextWindow))
	}
	if mc.TemporalBoost > 0 {
		opts = append(opts, terminology.WithTemporalBoost(mc.TemporalBoost))
	}
	if mc.SeverityBoost > 0 {
		opts = append(opts, terminology.WithSeverityBoost(mc.SeverityBoost))
	}
	return opts
}

func newLogger(level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level.Slog(),
	}))
}

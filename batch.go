package gotlive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ZaguanLabs/gotlive/cache"
)

const (
	// DefaultBatchSize is the largest number of segments sent in one provider call.
	DefaultBatchSize = 40
	// DefaultBatchDelay is the pause between two consecutive batches.
	DefaultBatchDelay = 250 * time.Millisecond
)

const tracerName = "github.com/ZaguanLabs/gotlive"

// BatchConfig configures a BatchClient. Zero values take the defaults.
type BatchConfig struct {
	Size  int
	Delay time.Duration // negative disables the pause between batches
	Retry *RetryPolicy  // nil means DefaultRetryPolicy

	SourceLang    string
	ExcludedTerms []string
	Context       string
	Glossary      map[string]string
	Style         TranslationStyle

	Logger *slog.Logger
}

func (c *BatchConfig) defaults() {
	if c.Size <= 0 {
		c.Size = DefaultBatchSize
	}
	if c.Delay < 0 {
		c.Delay = 0
	} else if c.Delay == 0 {
		c.Delay = DefaultBatchDelay
	}
	if c.Retry == nil {
		p := DefaultRetryPolicy()
		c.Retry = &p
	}
	if c.SourceLang == "" {
		c.SourceLang = "en"
	}
	if c.Style == "" {
		c.Style = StyleNeutral
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// BatchReport summarizes one BatchClient.Translate call.
type BatchReport struct {
	Segments   int `json:"segments"`
	CacheHits  int `json:"cache_hits"`
	Batches    int `json:"batches"`
	Failed     int `json:"failed_batches"`
	Retries    int `json:"retries"`
	Translated int `json:"translated"` // segments the provider returned
	Added      int `json:"added"`      // entries newly stored in the memo
}

// BatchClient fetches translations for memo misses in bounded, sequential
// batches and merges every result into the memo as it arrives.
type BatchClient struct {
	provider AIProvider
	memo     *cache.Memo
	cfg      BatchConfig
	tracer   trace.Tracer
}

// NewBatchClient creates a BatchClient writing into memo.
func NewBatchClient(provider AIProvider, memo *cache.Memo, cfg BatchConfig) *BatchClient {
	cfg.defaults()
	return &BatchClient{
		provider: provider,
		memo:     memo,
		cfg:      cfg,
		tracer:   otel.Tracer(tracerName),
	}
}

// Translate fetches every segment of segments that the memo does not hold
// for lang. onPartial, when non-nil, runs after each successful batch with
// the translations it produced, keyed by source text.
//
// A failed batch is logged and skipped. Translate returns
// ErrAllBatchesFailed only when at least one batch was sent and none
// succeeded. Cancelling ctx stops before the next batch.
func (c *BatchClient) Translate(ctx context.Context, lang string, segments []Segment, onPartial func(map[string]string)) (*BatchReport, error) {
	report := &BatchReport{Segments: len(segments)}

	var misses []Segment
	for _, seg := range segments {
		if _, ok := c.memo.Lookup(lang, seg.Text); ok {
			report.CacheHits++
			continue
		}
		misses = append(misses, seg)
	}
	if len(misses) == 0 || c.provider == nil {
		return report, nil
	}

	var lastErr error
	for start := 0; start < len(misses); start += c.cfg.Size {
		if start > 0 {
			if err := sleepContext(ctx, c.cfg.Delay); err != nil {
				return report, err
			}
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		end := min(start+c.cfg.Size, len(misses))
		batch := misses[start:end]
		report.Batches++

		got, err := c.translateBatch(ctx, lang, batch, report)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			lastErr = err
			c.cfg.Logger.Warn("gotlive: batch failed",
				"language", lang,
				"batch", report.Batches,
				"segments", len(batch),
				"error", err,
			)
			continue
		}

		report.Translated += len(got)
		report.Added += c.memo.Merge(lang, got)
		if onPartial != nil && len(got) > 0 {
			onPartial(got)
		}
	}

	if report.Batches > 0 && report.Failed == report.Batches {
		return report, fmt.Errorf("%w: %w", ErrAllBatchesFailed, lastErr)
	}
	return report, nil
}

// translateBatch sends one batch and returns its translations keyed by
// source text. Ids the batch did not ask for are dropped.
func (c *BatchClient) translateBatch(ctx context.Context, lang string, batch []Segment, report *BatchReport) (map[string]string, error) {
	ctx, span := c.tracer.Start(ctx, "gotlive.batch", trace.WithAttributes(
		attribute.String("gotlive.language", lang),
		attribute.Int("gotlive.segments", len(batch)),
	))
	defer span.End()

	req := TranslateRequest{
		Segments:       batch,
		TargetLanguage: LanguageName(lang),
		TargetLang:     lang,
		SourceLang:     c.cfg.SourceLang,
		ExcludedTerms:  c.cfg.ExcludedTerms,
		Context:        c.cfg.Context,
		Glossary:       c.cfg.Glossary,
		Style:          c.cfg.Style,
	}

	attempts := 0
	resp, err := WithRetry(ctx, *c.cfg.Retry, func() (*TranslateResponse, error) {
		if attempts > 0 {
			report.Retries++
			c.cfg.Logger.Info("gotlive: retrying rate-limited batch", "language", lang, "attempt", attempts+1)
		}
		attempts++
		return c.provider.Translate(ctx, req)
	})
	span.SetAttributes(attribute.Int("gotlive.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var malformed *MalformedResponseError
		if errors.As(err, &malformed) {
			c.cfg.Logger.Debug("gotlive: malformed response", "language", lang, "content", malformed.Content)
		}
		return nil, err
	}
	if resp == nil {
		return map[string]string{}, nil
	}

	texts := make(map[string]string, len(batch))
	for _, seg := range batch {
		texts[seg.ID] = seg.Text
	}

	got := make(map[string]string, len(resp.Translations))
	for _, tr := range resp.Translations {
		text, ok := texts[tr.ID]
		if !ok || tr.Text == "" {
			continue
		}
		got[text] = tr.Text
	}
	if missing := len(batch) - len(got); missing > 0 {
		c.cfg.Logger.Debug("gotlive: partial batch response", "language", lang, "missing", missing)
	}
	span.SetAttributes(attribute.Int("gotlive.translated", len(got)))
	return got, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

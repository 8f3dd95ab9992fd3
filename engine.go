package gotlive

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/ZaguanLabs/gotlive/cache"
	"github.com/ZaguanLabs/gotlive/dom"
	"github.com/ZaguanLabs/gotlive/processor"
)

// Result describes one Translate call.
type Result struct {
	Epoch         uint64 `json:"epoch"`
	Language      string `json:"language"`
	Status        Status `json:"status"`
	Segments      int    `json:"segments"`
	CacheHits     int    `json:"cache_hits"`
	Translated    int    `json:"translated"`
	Batches       int    `json:"batches"`
	FailedBatches int    `json:"failed_batches"`
	Added         int    `json:"added"`    // segments not present in the previous pass
	Restored      int    `json:"restored"` // locations written back on revert
	Stale         bool   `json:"stale"`    // a newer call superseded this one
}

// Engine keeps a dom.Document translated into the selected language.
//
// Translate may be called from several goroutines; the newest call wins.
// After a pass for a non-default language the engine watches the document
// and re-runs on new content once mutations settle.
type Engine struct {
	doc       *dom.Document
	memo      *cache.Memo
	extractor *processor.Extractor
	patcher   *processor.Patcher // guarded by the document lock
	client    *BatchClient
	observer  *Observer
	epochs    Epochs
	logger    *slog.Logger
	tracer    trace.Tracer

	defaultLang string
	batch       BatchConfig
	debounce    time.Duration

	runCtx  context.Context
	stopRun context.CancelFunc

	mu           sync.Mutex
	status       Status
	language     string
	dirty        bool
	lastTexts    []string
	closed       bool
	listeners    map[int]func(Status)
	nextListener int

	// nmu keeps listener deliveries in publication order.
	nmu sync.Mutex
}

// EngineOption is a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithCache shares a memo between engines or pre-warms it.
func WithCache(memo *cache.Memo) EngineOption {
	return func(e *Engine) {
		e.memo = memo
	}
}

// WithDefaultLanguage sets the document's own language (default "en").
// Selecting a language with the same base restores the original text.
func WithDefaultLanguage(lang string) EngineOption {
	return func(e *Engine) {
		e.defaultLang = NormalizeLocale(lang)
	}
}

// WithBatchSize sets the largest number of segments per provider call.
func WithBatchSize(n int) EngineOption {
	return func(e *Engine) {
		e.batch.Size = n
	}
}

// WithBatchDelay sets the pause between batches. Negative disables it.
func WithBatchDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.batch.Delay = d
	}
}

// WithRetryPolicy sets how rate-limited batches are retried.
func WithRetryPolicy(p RetryPolicy) EngineOption {
	return func(e *Engine) {
		e.batch.Retry = &p
	}
}

// WithDebounce sets the quiet period before an incremental re-run.
func WithDebounce(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.debounce = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithExtractor replaces the default segment extractor.
func WithExtractor(x *processor.Extractor) EngineOption {
	return func(e *Engine) {
		e.extractor = x
	}
}

// WithContext sets the global translation context sent to the provider.
func WithContext(ctx string) EngineOption {
	return func(e *Engine) {
		e.batch.Context = ctx
	}
}

// WithGlossary sets preferred translations for specific phrases.
func WithGlossary(glossary map[string]string) EngineOption {
	return func(e *Engine) {
		e.batch.Glossary = glossary
	}
}

// WithExcludedTerms sets terms that should not be translated.
func WithExcludedTerms(terms []string) EngineOption {
	return func(e *Engine) {
		e.batch.ExcludedTerms = terms
	}
}

// WithStyle sets the translation style/register.
func WithStyle(style TranslationStyle) EngineOption {
	return func(e *Engine) {
		e.batch.Style = style
	}
}

// NewEngine creates an Engine for doc and starts watching it.
func NewEngine(doc *dom.Document, provider AIProvider, opts ...EngineOption) *Engine {
	e := &Engine{
		doc:         doc,
		defaultLang: "en",
		debounce:    DefaultDebounce,
		logger:      slog.Default(),
		status:      StatusIdle,
		listeners:   make(map[int]func(Status)),
		tracer:      otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.memo == nil {
		e.memo = cache.NewMemo(cache.WithLogger(e.logger))
	}
	if e.extractor == nil {
		e.extractor = processor.NewExtractor()
	}
	e.patcher = processor.NewPatcher()

	e.batch.SourceLang = e.defaultLang
	e.batch.Logger = e.logger
	e.client = NewBatchClient(provider, e.memo, e.batch)

	e.runCtx, e.stopRun = context.WithCancel(context.Background())
	e.observer = NewObserver(doc, e.debounce, e.shouldRerun, e.rerun)

	return e
}

// Translate switches the document to lang. Selecting the default language
// restores the original text. Any other language starts a pass: cached
// translations are painted at once, the rest are fetched batch by batch and
// painted as they arrive.
//
// A call superseded by a newer one still fills the memo but leaves the
// document alone; its Result has Stale set and no error. Translate returns
// an error wrapping ErrAllBatchesFailed when the pass ends in StatusError.
func (e *Engine) Translate(ctx context.Context, lang string) (*Result, error) {
	lang = NormalizeLocale(lang)
	if lang == "" {
		return nil, &TranslationError{Message: "target language is required"}
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	epoch := e.epochs.Begin()
	e.language = lang
	e.dirty = false

	if e.isDefault(lang) {
		restored := 0
		e.doc.Do(func(*html.Node) {
			restored = e.patcher.Restore()
		})
		e.lastTexts = nil
		e.publish(StatusOriginal)

		e.logger.Info("gotlive: restored original text", "language", lang, "restored", restored)
		return &Result{Epoch: epoch, Language: lang, Status: StatusOriginal, Restored: restored}, nil
	}

	prev := e.lastTexts
	e.publish(StatusLoading)

	ctx, span := e.tracer.Start(ctx, "gotlive.pass", trace.WithAttributes(
		attribute.String("gotlive.language", lang),
		attribute.Int64("gotlive.epoch", int64(epoch)),
	))
	defer span.End()

	lookup := func(text string) (string, bool) {
		return e.memo.Lookup(lang, text)
	}

	var pass *processor.Pass
	e.doc.Do(func(root *html.Node) {
		pass = e.extractor.Extract(root, e.patcher)
		if e.epochs.IsCurrent(epoch) {
			e.patcher.Apply(pass, lookup)
		}
	})

	texts := pass.Texts()
	result := &Result{
		Epoch:    epoch,
		Language: lang,
		Segments: len(pass.Segments),
		Added:    len(DiffSegments(prev, texts).Added),
	}
	span.SetAttributes(attribute.Int("gotlive.segments", result.Segments))

	report, err := e.client.Translate(ctx, lang, pass.Segments, func(map[string]string) {
		e.paint(epoch, pass, lookup)
	})
	result.CacheHits = report.CacheHits
	result.Translated = report.Translated
	result.Batches = report.Batches
	result.FailedBatches = report.Failed

	e.mu.Lock()
	if !e.epochs.IsCurrent(epoch) {
		result.Status = e.status
		result.Stale = true
		e.mu.Unlock()

		span.SetAttributes(attribute.Bool("gotlive.stale", true))
		e.logger.Debug("gotlive: discarded stale pass", "language", lang, "epoch", epoch)
		return result, nil
	}

	status := StatusTranslated
	if err != nil && report.CacheHits == 0 && report.Translated == 0 && len(pass.Segments) > 0 {
		status = StatusError
	}
	e.lastTexts = texts
	rerun := e.dirty && status == StatusTranslated
	e.dirty = false
	e.publish(status)

	result.Status = status
	if rerun {
		e.observer.Trigger()
	}

	if err != nil {
		span.RecordError(err)
		if status == StatusError {
			span.SetStatus(codes.Error, err.Error())
			e.logger.Warn("gotlive: translation pass failed", "language", lang, "batches", report.Batches, "error", err)
			return result, err
		}
		if !errors.Is(err, ErrAllBatchesFailed) {
			return result, err
		}
	}

	e.logger.Info("gotlive: translation pass complete",
		"language", lang,
		"segments", result.Segments,
		"cache_hits", result.CacheHits,
		"translated", result.Translated,
		"failed_batches", result.FailedBatches,
	)
	return result, nil
}

// paint applies pass if epoch is still current. The check happens under the
// document lock so a newer pass cannot be overwritten.
func (e *Engine) paint(epoch uint64, pass *processor.Pass, lookup func(string) (string, bool)) {
	e.doc.Do(func(*html.Node) {
		if e.epochs.IsCurrent(epoch) {
			e.patcher.Apply(pass, lookup)
		}
	})
}

// publish sets the status and notifies listeners. It must be called with
// mu held and releases it.
func (e *Engine) publish(status Status) {
	changed := e.status != status
	e.status = status

	var fns []func(Status)
	if changed {
		fns = make([]func(Status), 0, len(e.listeners))
		for _, fn := range e.listeners {
			fns = append(fns, fn)
		}
	}

	e.nmu.Lock()
	e.mu.Unlock()
	for _, fn := range fns {
		fn(status)
	}
	e.nmu.Unlock()
}

func (e *Engine) shouldRerun(rec dom.Record) bool {
	if !rec.Structural() && !e.extractor.TracksAttribute(rec.Name) {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.language == "" || e.isDefault(e.language) {
		return false
	}
	switch e.status {
	case StatusLoading:
		e.dirty = true
	case StatusTranslated:
		return true
	}
	return false
}

func (e *Engine) rerun() {
	e.mu.Lock()
	lang := e.language
	ok := !e.closed && e.status == StatusTranslated && !e.isDefault(lang)
	e.mu.Unlock()
	if !ok {
		return
	}

	e.logger.Debug("gotlive: re-running after document changes", "language", lang)
	if _, err := e.Translate(e.runCtx, lang); err != nil && !errors.Is(err, ErrClosed) && e.runCtx.Err() == nil {
		e.logger.Warn("gotlive: incremental pass failed", "language", lang, "error", err)
	}
}

func (e *Engine) isDefault(lang string) bool {
	return IsSameBase(lang, e.defaultLang)
}

// OnStatus registers fn to receive every status change. Calls are made in
// order on the goroutine that changed the status; fn must not call back
// into the Engine.
func (e *Engine) OnStatus(fn func(Status)) (cancel func()) {
	e.mu.Lock()
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.listeners, id)
			e.mu.Unlock()
		})
	}
}

// Status returns the published status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Language returns the most recently selected language.
func (e *Engine) Language() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.language
}

// Epoch returns the id of the newest Translate call.
func (e *Engine) Epoch() uint64 {
	return e.epochs.Current()
}

// Memo returns the translation memo.
func (e *Engine) Memo() *cache.Memo {
	return e.memo
}

// Patched returns the number of document locations currently holding a translation.
func (e *Engine) Patched() int {
	n := 0
	e.doc.Do(func(*html.Node) {
		n = e.patcher.Len()
	})
	return n
}

// Close stops watching the document and cancels pending re-runs. In-flight
// Translate calls finish normally. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.observer.Stop()
	e.stopRun()
	return nil
}

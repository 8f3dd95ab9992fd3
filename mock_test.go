package gotlive

import (
	"context"
	"sync"
)

// scriptedProvider is a hand-rolled AIProvider for engine and batch tests.
type scriptedProvider struct {
	mu          sync.Mutex
	translate   func(lang, text string) (string, bool)
	errs        []error // consumed one per call, nil means success
	requests    []TranslateRequest
	gates       map[string]chan struct{}
	started     chan string
	omitUnknown bool
}

func newScriptedProvider(translations map[string]string) *scriptedProvider {
	return &scriptedProvider{
		translate: func(_, text string) (string, bool) {
			v, ok := translations[text]
			return v, ok
		},
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 64),
	}
}

// prefixProvider translates every text to "<lang>:<text>".
func prefixProvider() *scriptedProvider {
	p := newScriptedProvider(nil)
	p.translate = func(lang, text string) (string, bool) {
		return lang + ":" + text, true
	}
	return p
}

// gate makes calls for lang block until the returned function is called.
func (p *scriptedProvider) gate(lang string) (release func()) {
	ch := make(chan struct{})
	p.mu.Lock()
	p.gates[lang] = ch
	p.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (p *scriptedProvider) failNext(errs ...error) {
	p.mu.Lock()
	p.errs = append(p.errs, errs...)
	p.mu.Unlock()
}

func (p *scriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *scriptedProvider) Requests() []TranslateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TranslateRequest(nil), p.requests...)
}

func (p *scriptedProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	var err error
	if len(p.errs) > 0 {
		err = p.errs[0]
		p.errs = p.errs[1:]
	}
	gate := p.gates[req.TargetLang]
	p.mu.Unlock()

	select {
	case p.started <- req.TargetLang:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	resp := &TranslateResponse{}
	for _, seg := range req.Segments {
		translated, ok := p.translate(req.TargetLang, seg.Text)
		if !ok {
			if p.omitUnknown {
				continue
			}
			translated = "[" + seg.Text + "]"
		}
		resp.Translations = append(resp.Translations, Translation{ID: seg.ID, Text: translated})
	}
	return resp, nil
}

var _ AIProvider = (*scriptedProvider)(nil)

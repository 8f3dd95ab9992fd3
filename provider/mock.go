package provider

import (
	"context"
	"sync"

	"github.com/ZaguanLabs/gotlive"
)

// MockProvider is a deterministic provider for tests and dry runs.
type MockProvider struct {
	mu sync.Mutex

	Translations map[string]string // source text to translation
	Prefix       bool              // translate unknown text to "[lang] text"
	Omit         map[string]bool   // source texts left out of responses
	Errors       []error           // returned by the next calls, in order; nil means success

	callCount   int
	lastRequest *TranslateRequest
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":       "Hola",
			"World":       "Mundo",
			"Hello World": "Hola Mundo",
			"Welcome":     "Bienvenue",
			"Explore":     "Explorer",
		},
	}
}

// Translate returns mock translations. Unknown texts are bracketed unless
// Prefix is set.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.lastRequest = &req

	if len(m.Errors) > 0 {
		err := m.Errors[0]
		m.Errors = m.Errors[1:]
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := &TranslateResponse{}
	for _, seg := range req.Segments {
		if m.Omit[seg.Text] {
			continue
		}
		translated, ok := m.Translations[seg.Text]
		if !ok {
			if m.Prefix {
				translated = "[" + req.TargetLang + "] " + seg.Text
			} else {
				translated = "[" + seg.Text + "]"
			}
		}
		resp.Translations = append(resp.Translations, gotlive.Translation{ID: seg.ID, Text: translated})
	}
	return resp, nil
}

// CallCount returns the number of Translate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = nil
}

// Verify MockProvider implements AIProvider
var _ AIProvider = (*MockProvider)(nil)

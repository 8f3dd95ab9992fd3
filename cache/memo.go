package cache

import (
	"log/slog"
	"sort"
	"sync"
)

// Memo maps language -> normalized source text -> translation.
//
// Entries are additive only: once a (language, text) pair is stored it keeps
// its value for the lifetime of the Memo, whatever is merged later. Memo is
// safe for concurrent use.
type Memo struct {
	mu      sync.RWMutex
	entries map[string]map[string]string
	backend Backend
	logger  *slog.Logger
}

// MemoOption configures a Memo.
type MemoOption func(*Memo)

// WithBackend places a shared store behind the memo. It is consulted on
// in-process misses and receives every new entry.
func WithBackend(b Backend) MemoOption {
	return func(m *Memo) {
		m.backend = b
	}
}

// WithLogger sets the logger used to report backend failures.
func WithLogger(l *slog.Logger) MemoOption {
	return func(m *Memo) {
		m.logger = l
	}
}

// NewMemo creates an empty Memo.
func NewMemo(opts ...MemoOption) *Memo {
	m := &Memo{
		entries: make(map[string]map[string]string),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Lookup returns the translation of text into lang.
func (m *Memo) Lookup(lang, text string) (string, bool) {
	m.mu.RLock()
	v, ok := m.entries[lang][text]
	m.mu.RUnlock()

	if ok || m.backend == nil {
		return v, ok
	}

	v, ok = m.backend.Get(Key(lang, text))
	if !ok {
		return "", false
	}
	return m.adopt(lang, text, v), true
}

// Merge stores every translation whose key is not yet present and returns
// how many were added. Existing keys keep their value. Empty source or
// translated strings are ignored.
func (m *Memo) Merge(lang string, translations map[string]string) int {
	added := make(map[string]string, len(translations))

	m.mu.Lock()
	table := m.table(lang)
	for text, translated := range translations {
		if text == "" || translated == "" {
			continue
		}
		if _, exists := table[text]; exists {
			continue
		}
		table[text] = translated
		added[text] = translated
	}
	m.mu.Unlock()

	if m.backend != nil {
		for text, translated := range added {
			if _, err := m.backend.SetIfAbsent(Key(lang, text), translated); err != nil {
				m.logger.Warn("cache: backend write failed", "lang", lang, "error", err)
			}
		}
	}

	return len(added)
}

// Len returns the number of in-process entries for lang.
func (m *Memo) Len(lang string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries[lang])
}

// Languages returns the languages with at least one entry, sorted.
func (m *Memo) Languages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	langs := make([]string, 0, len(m.entries))
	for lang, table := range m.entries {
		if len(table) > 0 {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// Snapshot returns a copy of the in-process entries.
func (m *Memo) Snapshot() map[string]map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]map[string]string, len(m.entries))
	for lang, table := range m.entries {
		cp := make(map[string]string, len(table))
		for k, v := range table {
			cp[k] = v
		}
		out[lang] = cp
	}
	return out
}

func (m *Memo) adopt(lang, text, value string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	table := m.table(lang)
	if existing, ok := table[text]; ok {
		return existing
	}
	table[text] = value
	return value
}

// table must be called with the write lock held.
func (m *Memo) table(lang string) map[string]string {
	table, ok := m.entries[lang]
	if !ok {
		table = make(map[string]string)
		m.entries[lang] = table
	}
	return table
}

package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// ExportFormat represents the JSON structure of a memo dump.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Entries    []ExportEntry     `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportEntry represents a single memo entry.
type ExportEntry struct {
	Language    string `json:"language"`
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

// Exporter writes the contents of a Memo for inspection.
type Exporter struct {
	memo *Memo
}

// NewExporter creates a new memo exporter.
func NewExporter(memo *Memo) *Exporter {
	return &Exporter{memo: memo}
}

// Export writes the memo contents to a writer in JSON format, sorted by
// language then source text.
func (e *Exporter) Export(w io.Writer, metadata map[string]string) error {
	export := ExportFormat{
		Version:    "1.0",
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:    e.entries(),
		Metadata:   metadata,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

// ExportToFile exports the memo to a file.
// The path is provided by the caller and is intentionally user-controlled.
func (e *Exporter) ExportToFile(path string, metadata map[string]string) error {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return e.Export(f, metadata)
}

func (e *Exporter) entries() []ExportEntry {
	snapshot := e.memo.Snapshot()
	entries := make([]ExportEntry, 0)

	for lang, table := range snapshot {
		for text, translation := range table {
			entries = append(entries, ExportEntry{
				Language:    lang,
				Text:        text,
				Translation: translation,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Language != entries[j].Language {
			return entries[i].Language < entries[j].Language
		}
		return entries[i].Text < entries[j].Text
	})
	return entries
}

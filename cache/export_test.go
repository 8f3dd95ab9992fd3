package cache

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestExporter_Export(t *testing.T) {
	m := NewMemo()
	m.Merge("fr_FR", map[string]string{"Welcome": "Bienvenue", "Explore": "Explorer"})
	m.Merge("de_DE", map[string]string{"Welcome": "Willkommen"})

	exporter := NewExporter(m)
	var buf bytes.Buffer

	err := exporter.Export(&buf, map[string]string{"session": "abc"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var export ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("Failed to parse export: %v", err)
	}

	if export.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", export.Version)
	}

	if len(export.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(export.Entries))
	}

	// Sorted by language, then text
	first := export.Entries[0]
	if first.Language != "de_DE" || first.Translation != "Willkommen" {
		t.Errorf("Unexpected first entry: %+v", first)
	}
	if export.Entries[1].Text != "Explore" {
		t.Errorf("Expected 'Explore' second, got %+v", export.Entries[1])
	}

	if export.Metadata["session"] != "abc" {
		t.Errorf("Expected metadata session=abc, got %v", export.Metadata)
	}
}

func TestExporter_ExportToFile(t *testing.T) {
	m := NewMemo()
	m.Merge("es_ES", map[string]string{"Hello": "Hola"})

	path := filepath.Join(t.TempDir(), "memo.json")
	if err := NewExporter(m).ExportToFile(path, nil); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Contains(data, []byte(`"translation": "Hola"`)) {
		t.Errorf("Export file missing entry: %s", data)
	}
}

func TestExporter_EmptyMemo(t *testing.T) {
	var buf bytes.Buffer
	if err := NewExporter(NewMemo()).Export(&buf, nil); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var export ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("Failed to parse export: %v", err)
	}
	if len(export.Entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(export.Entries))
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZaguanLabs/gotlive"
	"github.com/ZaguanLabs/gotlive/cache"
	"github.com/ZaguanLabs/gotlive/config"
	"github.com/ZaguanLabs/gotlive/provider"
)

const page = `<html><head><title>Home</title></head><body><p>Hello</p><p>World</p><p>Hello</p></body></html>`

// useMock swaps the provider factory for the duration of the test.
func useMock(t *testing.T) *provider.MockProvider {
	t.Helper()
	mock := provider.NewMockProvider()
	orig := newProvider
	newProvider = func(*config.Config) (gotlive.AIProvider, error) { return mock, nil }
	t.Cleanup(func() { newProvider = orig })
	return mock
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := runContext(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"version"}, &stdout, &stderr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "gotlive") {
		t.Errorf("expected version output, got: %s", stdout.String())
	}
}

func TestTranslate_MissingLang(t *testing.T) {
	_, _, err := execute(t, page, "translate")
	if err == nil || !strings.Contains(err.Error(), "--lang is required") {
		t.Errorf("expected '--lang is required' error, got: %v", err)
	}
}

func TestTranslate_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, _, err := execute(t, page, "translate", "--lang", "es_ES", "--quiet")
	if err == nil || !strings.Contains(err.Error(), "API key required") {
		t.Errorf("expected API key error, got: %v", err)
	}
}

func TestTranslate_FromStdin(t *testing.T) {
	mock := useMock(t)

	out, _, err := execute(t, page, "translate", "--lang", "es_ES", "--quiet")
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}

	for _, want := range []string{"<title>[Home]</title>", "<p>Hola</p>", "<p>Mundo</p>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
	if strings.Contains(out, "<p>Hello</p>") {
		t.Errorf("untranslated text left in output: %s", out)
	}
	if mock.CallCount() != 1 {
		t.Errorf("provider called %d times, want 1", mock.CallCount())
	}
	if req := mock.LastRequest(); req == nil || len(req.Segments) != 3 {
		t.Errorf("expected 3 deduplicated segments in request, got %+v", req)
	}
}

func TestTranslate_ProgressOnStderr(t *testing.T) {
	useMock(t)
	input := writeFile(t, "index.html", page)

	_, stderr, err := execute(t, "", "translate", "--lang", "es_ES", input)
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if !strings.Contains(stderr, "Translating index.html to") {
		t.Errorf("missing progress line: %s", stderr)
	}
	if !strings.Contains(stderr, "Translated:") {
		t.Errorf("missing stats: %s", stderr)
	}
}

func TestTranslate_JSON(t *testing.T) {
	useMock(t)

	out, _, err := execute(t, page, "translate", "--lang", "es_ES", "--json", "--quiet")
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}

	var got JSONOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Result == nil {
		t.Fatal("missing result")
	}
	if got.Result.Status != gotlive.StatusTranslated {
		t.Errorf("status = %s, want translated", got.Result.Status)
	}
	if got.Result.Segments != 3 || got.Result.Translated != 3 {
		t.Errorf("segments=%d translated=%d, want 3/3", got.Result.Segments, got.Result.Translated)
	}
	if !strings.Contains(got.Content, "Hola") {
		t.Errorf("content not translated: %s", got.Content)
	}
}

func TestTranslate_DefaultLanguageLeavesDocument(t *testing.T) {
	mock := useMock(t)

	out, _, err := execute(t, page, "translate", "--lang", "en", "--json", "--quiet")
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}

	var got JSONOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Result.Status != gotlive.StatusOriginal {
		t.Errorf("status = %s, want original", got.Result.Status)
	}
	if !strings.Contains(got.Content, "<p>Hello</p>") {
		t.Errorf("document changed: %s", got.Content)
	}
	if mock.CallCount() != 0 {
		t.Errorf("provider called %d times for the default language", mock.CallCount())
	}
}

func TestTranslate_OutputAndDumpCache(t *testing.T) {
	useMock(t)
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.html")
	dumpPath := filepath.Join(dir, "memo.json")

	stdout, _, err := execute(t, page, "translate", "-l", "es_ES", "-o", outPath, "--dump-cache", dumpPath, "--quiet")
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if stdout != "" {
		t.Errorf("expected nothing on stdout, got %q", stdout)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "<p>Hola</p>") {
		t.Errorf("output file not translated: %s", data)
	}

	raw, err := os.ReadFile(dumpPath)
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}
	var dump cache.ExportFormat
	if err := json.Unmarshal(raw, &dump); err != nil {
		t.Fatalf("invalid dump: %v", err)
	}
	if len(dump.Entries) != 3 {
		t.Errorf("dump has %d entries, want 3", len(dump.Entries))
	}
	if dump.Metadata["language"] != "es_ES" {
		t.Errorf("dump metadata = %v", dump.Metadata)
	}
}

func TestTranslate_ProviderFailure(t *testing.T) {
	mock := useMock(t)
	mock.Errors = []error{&gotlive.ProviderError{Message: "boom"}}

	_, _, err := execute(t, page, "translate", "--lang", "es_ES", "--quiet")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, gotlive.ErrAllBatchesFailed) {
		t.Errorf("expected ErrAllBatchesFailed, got %v", err)
	}
}

func TestTranslate_ConfigFile(t *testing.T) {
	mock := useMock(t)
	cfgPath := writeFile(t, "gotlive.yaml", "default_language: de\ncontext: Online shop\n")

	_, _, err := execute(t, page, "translate", "--config", cfgPath, "--lang", "es_ES", "--quiet")
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}

	req := mock.LastRequest()
	if req == nil {
		t.Fatal("provider not called")
	}
	if req.SourceLang != "de" {
		t.Errorf("SourceLang = %q, want de", req.SourceLang)
	}
	if req.Context != "Online shop" {
		t.Errorf("Context = %q", req.Context)
	}
}

func TestTranslate_BadConfig(t *testing.T) {
	_, _, err := execute(t, page, "translate", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--lang", "es_ES")
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestSegments_Text(t *testing.T) {
	out, _, err := execute(t, page, "segments")
	if err != nil {
		t.Fatalf("segments failed: %v", err)
	}
	if !strings.Contains(out, "3 segments in 4 locations") {
		t.Errorf("unexpected summary: %s", out)
	}
	for _, want := range []string{`"Home"`, `"Hello"`, `"World"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSegments_JSON(t *testing.T) {
	input := writeFile(t, "page.html", page)

	out, _, err := execute(t, "", "segments", "--json", input)
	if err != nil {
		t.Fatalf("segments failed: %v", err)
	}

	var got struct {
		InputFile string `json:"input_file"`
		Locations int    `json:"locations"`
		Segments  []struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"segments"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.InputFile != "page.html" {
		t.Errorf("input_file = %q", got.InputFile)
	}
	if len(got.Segments) != 3 || got.Locations != 4 {
		t.Errorf("got %d segments in %d locations, want 3 in 4", len(got.Segments), got.Locations)
	}
	if got.Segments[0].Text != "Home" {
		t.Errorf("first segment = %q, want the title", got.Segments[0].Text)
	}
}

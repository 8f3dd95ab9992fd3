package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ZaguanLabs/gotlive"
)

// OpenAIProvider implements AIProvider using OpenAI's chat completions API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL for OpenAI-compatible APIs (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = &http.Client{
		Transport: &userAgentTransport{base: http.DefaultTransport},
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Translate sends one batch of segments and returns the translations keyed
// by segment id.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if len(req.Segments) == 0 {
		return &TranslateResponse{}, nil
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: p.buildUserMessage(req)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &gotlive.MalformedResponseError{Cause: errors.New("no choices in response")}
	}

	return parseResponse(resp.Choices[0].Message.Content)
}

func (p *OpenAIProvider) buildSystemPrompt(req TranslateRequest) string {
	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = "en"
	}

	targetName := req.TargetLanguage
	if targetName == "" {
		targetName = gotlive.LanguageName(req.TargetLang)
	}
	sourceName := gotlive.LanguageName(sourceLang)

	contextText := "The content is the visible text of a web page."
	if req.Context != "" {
		contextText = fmt.Sprintf("The content is for: %s. Adapt the tone to be appropriate for this context.", req.Context)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `# Role
You are an expert native translator. You translate %s web page text to %s with the fluency of a highly educated native speaker.

# Context
%s

# Register
%s

# Task
Each input segment is one text node or attribute value taken from a live page. Translate every segment into idiomatic %s.

# Style Guide
- **Natural Flow**: Avoid literal translations. Rephrase to sound natural to a native speaker.
- **Short Labels**: Buttons, menu items and titles stay short; do not add punctuation they did not have.
- **Code Safety**: Do NOT translate URLs, email addresses, class names or content inside backticks.
- **Interpolation**: Do NOT translate variables or placeholders (e.g., {{name}}, {count}, %%s, $1).`,
		sourceName, targetName, contextText, gotlive.GetStyleDescription(req.Style), targetName)

	if hint := gotlive.GetLocaleClarification(req.TargetLang); hint != "" {
		fmt.Fprintf(&b, "\n- **Locale**: %s", hint)
	}

	if len(req.Glossary) > 0 {
		b.WriteString("\n\n# Glossary\nWhen you encounter these phrases, prefer these translations (unless context demands otherwise):")
		sources := make([]string, 0, len(req.Glossary))
		for source := range req.Glossary {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			fmt.Fprintf(&b, "\n- \"%s\" → %s", source, req.Glossary[source])
		}
	}

	if len(req.ExcludedTerms) > 0 {
		fmt.Fprintf(&b, "\n\n# Exclusions\nDo NOT translate the following terms. Keep them exactly as they appear in the source:\n- %s",
			strings.Join(req.ExcludedTerms, "\n- "))
	}

	b.WriteString(`

# Format
Return a valid JSON object with a single key "translations" holding an array of {"id", "translated"} objects, one per input segment, reusing the input ids.
Example: { "translations": [{"id": "s0", "translated": "..."}] }
- Do NOT wrap in Markdown code blocks.
- Do NOT invent ids.`)

	return b.String()
}

type segmentMessage struct {
	TargetLanguage string            `json:"target_language"`
	Segments       []gotlive.Segment `json:"segments"`
}

func (p *OpenAIProvider) buildUserMessage(req TranslateRequest) string {
	target := req.TargetLanguage
	if target == "" {
		target = gotlive.LanguageName(req.TargetLang)
	}
	data, _ := json.Marshal(segmentMessage{TargetLanguage: target, Segments: req.Segments})
	return string(data)
}

// parseResponse accepts {"translations": [{"id", "translated"}]} and, as a
// fallback, {"translations": {"<id>": "<text>"}}.
func parseResponse(content string) (*TranslateResponse, error) {
	content = strings.TrimSpace(content)

	var raw struct {
		Translations json.RawMessage `json:"translations"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, &gotlive.MalformedResponseError{Content: content, Cause: err}
	}
	if len(raw.Translations) == 0 {
		return nil, &gotlive.MalformedResponseError{Content: content, Cause: errors.New(`missing "translations" key`)}
	}

	var list []gotlive.Translation
	if err := json.Unmarshal(raw.Translations, &list); err == nil {
		return &TranslateResponse{Translations: list}, nil
	}

	var byID map[string]string
	if err := json.Unmarshal(raw.Translations, &byID); err != nil {
		return nil, &gotlive.MalformedResponseError{Content: content, Cause: err}
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	resp := &TranslateResponse{Translations: make([]gotlive.Translation, 0, len(ids))}
	for _, id := range ids {
		resp.Translations = append(resp.Translations, gotlive.Translation{ID: id, Text: byID[id]})
	}
	return resp, nil
}

// classifyError maps a client error onto the engine's error taxonomy.
func classifyError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	return &gotlive.ProviderError{
		Message:     "OpenAI API call failed",
		Cause:       err,
		RateLimited: status == http.StatusTooManyRequests,
		Retryable:   status >= 500 || (status == 0 && isTransient(err)),
	}
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection refused", "connection reset", "temporary", "eof"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", gotlive.UserAgent())
	return t.base.RoundTrip(r)
}

// Verify OpenAIProvider implements AIProvider
var _ AIProvider = (*OpenAIProvider)(nil)

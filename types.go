package gotlive

import (
	"context"

	"github.com/ZaguanLabs/gotlive/processor"
)

// Status is the externally observable state of an Engine.
type Status string

const (
	// StatusIdle means no translation was requested yet.
	StatusIdle Status = "idle"
	// StatusLoading means a pass for a non-default language is running.
	StatusLoading Status = "loading"
	// StatusTranslated means the newest pass finished and at least part of it succeeded.
	StatusTranslated Status = "translated"
	// StatusError means every batch of the newest pass failed and nothing came from cache.
	StatusError Status = "error"
	// StatusOriginal means the default language is selected and the document is restored.
	StatusOriginal Status = "original"
)

// TranslationStyle controls the tone and formality of translations.
type TranslationStyle string

const (
	// StyleFormal uses formal, professional language suitable for official documents.
	StyleFormal TranslationStyle = "formal"
	// StyleNeutral uses a neutral, professional tone suitable for general content.
	StyleNeutral TranslationStyle = "neutral"
	// StyleCasual uses casual, conversational language suitable for blogs/social media.
	StyleCasual TranslationStyle = "casual"
	// StyleMarketing uses persuasive, engaging language for promotional content.
	StyleMarketing TranslationStyle = "marketing"
	// StyleTechnical uses precise, technical language for documentation.
	StyleTechnical TranslationStyle = "technical"
)

var styleDescriptions = map[TranslationStyle]string{
	StyleFormal:    "Use a formal, professional register suitable for official documents.",
	StyleNeutral:   "Use a neutral, professional tone suitable for general web content.",
	StyleCasual:    "Use a casual, conversational register suitable for blogs and social media.",
	StyleMarketing: "Use persuasive, engaging language suitable for promotional content.",
	StyleTechnical: "Use precise technical language and keep terminology consistent.",
}

// GetStyleDescription returns the prompt wording for style. Unknown or empty
// styles fall back to neutral.
func GetStyleDescription(style TranslationStyle) string {
	if desc, ok := styleDescriptions[style]; ok {
		return desc
	}
	return styleDescriptions[StyleNeutral]
}

// Segment is a unit of deduplicated source text submitted for translation.
type Segment = processor.Segment

// Translation is one translated segment returned by a provider.
type Translation struct {
	ID   string `json:"id"`
	Text string `json:"translated"`
}

// TranslateRequest contains the parameters for one provider batch.
type TranslateRequest struct {
	Segments       []Segment
	TargetLanguage string // human-readable name, e.g. "French (France)"
	TargetLang     string // locale code, e.g. "fr_FR"
	SourceLang     string
	ExcludedTerms  []string
	Context        string
	Glossary       map[string]string
	Style          TranslationStyle
}

// TranslateResponse carries the translations a provider produced. It may
// omit requested ids; ids that were not requested are ignored.
type TranslateResponse struct {
	Translations []Translation `json:"translations"`
}

// AIProvider is the interface for AI translation backends.
type AIProvider interface {
	Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error)
}

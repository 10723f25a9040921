// Package whisper manages the ggml model files used by the whisper-cpp
// transcriber.
package whisper

import (
	"strings"

	"github.com/leonardotrapani/healthtranslate/internal/language"
)

type Model struct {
	ID           string // e.g. "base"
	Filename     string // e.g. "ggml-base.bin"
	SizeBytes    int64
	Multilingual bool
}

// catalog mirrors huggingface.co/ggerganov/whisper.cpp
var catalog = []Model{
	{ID: "tiny", Filename: "ggml-tiny.bin", SizeBytes: 75_000_000, Multilingual: true},
	{ID: "base", Filename: "ggml-base.bin", SizeBytes: 142_000_000, Multilingual: true},
	{ID: "small", Filename: "ggml-small.bin", SizeBytes: 466_000_000, Multilingual: true},
	{ID: "medium", Filename: "ggml-medium.bin", SizeBytes: 1_500_000_000, Multilingual: true},
	{ID: "large-v3", Filename: "ggml-large-v3.bin", SizeBytes: 3_000_000_000, Multilingual: true},
	{ID: "large-v3-turbo", Filename: "ggml-large-v3-turbo.bin", SizeBytes: 1_600_000_000, Multilingual: true},

	{ID: "tiny.en", Filename: "ggml-tiny.en.bin", SizeBytes: 75_000_000},
	{ID: "base.en", Filename: "ggml-base.en.bin", SizeBytes: 142_000_000},
	{ID: "small.en", Filename: "ggml-small.en.bin", SizeBytes: 466_000_000},
	{ID: "medium.en", Filename: "ggml-medium.en.bin", SizeBytes: 1_500_000_000},
}

func Models() []Model {
	result := make([]Model, len(catalog))
	copy(result, catalog)
	return result
}

// Lookup returns the model with id, or false.
func Lookup(id string) (Model, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// Supports reports whether the model can recognize speech in languageTag.
// English-only models handle English and nothing else.
func (m Model) Supports(languageTag string) bool {
	if m.Multilingual {
		return true
	}
	return strings.EqualFold(language.Base(languageTag), "en")
}

package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Result is the corrected and translated text extracted from a reply.
type Result struct {
	CorrectedText  string `json:"correctedText"`
	TranslatedText string `json:"translatedText"`
}

const maxSnippet = 200

var (
	reasoningBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fenceMarker    = regexp.MustCompile("```(?:json)?")
)

var errNotObject = errors.New("reply is not a JSON object")

// Normalize turns a raw completion reply into a Result. It strips reasoning
// blocks and code fences, then decodes exactly one JSON object. Only the exact
// keys correctedText and translatedText are read; other keys are ignored and
// missing ones stay empty. A reply that is empty once stripped yields an empty
// Result. Any decode failure is reported as *MalformedReplyError.
func Normalize(reply string) (Result, error) {
	cleaned := Strip(reply)
	if cleaned == "" {
		return Result{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return Result{}, &MalformedReplyError{Snippet: snippet(cleaned), Err: err}
	}
	if fields == nil {
		return Result{}, &MalformedReplyError{Snippet: snippet(cleaned), Err: errNotObject}
	}

	var result Result
	for key, dst := range map[string]*string{
		"correctedText":  &result.CorrectedText,
		"translatedText": &result.TranslatedText,
	} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return Result{}, &MalformedReplyError{Snippet: snippet(cleaned), Err: fmt.Errorf("%s: %w", key, err)}
		}
	}
	return result, nil
}

// Strip removes reasoning blocks and fence markers and trims the remainder.
func Strip(reply string) string {
	cleaned := reasoningBlock.ReplaceAllString(reply, "")
	cleaned = fenceMarker.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func snippet(s string) string {
	runes := []rune(s)
	if len(runes) <= maxSnippet {
		return s
	}
	return string(runes[:maxSnippet]) + "..."
}

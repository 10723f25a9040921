package bus

import (
	"encoding/json"
	"fmt"
)

// State is the SNAPSHOT body: the UI-facing state of the daemon's pipeline.
type State struct {
	Status             string `json:"status"`
	Input              string `json:"input"`
	InputLength        int    `json:"inputLength"`
	InputLimit         int    `json:"inputLimit"`
	CorrectedText      string `json:"correctedText"`
	TranslatedText     string `json:"translatedText"`
	SourceLanguage     string `json:"sourceLanguage"`
	TargetLanguage     string `json:"targetLanguage"`
	TargetLanguageName string `json:"targetLanguageName"`
	CaptureAvailable   bool   `json:"captureAvailable"`
	Translation        string `json:"translation"`
	LastError          string `json:"lastError,omitempty"`
}

func (s State) Response() (Response, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return Response{}, err
	}
	return Response{Kind: KindSnapshot, Body: string(body)}, nil
}

func GetState() (State, error) {
	resp, err := SendCommand(CmdSnapshot)
	if err != nil {
		return State{}, err
	}
	return DecodeState(resp)
}

func DecodeState(resp Response) (State, error) {
	if resp.Kind != KindSnapshot {
		return State{}, fmt.Errorf("expected %s response, got %s", KindSnapshot, resp.Kind)
	}
	var s State
	if err := json.Unmarshal([]byte(resp.Body), &s); err != nil {
		return State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

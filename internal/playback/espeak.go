package playback

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/leonardotrapani/healthtranslate/internal/language"
)

const espeakBinary = "espeak-ng"

// Espeak drives the espeak-ng command line synthesizer.
type Espeak struct {
	Speed int // words per minute, 0 for the espeak default
}

func NewEspeak(speed int) *Espeak {
	return &Espeak{Speed: speed}
}

func (e *Espeak) Voices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, espeakBinary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("list %s voices: %w", espeakBinary, err)
	}
	return parseVoices(out), nil
}

func (e *Espeak) Speak(ctx context.Context, text string, voice *Voice) error {
	cmd := exec.CommandContext(ctx, espeakBinary, e.args(voice)...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", espeakBinary, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (e *Espeak) args(voice *Voice) []string {
	var args []string
	if e.Speed > 0 {
		args = append(args, "-s", strconv.Itoa(e.Speed))
	}
	if voice != nil && voice.ID != "" {
		args = append(args, "-v", voice.ID)
	}
	return args
}

// parseVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US     (en 10)
func parseVoices(out []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		id := fields[1]
		tag := language.Canonical(id)
		if tag == "" {
			continue
		}
		voices = append(voices, Voice{
			ID:   id,
			Name: strings.ReplaceAll(fields[3], "_", " "),
			Tag:  tag,
		})
	}
	return voices
}

package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/leonardotrapani/healthtranslate/internal/logging"
)

// WhisperCppAdapter runs the local whisper-cli binary on a temporary WAV file.
type WhisperCppAdapter struct {
	config Config
}

func NewWhisperCppAdapter(config Config) *WhisperCppAdapter {
	return &WhisperCppAdapter{config: config}
}

func (a *WhisperCppAdapter) Transcribe(ctx context.Context, pcm []byte, lang string) (string, error) {
	if len(pcm) == 0 {
		return "", nil
	}

	if _, err := os.Stat(a.config.ModelPath); err != nil {
		return "", fmt.Errorf("model file not found: %s", a.config.ModelPath)
	}

	whisperPath, err := exec.LookPath("whisper-cli")
	if err != nil {
		return "", fmt.Errorf("whisper-cli not found: install whisper.cpp first")
	}

	tmp, err := os.CreateTemp("", "healthtranslate-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encodeWAV(pcm, a.config.SampleRate)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	args := a.buildArgs(filepath.Clean(tmp.Name()), lang)

	cmd := exec.CommandContext(ctx, whisperPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logging.Sugar.Warnf("Transcriber: whisper-cli failed after %v: %v: %s", time.Since(start), err, stderr.String())
		return "", fmt.Errorf("whisper-cli failed: %w", err)
	}

	text := strings.TrimSpace(stdout.String())
	logging.Sugar.Debugf("Transcriber: whisper-cli %d bytes in %v: %q", len(pcm), time.Since(start), text)
	return text, nil
}

func (a *WhisperCppAdapter) buildArgs(wavPath, lang string) []string {
	if lang == "" {
		lang = "auto"
	}
	args := []string{
		"-m", a.config.ModelPath,
		"-l", lang,
		"-nt",
		"-np",
		"-f", wavPath,
	}
	if a.config.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(a.config.Threads))
	}
	return args
}

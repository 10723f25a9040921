package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/leonardotrapani/healthtranslate/internal/config"
)

func editLanguages(cfg *config.Config) error {
	source, target := cfg.Languages.Source, cfg.Languages.Target
	options := languageOptions()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Spoken language").
				Description("Language the provider speaks and speech capture listens for").
				Options(options...).
				Filtering(true).
				Value(&source),
			huh.NewSelect[string]().
				Title("Translate to").
				Description("Language of the patient; also picks the playback voice").
				Options(options...).
				Filtering(true).
				Value(&target),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Languages.Source, cfg.Languages.Target = source, target
	return nil
}

func editCompletion(cfg *config.Config) error {
	c := cfg.Completion
	temperature := strconv.FormatFloat(float64(c.Temperature), 'f', -1, 32)
	timeout := c.RequestTimeout.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Endpoint").
				Description("OpenAI-compatible chat completions base URL").
				Value(&c.BaseURL).
				Validate(required("endpoint")),
			huh.NewInput().
				Title("Model").
				Value(&c.Model).
				Validate(required("model")),
			huh.NewInput().
				Title("API key variable").
				Description("Environment variable holding the key; the key itself is never stored").
				Value(&c.APIKeyEnv).
				Validate(required("API key variable")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Temperature").
				Value(&temperature).
				Validate(validateFloat(0, 2)),
			huh.NewInput().
				Title("Request timeout").
				Description("0s waits for the endpoint").
				Value(&timeout).
				Validate(validateDuration),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Temperature = float32(parseFloat(temperature, float64(c.Temperature)))
	c.RequestTimeout = parseDuration(timeout, c.RequestTimeout)
	cfg.Completion = c
	return nil
}

func editCapture(cfg *config.Config) error {
	c := cfg.Capture
	enabled := c.Provider != "none"

	enableForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable speech capture?").
				Description("Records the microphone with pw-record").
				Value(&enabled),
		),
	).WithTheme(getTheme())
	if err := enableForm.Run(); err != nil {
		return err
	}
	if !enabled {
		cfg.Capture.Provider = "none"
		return nil
	}
	c.Provider = "pipewire"

	typeForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcriber").
				Options(
					huh.NewOption("OpenAI Whisper API", "openai"),
					huh.NewOption("whisper.cpp (local)", "whisper-cpp"),
				).
				Value(&c.Transcriber),
		),
	).WithTheme(getTheme())
	if err := typeForm.Run(); err != nil {
		return err
	}

	var details *huh.Group
	threads := strconv.Itoa(c.Threads)
	if c.Transcriber == "whisper-cpp" {
		details = huh.NewGroup(
			huh.NewInput().
				Title("Model path").
				Description("ggml model file for whisper-cli").
				Value(&c.ModelPath).
				Validate(required("model path")),
			huh.NewInput().
				Title("Threads").
				Description("0 lets whisper-cli decide").
				Value(&threads).
				Validate(validateInt(0, 64)),
		)
	} else {
		details = huh.NewGroup(
			huh.NewInput().
				Title("Endpoint").
				Description("Leave empty for api.openai.com").
				Value(&c.BaseURL),
			huh.NewInput().
				Title("Model").
				Value(&c.Model).
				Validate(required("model")),
			huh.NewInput().
				Title("API key variable").
				Value(&c.APIKeyEnv).
				Validate(required("API key variable")),
		)
	}

	silence := c.SilenceTimeout.String()
	maxDuration := c.MaxDuration.String()
	threshold := strconv.FormatFloat(c.SilenceThreshold, 'f', -1, 64)
	endpointing := huh.NewGroup(
		huh.NewInput().
			Title("Silence timeout").
			Description("Recording stops after this much silence following speech").
			Value(&silence).
			Validate(validateDuration),
		huh.NewInput().
			Title("Maximum duration").
			Value(&maxDuration).
			Validate(validateDuration),
		huh.NewInput().
			Title("Silence threshold").
			Description("Input level (0-1) below which audio counts as silence").
			Value(&threshold).
			Validate(validateFloat(0, 1)),
	)

	form := huh.NewForm(details, endpointing).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	c.Threads = parseInt(threads, c.Threads)
	c.SilenceTimeout = parseDuration(silence, c.SilenceTimeout)
	c.MaxDuration = parseDuration(maxDuration, c.MaxDuration)
	c.SilenceThreshold = parseFloat(threshold, c.SilenceThreshold)
	cfg.Capture = c
	return nil
}

func editPlayback(cfg *config.Config) error {
	p := cfg.Playback
	enabled := p.Backend != "none"
	speed := strconv.Itoa(p.Speed)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable speech playback?").
				Description("Reads translations aloud with espeak-ng").
				Value(&enabled),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Speed").
				Description("Words per minute").
				Value(&speed).
				Validate(validateInt(80, 450)),
			huh.NewConfirm().
				Title("Speak every translation automatically?").
				Value(&p.AutoSpeak),
		).WithHideFunc(func() bool { return !enabled }),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	if !enabled {
		cfg.Playback.Backend = "none"
		return nil
	}
	p.Backend = "espeak-ng"
	p.Speed = parseInt(speed, p.Speed)
	cfg.Playback = p
	return nil
}

func editNotifications(cfg *config.Config) error {
	enabled := cfg.Notifications.Enabled

	desc := "Show notifications for recording and translation"
	if cfg.Notifications.Enabled {
		desc = fmt.Sprintf("Currently: enabled (%s). %s", cfg.Notifications.Type, desc)
	} else {
		desc = "Currently: disabled. " + desc
	}

	notifType := cfg.Notifications.Type
	if notifType == "" {
		notifType = "desktop"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable notifications?").
				Description(desc).
				Value(&enabled),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Notification Type").
				Description("How should notifications be displayed?").
				Options(
					huh.NewOption("Desktop notifications", "desktop"),
					huh.NewOption("Log to console only", "log"),
					huh.NewOption("None (silent)", "none"),
				).
				Value(&notifType),
		).WithHideFunc(func() bool { return !enabled }),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Notifications.Enabled = enabled
	if enabled {
		cfg.Notifications.Type = notifType
	}
	return nil
}

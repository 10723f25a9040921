package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/leonardotrapani/healthtranslate/internal/config"
	"github.com/leonardotrapani/healthtranslate/internal/language"
)

func languageOptions() []huh.Option[string] {
	var options []huh.Option[string]
	for _, opt := range language.Options(language.CatalogTags()) {
		options = append(options, huh.NewOption(opt.Label, opt.Value))
	}
	return options
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("use a duration like 1.5s or 2m")
	}
	if d < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validateFloat(min, max float64) func(string) error {
	return func(s string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("not a number")
		}
		if f < min || f > max {
			return fmt.Errorf("must be between %g and %g", min, max)
		}
		return nil
	}
}

func validateInt(min, max int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("not a whole number")
		}
		if n < min || n > max {
			return fmt.Errorf("must be between %d and %d", min, max)
		}
		return nil
	}
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// parse helpers run after validation, so errors fall back to the old value

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return d
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func formatLanguagesLabel(cfg *config.Config) string {
	return fmt.Sprintf("Languages (%s → %s)",
		language.DisplayName(cfg.Languages.Source), language.DisplayName(cfg.Languages.Target))
}

func formatCompletionLabel(cfg *config.Config) string {
	return fmt.Sprintf("Translation model (%s)", cfg.Completion.Model)
}

func formatCaptureLabel(cfg *config.Config) string {
	if cfg.Capture.Provider == "none" {
		return "Speech capture (disabled)"
	}
	return fmt.Sprintf("Speech capture (%s)", cfg.Capture.Transcriber)
}

func formatPlaybackLabel(cfg *config.Config) string {
	if cfg.Playback.Backend == "none" {
		return "Playback (disabled)"
	}
	if cfg.Playback.AutoSpeak {
		return fmt.Sprintf("Playback (%s, auto)", cfg.Playback.Backend)
	}
	return fmt.Sprintf("Playback (%s)", cfg.Playback.Backend)
}

func formatNotificationsLabel(cfg *config.Config) string {
	if !cfg.Notifications.Enabled {
		return "Notifications (disabled)"
	}
	return fmt.Sprintf("Notifications (%s)", cfg.Notifications.Type)
}

// summaryLines returns label/value pairs shown before saving.
func summaryLines(cfg *config.Config) [][2]string {
	lines := [][2]string{
		{"Languages:", fmt.Sprintf("%s → %s", language.Label(cfg.Languages.Source), language.Label(cfg.Languages.Target))},
		{"Model:", fmt.Sprintf("%s (%s)", cfg.Completion.Model, cfg.Completion.BaseURL)},
		{"API key:", "$" + cfg.Completion.APIKeyEnv},
	}

	switch {
	case cfg.Capture.Provider == "none":
		lines = append(lines, [2]string{"Capture:", "disabled"})
	case cfg.Capture.Transcriber == "whisper-cpp":
		lines = append(lines, [2]string{"Capture:", "whisper-cpp " + cfg.Capture.ModelPath})
	default:
		lines = append(lines, [2]string{"Capture:", fmt.Sprintf("openai %s ($%s)", cfg.Capture.Model, cfg.Capture.APIKeyEnv)})
	}

	if cfg.Playback.Backend == "none" {
		lines = append(lines, [2]string{"Playback:", "disabled"})
	} else {
		lines = append(lines, [2]string{"Playback:", fmt.Sprintf("%s at %d wpm, auto speak %t", cfg.Playback.Backend, cfg.Playback.Speed, cfg.Playback.AutoSpeak)})
	}

	if cfg.Notifications.Enabled {
		lines = append(lines, [2]string{"Notifications:", cfg.Notifications.Type})
	} else {
		lines = append(lines, [2]string{"Notifications:", "disabled"})
	}
	return lines
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()
	for _, line := range summaryLines(cfg) {
		fmt.Printf("  %s %s\n", StyleLabel.Render(line[0]), line[1])
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirmed, nil
}

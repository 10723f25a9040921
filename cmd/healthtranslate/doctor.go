package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leonardotrapani/healthtranslate/internal/bus"
	"github.com/leonardotrapani/healthtranslate/internal/config"
	"github.com/leonardotrapani/healthtranslate/internal/deps"
	"github.com/leonardotrapani/healthtranslate/internal/tui"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, external tools and API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if problems := runDoctor(cmd.OutOrStdout(), cfg, deps.Check, os.Getenv); problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			return nil
		},
	}
}

// runDoctor prints one line per check and returns the number of failures.
func runDoctor(w io.Writer, cfg *config.Config, check func(deps.Tool) deps.Status, getenv func(string) string) int {
	problems := 0
	ok := func(format string, args ...any) {
		fmt.Fprintln(w, tui.StyleSuccess.Render("✓ ")+fmt.Sprintf(format, args...))
	}
	fail := func(format string, args ...any) {
		problems++
		fmt.Fprintln(w, tui.StyleError.Render("✗ ")+fmt.Sprintf(format, args...))
	}

	if err := cfg.Validate(); err != nil {
		fail("config: %v", err)
	} else {
		ok("config valid")
	}

	for _, tool := range deps.Required(cfg.Capture.Provider, cfg.Capture.Transcriber, cfg.Playback.Backend) {
		status := check(tool)
		if !status.Installed {
			fail("%s not found (%s): %s", tool.Name, tool.Purpose, tool.InstallHint)
			continue
		}
		if status.Version != "" {
			ok("%s %s", tool.Name, status.Version)
		} else {
			ok("%s at %s", tool.Name, status.Path)
		}
	}

	keys := []string{cfg.Completion.APIKeyEnv}
	if cfg.Capture.Provider == "pipewire" && cfg.Capture.Transcriber == "openai" && cfg.Capture.APIKeyEnv != cfg.Completion.APIKeyEnv {
		keys = append(keys, cfg.Capture.APIKeyEnv)
	}
	for _, key := range keys {
		if getenv(key) == "" {
			fail("$%s is not set", key)
		} else {
			ok("$%s is set", key)
		}
	}

	if _, err := bus.SendCommand(bus.CmdVersion); err != nil {
		fmt.Fprintln(w, tui.StyleWarning.Render("! ")+"daemon not running (start it with: healthtranslate serve)")
	} else {
		ok("daemon running")
	}

	return problems
}

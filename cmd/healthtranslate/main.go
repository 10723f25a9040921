package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leonardotrapani/healthtranslate/internal/bus"
	"github.com/leonardotrapani/healthtranslate/internal/config"
	"github.com/leonardotrapani/healthtranslate/internal/daemon"
	"github.com/leonardotrapani/healthtranslate/internal/language"
	"github.com/leonardotrapani/healthtranslate/internal/logging"
	"github.com/leonardotrapani/healthtranslate/internal/metrics"
	"github.com/leonardotrapani/healthtranslate/internal/playback"
	"github.com/leonardotrapani/healthtranslate/internal/tui"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "healthtranslate",
		Short:        "Speech-to-speech translation for patient and provider conversations",
		SilenceUsage: true,
	}
	root.AddCommand(
		serveCmd(),
		toggleCmd(),
		statusCmd(),
		inputCmd(),
		translateCmd(),
		languagesCmd(),
		voicesCmd(),
		speakCmd(),
		copyCmd(),
		versionCmd(),
		stopCmd(),
		configureCmd(),
		doctorCmd(),
		modelCmd(),
	)
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := config.NewManager()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg := manager.GetConfig()

			if err := logging.InitializeWithConfig(cfg.General.ToLogConfig()); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			defer logging.Sync()

			ctx := cmd.Context()
			shutdown, err := metrics.InitProvider(ctx, metrics.ProviderConfig{
				ServiceName:    "healthtranslate",
				ServiceVersion: version,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize metrics: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = shutdown(shutdownCtx)
			}()

			d, err := daemon.New(daemon.Options{Manager: manager})
			if err != nil {
				return fmt.Errorf("failed to create daemon: %w", err)
			}
			return d.Run(ctx)
		},
	}
}

// simpleCmd sends a bare command and prints the daemon's reply.
func simpleCmd(use, short string, command byte, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(command)
			if err != nil {
				return fmt.Errorf("failed to %s: %w", action, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Body)
			return nil
		},
	}
}

func toggleCmd() *cobra.Command {
	return simpleCmd("toggle", "Start or stop recording", bus.CmdToggle, "toggle recording")
}

func speakCmd() *cobra.Command {
	return simpleCmd("speak", "Read the current translation aloud", bus.CmdSpeak, "speak")
}

func copyCmd() *cobra.Command {
	return simpleCmd("copy", "Copy the current translation to the clipboard", bus.CmdCopy, "copy translation")
}

func stopCmd() *cobra.Command {
	return simpleCmd("stop", "Stop the daemon", bus.CmdQuit, "stop daemon")
}

func statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the input, translation and recording state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdSnapshot)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			if asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Body)
				return nil
			}
			state, err := bus.DecodeState(resp)
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw snapshot")
	return cmd
}

func inputCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "input [text]",
		Short: "Replace the input text (reads stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := textFromArgs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			resp, err := bus.SendCommand(bus.CmdInput, text)
			if err != nil {
				return fmt.Errorf("failed to set input: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Body)
			return nil
		},
	}
}

func translateCmd() *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "translate [text]",
		Short: "Correct and translate text, or retranslate the current input",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				if _, err := bus.SendCommand(bus.CmdInput, strings.Join(args, " ")); err != nil {
					return fmt.Errorf("failed to set input: %w", err)
				}
			}
			resp, err := bus.SendCommand(bus.CmdTranslate)
			if err != nil {
				return fmt.Errorf("failed to translate: %w", err)
			}
			if wait <= 0 || !strings.HasPrefix(resp.Body, "submitted") {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Body)
				return nil
			}

			state, err := waitForTranslation(cmd.Context(), wait)
			if err != nil {
				return err
			}
			if state.Translation == "failed" {
				return fmt.Errorf("translation failed: %s", state.LastError)
			}
			fmt.Fprintln(cmd.OutOrStdout(), state.TranslatedText)
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 60*time.Second, "Wait this long for the result and print it (0 returns immediately)")
	return cmd
}

func waitForTranslation(ctx context.Context, timeout time.Duration) (bus.State, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		state, err := bus.GetState()
		if err != nil {
			return bus.State{}, err
		}
		if state.Translation != "pending" {
			return state, nil
		}
		select {
		case <-ctx.Done():
			return bus.State{}, fmt.Errorf("translation still pending after %v", timeout)
		case <-ticker.C:
		}
	}
}

func languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages [source target]",
		Short: "List languages, or set the spoken and target languages",
		Long: `Without arguments, lists the languages offered for recognition and playback.
With two arguments, sets the spoken (source) and target languages of the
running daemon. Pass "" to keep one of them.`,
		Args: cobra.MatchAll(cobra.RangeArgs(0, 2), func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return fmt.Errorf("pass both source and target")
			}
			return nil
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, opt := range language.Options(language.CatalogTags()) {
					fmt.Fprintf(out, "%-8s %s\n", opt.Value, opt.Label)
				}
				return nil
			}
			resp, err := bus.SendCommand(bus.CmdLanguages, args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to set languages: %w", err)
			}
			fmt.Fprintln(out, resp.Body)
			return nil
		},
	}
}

func voicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List installed espeak-ng voices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			voices, err := playback.NewEspeak(0).Voices(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list voices: %w", err)
			}
			for _, v := range voices {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-20s %s\n", v.Tag, v.ID, v.Name)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show client version and daemon protocol version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "healthtranslate %s (protocol %s)\n", version, bus.ProtoVer)
			resp, err := bus.SendCommand(bus.CmdVersion)
			if err != nil {
				fmt.Fprintln(out, "daemon: not running")
				return nil
			}
			fmt.Fprintf(out, "daemon: %s\n", resp.Body)
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration editor. It covers:
- Spoken and target languages
- The translation model endpoint
- Speech capture and transcription
- Playback and notifications`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			result, err := tui.Run(cfg)
			if err != nil {
				return fmt.Errorf("configuration wizard error: %w", err)
			}
			if result.Cancelled {
				fmt.Fprintln(cmd.OutOrStdout(), "Configuration cancelled.")
				return nil
			}

			if err := config.Save(path, result.Config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", path)
			return nil
		},
	}
}

func textFromArgs(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func printState(w io.Writer, s bus.State) {
	capture := "available"
	if !s.CaptureAvailable {
		capture = "unavailable"
	}
	fmt.Fprintf(w, "Status:      %s (capture %s)\n", s.Status, capture)
	fmt.Fprintf(w, "Languages:   %s -> %s (%s)\n", s.SourceLanguage, s.TargetLanguage, s.TargetLanguageName)
	fmt.Fprintf(w, "Input:       %s\n", s.Input)
	fmt.Fprintf(w, "             %d/%d characters\n", s.InputLength, s.InputLimit)
	fmt.Fprintf(w, "Corrected:   %s\n", s.CorrectedText)
	fmt.Fprintf(w, "Translation: %s\n", s.TranslatedText)
	if s.LastError != "" {
		fmt.Fprintf(w, "Error:       %s\n", s.LastError)
	}
}

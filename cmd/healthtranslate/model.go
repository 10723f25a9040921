package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/leonardotrapani/healthtranslate/internal/config"
	"github.com/leonardotrapani/healthtranslate/internal/models/whisper"
)

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage local whisper models",
	}
	cmd.AddCommand(modelListCmd(), modelDownloadCmd(), modelRemoveCmd())
	return cmd
}

func modelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available and installed models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := whisper.DefaultStore()
			if err != nil {
				return err
			}
			source := ""
			if cfg, err := config.Load(); err == nil {
				source = cfg.Languages.Source
			}
			printModels(cmd.OutOrStdout(), store, source)
			return nil
		},
	}
}

func printModels(w io.Writer, store *whisper.Store, source string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tSIZE\tINSTALLED\tNOTE")
	for _, m := range whisper.Models() {
		installed := "no"
		if store.Installed(m.ID) {
			installed = "yes"
		}
		note := ""
		if source != "" && !m.Supports(source) {
			note = "english only"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, humanize.Bytes(uint64(m.SizeBytes)), installed, note)
	}
	tw.Flush()
}

func modelDownloadCmd() *cobra.Command {
	var use bool
	cmd := &cobra.Command{
		Use:   "download <model>",
		Short: "Download a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := whisper.DefaultStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if store.Installed(args[0]) {
				path, _ := store.Path(args[0])
				fmt.Fprintf(out, "model '%s' is already installed at %s\n", args[0], path)
				if use {
					return useModel(out, path)
				}
				return nil
			}

			var lastPct int64 = -1
			path, err := store.Download(cmd.Context(), args[0], func(done, total int64) {
				if total <= 0 {
					return
				}
				if pct := done * 100 / total; pct != lastPct && pct%10 == 0 {
					lastPct = pct
					fmt.Fprintf(out, "\r%3d%% (%s / %s)", pct, humanize.Bytes(uint64(done)), humanize.Bytes(uint64(total)))
				}
			})
			fmt.Fprintln(out)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Model saved to %s\n", path)

			if !use {
				return nil
			}
			return useModel(out, path)
		},
	}
	cmd.Flags().BoolVar(&use, "use", false, "switch capture to whisper-cpp with this model")
	return cmd
}

func useModel(w io.Writer, modelPath string) error {
	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Capture.Provider = "pipewire"
	cfg.Capture.Transcriber = "whisper-cpp"
	cfg.Capture.ModelPath = modelPath
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(w, "Capture now uses whisper-cpp (%s)\n", cfgPath)
	return nil
}

func modelRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model>",
		Short: "Delete a downloaded model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := whisper.DefaultStore()
			if err != nil {
				return err
			}
			if err := store.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

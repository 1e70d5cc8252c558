package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"overlay-player/internal/config"
)

var rootCmd = &cobra.Command{
	Use:          "overlayctl",
	Short:        "Inspect pointer forwarding and media files outside the player",
	SilenceUsage: true,
}

var logger = slog.Default()

func init() {
	rootCmd.PersistentFlags().String("format", "", "Output format: yaml or json (default yaml on a terminal, json when piped)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		format, _ := rootCmd.PersistentFlags().GetString("format")
		if format == "" {
			format = defaultFormat(term.IsTerminal(int(os.Stdout.Fd())))
		}

		switch format {
		case "yaml":
			outputFormat = formatYAML
		case "json":
			outputFormat = formatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		return nil
	}
}

func defaultFormat(terminal bool) string {
	if terminal {
		return "yaml"
	}
	return "json"
}

// loadConfig reads the player's config, falling back to defaults when the
// file cannot be read
func loadConfig() config.Config {
	svc, err := config.New()
	if err != nil {
		logger.Debug("using default config", slog.Any("error", err))
		return config.Config{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"}
	}
	return svc.Get()
}

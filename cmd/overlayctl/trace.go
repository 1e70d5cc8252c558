package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"overlay-player/internal/forward"
	"overlay-player/internal/window"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Print pointer moves as a window would receive them",
	Long:  "Install the low-level pointer hook and print every move that lands inside the window with the given title, in that window's client coordinates. The window itself is left untouched.",
	RunE:  runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().String("title", "", "Title of the window to trace (required)")
	traceCmd.Flags().Duration("duration", 0, "Stop after this long (default: until interrupted)")
	traceCmd.Flags().String("event", forward.DefaultEventName, "Event name printed with each move")
	_ = traceCmd.MarkFlagRequired("title")
}

// traceEvent is one line of trace output
type traceEvent struct {
	Event string `yaml:"event" json:"event"`
	X     int    `yaml:"x"     json:"x"`
	Y     int    `yaml:"y"     json:"y"`
}

func runTrace(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	duration, _ := cmd.Flags().GetDuration("duration")
	event, _ := cmd.Flags().GetString("event")

	hwnd, err := window.FindByTitle(title)
	if err != nil {
		return fmt.Errorf("failed to find window %q: %w", title, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	// Moves are printed one per line so the output can be streamed.
	enc := json.NewEncoder(stdout)
	queue := forward.NewQueue(forward.DefaultQueueSize, func(name string, payload any) error {
		pos, ok := payload.(forward.Position)
		if !ok {
			return fmt.Errorf("unexpected payload %T", payload)
		}
		ev := traceEvent{Event: name, X: pos.X, Y: pos.Y}
		if outputFormat == formatJSON {
			return enc.Encode(ev)
		}
		out, err := yaml.Marshal([]traceEvent{ev})
		if err != nil {
			return err
		}
		_, err = stdout.Write(out)
		return err
	}, logger)
	defer queue.Close()

	// The traced window belongs to another process, so only the hook is used.
	registry := forward.New(forward.HookOnly(forward.NewSystem(logger)), event, logger)
	target := window.New(title, hwnd, queue)
	if err := registry.Toggle(target, true); err != nil {
		return err
	}

	started := time.Now()
	<-ctx.Done()

	if err := registry.ClearAll(); err != nil {
		return err
	}
	logger.Info("trace stopped",
		slog.Duration("took", time.Since(started).Round(time.Millisecond)),
		slog.Uint64("dropped", queue.Dropped()))
	return nil
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"overlay-player/internal/files"
	"overlay-player/internal/media"
)

// ProbeResult is the output of the probe command.
type ProbeResult struct {
	Path       string         `yaml:"path"                  json:"path"`
	Format     string         `yaml:"format"                json:"format"`
	Duration   float64        `yaml:"duration"              json:"duration"`
	BitRate    int64          `yaml:"bit_rate,omitempty"    json:"bit_rate,omitempty"`
	MeanVolume *float64       `yaml:"mean_volume,omitempty" json:"mean_volume,omitempty"`
	MaxVolume  *float64       `yaml:"max_volume,omitempty"  json:"max_volume,omitempty"`
	Streams    []media.Stream `yaml:"streams"               json:"streams"`
}

// ConvertResult is the output of the convert command.
type ConvertResult struct {
	OK   bool   `yaml:"ok"   json:"ok"`
	Dest string `yaml:"dest" json:"dest"`
	Kind string `yaml:"kind" json:"kind"`
}

var probeCmd = &cobra.Command{
	Use:   "probe <file>",
	Short: "Show format, streams and loudness of a media file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

var statCmd = &cobra.Command{
	Use:   "stat <file>",
	Short: "Show size and timestamps of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		meta, err := files.Stat(args[0])
		if err != nil {
			return err
		}
		return printResult(meta)
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <src> <dest>",
	Short: "Convert a media file to mp3 or mp4, chosen by the destination extension",
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

func init() {
	rootCmd.AddCommand(probeCmd, statCmd, convertCmd)
	convertCmd.Flags().String("bitrate", "192k", "Audio bitrate")
	convertCmd.Flags().String("volume", "", "Audio volume filter value, e.g. 1.5 or 3dB")
	convertCmd.Flags().String("size", "", "Video scale, e.g. 1280:-2 (mp4 only)")
	convertCmd.Flags().String("rotation", "", "Video transpose value 0-3 (mp4 only)")
}

func newMediaService() *media.Service {
	cfg := loadConfig()
	return media.New(cfg.FFmpegPath, cfg.FFprobePath, nil, logger)
}

func runProbe(cmd *cobra.Command, args []string) error {
	meta, err := newMediaService().GetMetadata(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return printResult(ProbeResult{
		Path:       args[0],
		Format:     meta.Format,
		Duration:   meta.Duration,
		BitRate:    meta.BitRate,
		MeanVolume: meta.MeanVolume,
		MaxVolume:  meta.MaxVolume,
		Streams:    meta.Streams,
	})
}

func runConvert(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]
	bitrate, _ := cmd.Flags().GetString("bitrate")
	volume, _ := cmd.Flags().GetString("volume")
	size, _ := cmd.Flags().GetString("size")
	rotation, _ := cmd.Flags().GetString("rotation")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	svc := newMediaService()
	kind := convertKind(dst)
	var err error
	switch kind {
	case "audio":
		err = svc.ConvertAudio(ctx, src, dst, media.AudioOptions{Bitrate: bitrate, Volume: volume})
	case "video":
		err = svc.ConvertVideo(ctx, src, dst, media.VideoOptions{Bitrate: bitrate, Volume: volume, Size: size, Rotation: rotation})
	default:
		return fmt.Errorf("unsupported destination %q (use .mp3 or .mp4)", dst)
	}
	if err != nil {
		return err
	}

	return printResult(ConvertResult{OK: true, Dest: dst, Kind: kind})
}

func convertKind(dst string) string {
	switch strings.ToLower(filepath.Ext(dst)) {
	case ".mp3":
		return "audio"
	case ".mp4":
		return "video"
	default:
		return ""
	}
}

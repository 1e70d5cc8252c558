package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"overlay-player/internal/cache"
)

var (
	ErrBusy     = errors.New("a conversion is already running")
	ErrCanceled = errors.New("conversion canceled")
	ErrConvert  = errors.New("conversion failed")
	ErrProbe    = errors.New("failed to read media metadata")
)

// Service runs ffprobe and ffmpeg on behalf of the front end
type Service struct {
	ffmpeg  string
	ffprobe string
	cache   *cache.Service[*Metadata]
	log     *slog.Logger

	mu       sync.Mutex
	busy     bool
	current  *exec.Cmd
	canceled bool
}

// New creates a new media service. A nil cache disables metadata caching.
func New(ffmpegPath, ffprobePath string, metaCache *cache.Service[*Metadata], logger *slog.Logger) *Service {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		cache:   metaCache,
		log:     logger,
	}
}

// GetMetadata probes a media file and measures its loudness
func (s *Service) GetMetadata(ctx context.Context, path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProbe, err)
	}

	key := cacheKey(path, info)
	if s.cache != nil {
		if meta, ok := s.cache.Get(key); ok {
			s.log.Debug("metadata cache hit", slog.String("path", path))
			return meta, nil
		}
	}

	var stdout, stderr bytes.Buffer
	probe := exec.CommandContext(ctx, s.ffprobe, probeArgs(path)...)
	probe.Stdout = &stdout
	probe.Stderr = &stderr
	if err := probe.Run(); err != nil {
		return nil, fmt.Errorf("%w: %w: %s", ErrProbe, err, strings.TrimSpace(stderr.String()))
	}

	meta, err := parseProbe(stdout.String())
	if err != nil {
		return nil, err
	}

	// volumedetect writes its report to stderr; a failed measurement still
	// leaves the probe result usable.
	var report bytes.Buffer
	volume := exec.CommandContext(ctx, s.ffmpeg, volumeArgs(path)...)
	volume.Stderr = &report
	if err := volume.Run(); err != nil {
		s.log.Warn("volume detection failed", slog.String("path", path), slog.Any("error", err))
	}
	parseVolume(meta, report.String())

	if s.cache != nil {
		s.cache.Set(key, meta)
	}
	return meta, nil
}

// ConvertAudio converts src to an mp3 at dst
func (s *Service) ConvertAudio(ctx context.Context, src, dst string, opts AudioOptions) error {
	return s.convert(ctx, dst, audioArgs(src, dst, opts))
}

// ConvertVideo converts src to an h264 mp4 at dst
func (s *Service) ConvertVideo(ctx context.Context, src, dst string, opts VideoOptions) error {
	return s.convert(ctx, dst, videoArgs(src, dst, opts))
}

func (s *Service) convert(ctx context.Context, dst string, args []string) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.ffmpeg, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second

	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrConvert, err)
	}
	s.busy = true
	s.current = cmd
	s.canceled = false
	s.mu.Unlock()

	s.log.Info("conversion started", slog.String("dest", dst))
	started := time.Now()
	waitErr := cmd.Wait()

	s.mu.Lock()
	canceled := s.canceled || ctx.Err() != nil
	s.busy = false
	s.current = nil
	s.canceled = false
	s.mu.Unlock()

	// ffmpeg runs at -loglevel error, so anything on stderr is a failure.
	var err error
	switch {
	case canceled:
		err = ErrCanceled
	case waitErr != nil:
		err = fmt.Errorf("%w: %w: %s", ErrConvert, waitErr, strings.TrimSpace(stderr.String()))
	case stderr.Len() > 0:
		err = fmt.Errorf("%w: %s", ErrConvert, strings.TrimSpace(stderr.String()))
	}

	if err != nil {
		s.removePartial(dst)
		s.log.Warn("conversion did not complete", slog.String("dest", dst), slog.Any("error", err))
		return err
	}

	s.log.Info("conversion finished", slog.String("dest", dst), slog.Duration("took", time.Since(started)))
	return nil
}

func (s *Service) removePartial(dst string) {
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("failed to remove partial output", slog.String("dest", dst), slog.Any("error", err))
	}
}

// Cancel kills the running conversion. It does nothing when idle.
func (s *Service) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.Process == nil {
		return
	}
	s.canceled = true
	if err := s.current.Process.Kill(); err != nil {
		s.log.Warn("failed to kill conversion", slog.Any("error", err))
	}
}

// Busy reports whether a conversion is running
func (s *Service) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func cacheKey(path string, info os.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
}

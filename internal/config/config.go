package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// External tools
	FFmpegPath  string `json:"ffmpeg_path"`
	FFprobePath string `json:"ffprobe_path"`

	// debug, info, warn or error
	LogLevel string `json:"log_level"`

	Window        WindowConfig     `json:"window"`
	Forwarding    ForwardingConfig `json:"forwarding"`
	MetadataCache CacheConfig      `json:"metadata_cache"`
}

// WindowConfig holds main window settings
type WindowConfig struct {
	Title       string `json:"title"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	AlwaysOnTop bool   `json:"always_on_top"`
}

// ForwardingConfig holds pointer forwarding settings
type ForwardingConfig struct {
	EventName string `json:"event_name"` // Event the front end listens on
	QueueSize int    `json:"queue_size"` // Pending notifications per window
}

// CacheConfig holds media metadata cache settings
type CacheConfig struct {
	Size       int `json:"size"`
	TTLSeconds int `json:"ttl_seconds"`
}

// Service manages configuration persistence
type Service struct {
	mu       sync.RWMutex
	config   *Config
	filePath string
}

// New creates a new config service
func New() (*Service, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return NewAt(filepath.Join(homeDir, ".overlay-player", "config.json"))
}

// NewAt creates a config service backed by the given file, writing defaults
// when it does not exist yet
func NewAt(configPath string) (*Service, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	service := &Service{
		filePath: configPath,
		config:   getDefaultConfig(),
	}

	// Load existing config if it exists, otherwise create a default config file
	if _, err := os.Stat(configPath); err == nil {
		if err := service.Load(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		if err := service.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return service, nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		LogLevel:    "info",
		Window: WindowConfig{
			Title:       "Player",
			Width:       800,
			Height:      450,
			AlwaysOnTop: false,
		},
		Forwarding: ForwardingConfig{
			EventName: "WM_MOUSEMOVE",
			QueueSize: 256,
		},
		MetadataCache: CacheConfig{
			Size:       100,
			TTLSeconds: 3600,
		},
	}
}

// Get returns a copy of the current configuration
func (s *Service) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.config
}

// Set updates the configuration
func (s *Service) Set(config Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = &config
}

// Load loads configuration from file
func (s *Service) Load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	cfg := getDefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	return nil
}

// Save saves configuration to file
func (s *Service) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.config, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, data, 0644)
}

// Path returns the full path to the configuration file
func (s *Service) Path() string {
	return s.filePath
}

// UpdateWindow updates window configuration
func (s *Service) UpdateWindow(window WindowConfig) error {
	s.mu.Lock()
	s.config.Window = window
	s.mu.Unlock()
	return s.Save()
}

// UpdateForwarding updates pointer forwarding configuration
func (s *Service) UpdateForwarding(forwarding ForwardingConfig) error {
	s.mu.Lock()
	s.config.Forwarding = forwarding
	s.mu.Unlock()
	return s.Save()
}

// Level maps LogLevel onto a slog level, defaulting to info
func (c Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

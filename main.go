package main

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	wailswindows "github.com/wailsapp/wails/v2/pkg/options/windows"
	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"overlay-player/internal/cache"
	"overlay-player/internal/config"
	"overlay-player/internal/files"
	"overlay-player/internal/forward"
	"overlay-player/internal/media"
	"overlay-player/internal/overlay"
	"overlay-player/internal/window"
)

//go:embed all:frontend/dist
var assets embed.FS

// PlayerLabel names the main window in ClickThru calls from the front end
const PlayerLabel = "Player"

// App struct
type App struct {
	ctx     context.Context
	log     *slog.Logger
	config  *config.Service
	forward *forward.Registry
	overlay *overlay.Service
	media   *media.Service

	openedFiles []string

	mu     sync.Mutex
	queues []*forward.Queue
}

// NewApp creates a new App application struct
func NewApp(configSvc *config.Service, logger *slog.Logger, openedFiles []string) *App {
	return &App{
		config:      configSvc,
		log:         logger,
		openedFiles: openedFiles,
	}
}

// OnStartup is called when the app starts up
func (a *App) OnStartup(ctx context.Context) {
	a.ctx = ctx
	cfg := a.config.Get()

	a.forward = forward.New(forward.NewSystem(a.log), cfg.Forwarding.EventName, a.log)
	a.overlay = overlay.New(a.forward, a.log)

	metaCache := cache.New[*media.Metadata](
		cfg.MetadataCache.Size,
		time.Duration(cfg.MetadataCache.TTLSeconds)*time.Second,
	)
	a.media = media.New(cfg.FFmpegPath, cfg.FFprobePath, metaCache, a.log)

	a.log.Info("app started", slog.String("config", a.config.Path()))
}

// OnDomReady is called once the native window and its content exist
func (a *App) OnDomReady(ctx context.Context) {
	if err := a.registerWindows(); err != nil {
		a.log.Error("pointer forwarding unavailable", slog.Any("error", err))
	}
}

// OnShutdown is called when the app is shutting down
func (a *App) OnShutdown(ctx context.Context) {
	if a.media != nil {
		a.media.Cancel()
	}
	if a.overlay != nil {
		// The hook and interceptors must go before the windows do.
		a.overlay.Shutdown()
	}

	a.mu.Lock()
	for _, q := range a.queues {
		q.Close()
		if dropped := q.Dropped(); dropped > 0 {
			a.log.Info("pointer notifications dropped", slog.Uint64("count", dropped))
		}
	}
	a.queues = nil
	a.mu.Unlock()

	if a.config != nil {
		if err := a.config.Save(); err != nil {
			a.log.Warn("failed to save config", slog.Any("error", err))
		}
	}
}

// registerPlayer hands the player's native window to the overlay service.
// The page may reload and fire OnDomReady again; the window is registered once.
func (a *App) registerPlayer(find func(title string) (uintptr, error)) error {
	title := a.config.Get().Window.Title
	var hwnd uintptr
	added, err := a.overlay.Ensure(PlayerLabel, func() (overlay.Window, error) {
		var err error
		if hwnd, err = find(title); err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", title, err)
		}
		return window.New(PlayerLabel, hwnd, a.newQueue()), nil
	})
	if err != nil {
		return err
	}

	if added {
		a.log.Info("window registered", slog.String("label", PlayerLabel), slog.Uint64("hwnd", uint64(hwnd)))
	}
	return nil
}

// newQueue builds the event channel for one window
func (a *App) newQueue() *forward.Queue {
	q := forward.NewQueue(a.config.Get().Forwarding.QueueSize, func(event string, payload any) error {
		wailsruntime.EventsEmit(a.ctx, event, payload)
		return nil
	}, a.log)

	a.mu.Lock()
	a.queues = append(a.queues, q)
	a.mu.Unlock()
	return q
}

// onSecondInstanceLaunch hands files opened from a second launch to the player
func (a *App) onSecondInstanceLaunch(data options.SecondInstanceData) {
	a.log.Info("second instance", slog.Any("args", data.Args))
	if a.ctx == nil {
		return
	}
	wailsruntime.WindowUnminimise(a.ctx)
	wailsruntime.EventsEmit(a.ctx, "second-instance", map[string]any{"args": data.Args})
}

// Init returns the files passed on the command line
func (a *App) Init() []string {
	return a.openedFiles
}

// ClickThru makes the window labelled id ignore pointer input while still
// delivering pointer moves to its content
func (a *App) ClickThru(ignore bool, id string) error {
	if a.overlay == nil {
		return fmt.Errorf("overlay service not available")
	}
	return a.overlay.ClickThrough(id, ignore)
}

// Windows returns the click-through state of every registered window
func (a *App) Windows() []overlay.WindowInfo {
	if a.overlay == nil {
		return nil
	}
	return a.overlay.Windows()
}

// Close stops all forwarding and quits
func (a *App) Close() {
	if a.overlay != nil {
		a.overlay.Shutdown()
	}
	wailsruntime.Quit(a.ctx)
}

// Stat returns size and timestamps of a file
func (a *App) Stat(path string) (files.Metadata, error) {
	return files.Stat(path)
}

// Rename moves a file
func (a *App) Rename(from, to string) error {
	return files.Rename(from, to)
}

// GetMediaMetadata probes a media file
func (a *App) GetMediaMetadata(path string) (*media.Metadata, error) {
	if a.media == nil {
		return nil, fmt.Errorf("media service not available")
	}
	return a.media.GetMetadata(a.ctx, path)
}

// ConvertAudio converts a file to mp3
func (a *App) ConvertAudio(src, dst string, opts media.AudioOptions) error {
	if a.media == nil {
		return fmt.Errorf("media service not available")
	}
	return a.media.ConvertAudio(a.ctx, src, dst, opts)
}

// ConvertVideo converts a file to mp4
func (a *App) ConvertVideo(src, dst string, opts media.VideoOptions) error {
	if a.media == nil {
		return fmt.Errorf("media service not available")
	}
	return a.media.ConvertVideo(a.ctx, src, dst, opts)
}

// CancelConvert stops the running conversion, if any
func (a *App) CancelConvert() {
	if a.media != nil {
		a.media.Cancel()
	}
}

func main() {
	configSvc, err := config.New()
	if err != nil {
		fmt.Printf("Failed to initialize config: %v\n", err)
		os.Exit(1)
	}
	cfg := configSvc.Get()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	// Create an instance of the app structure
	app := NewApp(configSvc, logger, os.Args[1:])

	// Create application with options
	err = wails.Run(&options.App{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Frameless:        true,
		AlwaysOnTop:      cfg.Window.AlwaysOnTop,
		BackgroundColour: &options.RGBA{R: 0, G: 0, B: 0, A: 0}, // Transparent
		Windows: &wailswindows.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
		},
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId:               "overlay-player-2f6c1e",
			OnSecondInstanceLaunch: app.onSecondInstanceLaunch,
		},
		OnStartup:  app.OnStartup,
		OnDomReady: app.OnDomReady,
		OnShutdown: app.OnShutdown,
		Bind:       []interface{}{app},
	})

	if err != nil {
		logger.Error("error starting application", slog.Any("error", err))
		os.Exit(1)
	}
}

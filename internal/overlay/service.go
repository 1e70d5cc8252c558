package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"overlay-player/internal/forward"
)

// Window is a native window that can be made click-through.
type Window interface {
	forward.Window
	SetIgnoreCursorEvents(ignore bool) error
}

// Service manages the overlay windows and their click-through state
type Service struct {
	forward *forward.Registry
	log     *slog.Logger

	mu      sync.RWMutex
	windows map[string]*windowState
	order   []string
}

type windowState struct {
	win          Window
	clickThrough bool
	updatedAt    time.Time
}

// WindowInfo describes one overlay window for the front end
type WindowInfo struct {
	Label        string    `json:"label"`
	ClickThrough bool      `json:"click_through"`
	Forwarding   bool      `json:"forwarding"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// New creates a new overlay service
func New(registry *forward.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		forward: registry,
		log:     logger,
		windows: make(map[string]*windowState),
	}
}

// Register adds a window under its label
func (s *Service) Register(w Window) error {
	if w == nil || w.Label() == "" {
		return forward.ErrWindowNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	label := w.Label()
	if _, exists := s.windows[label]; exists {
		return fmt.Errorf("window %q already registered", label)
	}
	s.registerLocked(w)
	return nil
}

// Ensure registers the window built by create unless label is already
// registered, in which case create is not called. It reports whether a
// window was added.
func (s *Service) Ensure(label string, create func() (Window, error)) (bool, error) {
	if label == "" {
		return false, forward.ErrWindowNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.windows[label]; exists {
		return false, nil
	}

	w, err := create()
	if err != nil {
		return false, err
	}
	if w == nil || w.Label() != label {
		return false, fmt.Errorf("%w: created window is not %q", forward.ErrWindowNotFound, label)
	}
	s.registerLocked(w)
	return true, nil
}

func (s *Service) registerLocked(w Window) {
	s.windows[w.Label()] = &windowState{win: w, updatedAt: time.Now()}
	s.order = append(s.order, w.Label())
}

// Unregister stops forwarding for a window and forgets it
func (s *Service) Unregister(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.windows[label]
	if !exists {
		return fmt.Errorf("%w: %q", forward.ErrWindowNotFound, label)
	}

	err := s.forward.Toggle(state.win, false)
	delete(s.windows, label)
	for i, l := range s.order {
		if l == label {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return err
}

// Get returns the window registered under label
func (s *Service) Get(label string) (Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.windows[label]
	if !exists {
		return nil, fmt.Errorf("%w: %q", forward.ErrWindowNotFound, label)
	}
	return state.win, nil
}

// ClickThrough makes a window ignore pointer input and, while it does,
// forwards pointer moves to its content so hover effects keep working.
func (s *Service) ClickThrough(label string, ignore bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.windows[label]
	if !exists {
		return fmt.Errorf("%w: %q", forward.ErrWindowNotFound, label)
	}

	wasForwarding := slices.Contains(s.forward.Labels(), label)
	if err := s.forward.Toggle(state.win, ignore); err != nil && ignore {
		return fmt.Errorf("failed to enable forwarding for %q: %w", label, err)
	} else if err != nil {
		// Disabling already dropped the registration; still restore input.
		s.log.Warn("forwarding teardown incomplete", slog.String("label", label), slog.Any("error", err))
		return errors.Join(err, s.setIgnoreLocked(state, false))
	}

	if err := s.setIgnoreLocked(state, ignore); err != nil {
		if ignore && !wasForwarding {
			// Without click-through nothing needs forwarding.
			if rbErr := s.forward.Toggle(state.win, false); rbErr != nil {
				s.log.Warn("forwarding rollback failed", slog.String("label", label), slog.Any("error", rbErr))
			}
		}
		return err
	}

	s.log.Info("click-through changed", slog.String("label", label), slog.Bool("ignore", ignore))
	return nil
}

func (s *Service) setIgnoreLocked(state *windowState, ignore bool) error {
	if err := state.win.SetIgnoreCursorEvents(ignore); err != nil {
		return fmt.Errorf("failed to set click-through for %q: %w", state.win.Label(), err)
	}
	state.clickThrough = ignore
	state.updatedAt = time.Now()
	return nil
}

// IsClickThrough returns whether a window currently ignores pointer input
func (s *Service) IsClickThrough(label string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, exists := s.windows[label]
	return exists && state.clickThrough
}

// Windows returns all registered windows in registration order
func (s *Service) Windows() []WindowInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	forwarding := make(map[string]bool)
	for _, label := range s.forward.Labels() {
		forwarding[label] = true
	}

	infos := make([]WindowInfo, 0, len(s.order))
	for _, label := range s.order {
		state := s.windows[label]
		infos = append(infos, WindowInfo{
			Label:        label,
			ClickThrough: state.clickThrough,
			Forwarding:   forwarding[label],
			UpdatedAt:    state.updatedAt,
		})
	}
	return infos
}

// Shutdown releases the pointer hook and every message interceptor. It must
// run before the windows are destroyed.
func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.forward.ClearAll()
	for _, state := range s.windows {
		state.clickThrough = false
	}
	if err != nil {
		s.log.Warn("forwarding shutdown incomplete", slog.Any("error", err))
	}
	return err
}

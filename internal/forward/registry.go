package forward

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// DefaultEventName is the notification name the overlay front end listens on.
const DefaultEventName = "WM_MOUSEMOVE"

// Registry is the single owner of forwarding state: the ordered set of
// forwarding windows, the process-wide pointer hook and the per-window
// message interceptors. One lock covers all of it; the forwarding-active
// flag is derived from the set under that lock.
type Registry struct {
	sys       System
	log       *slog.Logger
	eventName string

	mu         sync.RWMutex
	windows    []Window
	hook       *refCounted
	hookHandle HookHandle
	subclasses map[uintptr]*refCounted
}

// New creates a registry backed by sys. Notifications are emitted under
// eventName, or DefaultEventName when empty.
func New(sys System, eventName string, logger *slog.Logger) *Registry {
	if eventName == "" {
		eventName = DefaultEventName
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		sys:        sys,
		log:        logger,
		eventName:  eventName,
		subclasses: make(map[uintptr]*refCounted),
	}
	r.hook = &refCounted{
		create:  r.installHook,
		destroy: r.removeHook,
	}
	return r
}

// Toggle enables or disables forwarding for w. Enabling a label that is
// already registered does nothing. Disabling a label that is not registered
// does nothing.
func (r *Registry) Toggle(w Window, enable bool) error {
	if w == nil || w.Handle() == 0 || w.Label() == "" {
		return ErrWindowNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if enable {
		return r.enableLocked(w)
	}
	return r.disableLocked(w.Label())
}

// ClearAll disables forwarding for every registered window. It must run
// before the owning application tears its windows down, otherwise the hook
// outlives them.
func (r *Registry) ClearAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	labels := make([]string, 0, len(r.windows))
	for _, w := range r.windows {
		labels = append(labels, w.Label())
	}

	var errs []error
	for _, label := range labels {
		if err := r.disableLocked(label); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Active reports whether any window is forwarding.
func (r *Registry) Active() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows) > 0
}

// HookInstalled reports whether the process-wide pointer hook is installed.
func (r *Registry) HookInstalled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hook.Held()
}

// Labels returns the registered labels in registration order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	labels := make([]string, len(r.windows))
	for i, w := range r.windows {
		labels[i] = w.Label()
	}
	return labels
}

// Intercepting reports whether a message interceptor is attached to hwnd.
func (r *Registry) Intercepting(hwnd uintptr) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subclasses[hwnd]
	return ok
}

func (r *Registry) enableLocked(w Window) error {
	label := w.Label()
	if r.indexLocked(label) >= 0 {
		return nil
	}

	hwnd := w.Handle()
	sub := r.subclassLocked(hwnd)
	if err := sub.Acquire(); err != nil {
		r.dropSubclassLocked(hwnd)
		return fmt.Errorf("%w for %q: %w", ErrSubclassAttach, label, err)
	}

	if err := r.hook.Acquire(); err != nil {
		if relErr := sub.Release(); relErr != nil {
			r.log.Warn("rollback of message interceptor failed",
				slog.String("label", label),
				slog.Uint64("hwnd", uint64(hwnd)),
				slog.Any("error", relErr))
		}
		r.dropSubclassLocked(hwnd)
		return fmt.Errorf("%w: %w", ErrHookInstall, err)
	}

	r.windows = append(r.windows, w)
	r.log.Debug("forwarding enabled",
		slog.String("label", label),
		slog.Uint64("hwnd", uint64(hwnd)),
		slog.Int("windows", len(r.windows)))
	return nil
}

func (r *Registry) disableLocked(label string) error {
	i := r.indexLocked(label)
	if i < 0 {
		return nil
	}

	w := r.windows[i]
	r.windows = slices.Delete(r.windows, i, i+1)

	var errs []error
	hwnd := w.Handle()
	if sub, ok := r.subclasses[hwnd]; ok {
		if err := sub.Release(); err != nil {
			errs = append(errs, fmt.Errorf("%w for %q: %w", ErrSubclassDetach, label, err))
		}
		if !sub.Held() {
			delete(r.subclasses, hwnd)
		}
	}

	if err := r.hook.Release(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrHookRemove, err))
	}

	r.log.Debug("forwarding disabled",
		slog.String("label", label),
		slog.Uint64("hwnd", uint64(hwnd)),
		slog.Int("windows", len(r.windows)))
	return errors.Join(errs...)
}

func (r *Registry) indexLocked(label string) int {
	return slices.IndexFunc(r.windows, func(w Window) bool {
		return w.Label() == label
	})
}

// subclassLocked returns the interceptor resource for hwnd. Several labels
// may share a handle; the interceptor is attached once for all of them.
func (r *Registry) subclassLocked(hwnd uintptr) *refCounted {
	if sub, ok := r.subclasses[hwnd]; ok {
		return sub
	}
	sub := &refCounted{
		create:  func() error { return r.sys.AttachSubclass(hwnd, r.SubclassProc) },
		destroy: func() error { return r.sys.DetachSubclass(hwnd) },
	}
	r.subclasses[hwnd] = sub
	return sub
}

func (r *Registry) dropSubclassLocked(hwnd uintptr) {
	if sub, ok := r.subclasses[hwnd]; ok && !sub.Held() {
		delete(r.subclasses, hwnd)
	}
}

func (r *Registry) installHook() error {
	h, err := r.sys.InstallMouseHook(r.HookProc)
	if err != nil {
		return err
	}
	r.hookHandle = h
	r.log.Info("pointer hook installed", slog.Uint64("hook", uint64(h)))
	return nil
}

func (r *Registry) removeHook() error {
	h := r.hookHandle
	r.hookHandle = 0
	if err := r.sys.RemoveMouseHook(h); err != nil {
		return err
	}
	r.log.Info("pointer hook removed", slog.Uint64("hook", uint64(h)))
	return nil
}

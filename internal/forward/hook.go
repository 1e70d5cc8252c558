package forward

import (
	"fmt"
	"log/slog"
	"slices"
)

// HookProc is installed as the process-wide pointer hook. It emits a
// Position to every forwarding window whose client area contains the
// pointer and always hands the event to the next hook.
//
// Windows covering each other all receive the move; the front end only uses
// it for hover state.
func (r *Registry) HookProc(code int32, msg uint32, screen Point, next func() uintptr) uintptr {
	if code >= 0 && msg == MsgMouseMove {
		r.dispatchMove(screen)
	}
	return next()
}

// SubclassProc is attached to every forwarding window. While forwarding is
// active it swallows pointer-leave messages so the content does not see the
// pointer leave when its input is going to the window underneath.
func (r *Registry) SubclassProc(hwnd uintptr, msg uint32, def func() uintptr) uintptr {
	if msg == MsgMouseLeave && r.Active() {
		return 0
	}
	return def()
}

func (r *Registry) dispatchMove(screen Point) {
	// A writer holds the lock while it waits on the hook thread to install or
	// remove the hook. Blocking here would deadlock with it, so the move is
	// skipped instead.
	if !r.mu.TryRLock() {
		return
	}
	targets := slices.Clone(r.windows)
	r.mu.RUnlock()

	for _, w := range targets {
		r.forwardTo(w, screen)
	}
}

func (r *Registry) forwardTo(w Window, screen Point) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("pointer forwarding panicked",
				slog.String("label", w.Label()),
				slog.Any("panic", p))
		}
	}()

	pos, inside, err := MapToClient(w, screen)
	if err != nil {
		r.log.Debug("pointer mapping failed",
			slog.String("label", w.Label()),
			slog.Any("error", err))
		return
	}
	if !inside {
		return
	}

	if err := w.Emit(r.eventName, pos); err != nil {
		r.log.Warn("pointer notification dropped",
			slog.String("label", w.Label()),
			slog.Any("error", fmt.Errorf("%w: %w", ErrEmit, err)))
	}
}

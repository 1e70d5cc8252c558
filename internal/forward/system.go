package forward

import "errors"

var (
	ErrWindowNotFound  = errors.New("window not found")
	ErrHookInstall     = errors.New("failed to install pointer hook")
	ErrHookRemove      = errors.New("failed to remove pointer hook")
	ErrSubclassAttach  = errors.New("failed to attach message interceptor")
	ErrSubclassDetach  = errors.New("failed to detach message interceptor")
	ErrEmit            = errors.New("failed to emit pointer notification")
	ErrUnsupported     = errors.New("pointer forwarding is not supported on this platform")
	errAlreadyAttached = errors.New("interceptor already attached")
	errNotAttached     = errors.New("interceptor not attached")
)

// HookHandle identifies an installed process-wide pointer hook.
type HookHandle uintptr

// HookProc receives every low-level pointer event. next forwards the event to
// the next hook in the chain and must be called exactly once; its result is
// the hook's return value.
type HookProc func(code int32, msg uint32, screen Point, next func() uintptr) uintptr

// SubclassProc receives every message sent to an intercepted window. def runs
// the window's previous handling.
type SubclassProc func(hwnd uintptr, msg uint32, def func() uintptr) uintptr

// System installs and removes the operating system resources behind
// forwarding. Calls are serialized by the registry.
type System interface {
	InstallMouseHook(proc HookProc) (HookHandle, error)
	RemoveMouseHook(h HookHandle) error
	AttachSubclass(hwnd uintptr, proc SubclassProc) error
	DetachSubclass(hwnd uintptr) error
}

// HookOnly wraps sys so that message interception becomes a no-op. Windows of
// another process cannot be intercepted, so observers of foreign windows use
// this.
func HookOnly(sys System) System {
	return hookOnly{System: sys}
}

type hookOnly struct {
	System
}

func (hookOnly) AttachSubclass(uintptr, SubclassProc) error { return nil }

func (hookOnly) DetachSubclass(uintptr) error { return nil }

type unsupportedSystem struct{}

func (unsupportedSystem) InstallMouseHook(HookProc) (HookHandle, error) { return 0, ErrUnsupported }

func (unsupportedSystem) RemoveMouseHook(HookHandle) error { return ErrUnsupported }

func (unsupportedSystem) AttachSubclass(uintptr, SubclassProc) error { return ErrUnsupported }

func (unsupportedSystem) DetachSubclass(uintptr) error { return ErrUnsupported }

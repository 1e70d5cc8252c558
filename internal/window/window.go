// Package window wraps a native top-level window for the overlay: its
// identity, geometry, click-through style and event channel.
package window

import (
	"overlay-player/internal/forward"
)

// Emitter delivers named notifications to the window's content.
type Emitter interface {
	Emit(event string, payload any) error
}

// Native is a window owned by the host toolkit. It does not own the window's
// lifetime.
type Native struct {
	hwnd    uintptr
	label   string
	emitter Emitter
}

// New wraps hwnd under label. Notifications go to emitter.
func New(label string, hwnd uintptr, emitter Emitter) *Native {
	return &Native{
		hwnd:    hwnd,
		label:   label,
		emitter: emitter,
	}
}

// Handle returns the native window handle.
func (n *Native) Handle() uintptr {
	return n.hwnd
}

// Label returns the window's name.
func (n *Native) Label() string {
	return n.label
}

// Emit forwards a notification to the window's content.
func (n *Native) Emit(event string, payload any) error {
	if n.emitter == nil {
		return forward.ErrEmit
	}
	return n.emitter.Emit(event, payload)
}

var _ forward.Window = (*Native)(nil)

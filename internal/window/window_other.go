//go:build !windows

package window

import (
	"overlay-player/internal/forward"
)

// FindByTitle is only available on Windows.
func FindByTitle(title string) (uintptr, error) {
	return 0, forward.ErrUnsupported
}

// ClientRect is only available on Windows.
func (n *Native) ClientRect() (forward.Rect, error) {
	return forward.Rect{}, forward.ErrUnsupported
}

// ScreenToClient is only available on Windows.
func (n *Native) ScreenToClient(p forward.Point) (forward.Point, error) {
	return forward.Point{}, forward.ErrUnsupported
}

// SetIgnoreCursorEvents is only available on Windows.
func (n *Native) SetIgnoreCursorEvents(ignore bool) error {
	return forward.ErrUnsupported
}

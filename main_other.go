//go:build !windows

package main

import "overlay-player/internal/forward"

// registerWindows has nothing to attach to on this platform
func (a *App) registerWindows() error {
	return forward.ErrUnsupported
}

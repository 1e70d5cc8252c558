//go:build windows

package main

import "overlay-player/internal/window"

// registerWindows finds the player's native window by its title
func (a *App) registerWindows() error {
	return a.registerPlayer(window.FindByTitle)
}

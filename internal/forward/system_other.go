//go:build !windows

package forward

import "log/slog"

// NewSystem returns a backend whose every operation fails with
// ErrUnsupported. The low-level pointer hook only exists on Windows.
func NewSystem(_ *slog.Logger) System {
	return unsupportedSystem{}
}

//go:build windows

package window

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"overlay-player/internal/forward"
)

// Windows constants for extended window styles
const (
	_GWL_EXSTYLE       int32 = -20
	_WS_EX_TRANSPARENT int32 = 0x00000020
	_WS_EX_LAYERED     int32 = 0x00080000
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetLastError = kernel32.NewProc("SetLastError")

	procFindWindowW    = user32.NewProc("FindWindowW")
	procIsWindow       = user32.NewProc("IsWindow")
	procGetClientRect  = user32.NewProc("GetClientRect")
	procScreenToClient = user32.NewProc("ScreenToClient")
	procGetWindowLongW = user32.NewProc("GetWindowLongW")
	procSetWindowLongW = user32.NewProc("SetWindowLongW")
)

type point struct {
	X, Y int32
}

// FindByTitle returns the handle of the top-level window with the given title.
func FindByTitle(title string) (uintptr, error) {
	ptr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, fmt.Errorf("invalid window title %q: %w", title, err)
	}

	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(ptr)))
	if hwnd == 0 {
		return 0, fmt.Errorf("%w: no window titled %q", forward.ErrWindowNotFound, title)
	}
	return hwnd, nil
}

// ClientRect returns the client area relative to its own top-left corner.
func (n *Native) ClientRect() (forward.Rect, error) {
	if err := n.alive(); err != nil {
		return forward.Rect{}, err
	}

	var r windows.Rect
	ret, _, err := procGetClientRect.Call(n.hwnd, uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return forward.Rect{}, fmt.Errorf("GetClientRect: %w", err)
	}
	return forward.Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}, nil
}

// ScreenToClient converts a screen point into client coordinates.
func (n *Native) ScreenToClient(p forward.Point) (forward.Point, error) {
	pt := point{X: p.X, Y: p.Y}
	ret, _, err := procScreenToClient.Call(n.hwnd, uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return forward.Point{}, fmt.Errorf("ScreenToClient: %w", err)
	}
	return forward.Point{X: pt.X, Y: pt.Y}, nil
}

// SetIgnoreCursorEvents toggles WS_EX_TRANSPARENT so pointer input passes
// through the window to whatever is beneath it.
func (n *Native) SetIgnoreCursorEvents(ignore bool) error {
	if err := n.alive(); err != nil {
		return err
	}

	idx := _GWL_EXSTYLE
	exStyle, _, _ := procGetWindowLongW.Call(n.hwnd, uintptr(idx))
	cur := int32(exStyle)
	newStyle := cur | _WS_EX_LAYERED
	if ignore {
		newStyle = newStyle | _WS_EX_TRANSPARENT
	} else {
		newStyle = newStyle &^ _WS_EX_TRANSPARENT
	}
	if newStyle == cur {
		return nil
	}

	// SetWindowLongW returns the previous value, which may legitimately be 0
	procSetLastError.Call(0)
	ret, _, err := procSetWindowLongW.Call(n.hwnd, uintptr(idx), uintptr(newStyle))
	if ret == 0 && err != windows.ERROR_SUCCESS {
		return fmt.Errorf("SetWindowLongW: %w", err)
	}
	return nil
}

func (n *Native) alive() error {
	if ok, _, _ := procIsWindow.Call(n.hwnd); ok == 0 {
		return fmt.Errorf("%w: %q (%#x)", forward.ErrWindowNotFound, n.label, n.hwnd)
	}
	return nil
}

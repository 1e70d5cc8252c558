package forward

import (
	"errors"
	"io"
	"log/slog"
	"sync"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSystem struct {
	mu       sync.Mutex
	hook     HookProc
	nextHook HookHandle
	installs int
	removes  int
	attached map[uintptr]SubclassProc
	attaches []uintptr
	detaches []uintptr

	installErr error
	removeErr  error
	attachErr  error
	detachErr  error
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{
		nextHook: 0x100,
		attached: make(map[uintptr]SubclassProc),
	}
}

func (s *fakeSystem) InstallMouseHook(proc HookProc) (HookHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.installErr != nil {
		return 0, s.installErr
	}
	if s.hook != nil {
		return 0, errors.New("hook installed twice")
	}
	s.installs++
	s.hook = proc
	s.nextHook++
	return s.nextHook, nil
}

func (s *fakeSystem) RemoveMouseHook(h HookHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removes++
	s.hook = nil
	return s.removeErr
}

func (s *fakeSystem) AttachSubclass(hwnd uintptr, proc SubclassProc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attachErr != nil {
		return s.attachErr
	}
	if _, ok := s.attached[hwnd]; ok {
		return errAlreadyAttached
	}
	s.attached[hwnd] = proc
	s.attaches = append(s.attaches, hwnd)
	return nil
}

func (s *fakeSystem) DetachSubclass(hwnd uintptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attached[hwnd]; !ok {
		return errNotAttached
	}
	delete(s.attached, hwnd)
	s.detaches = append(s.detaches, hwnd)
	return s.detachErr
}

func (s *fakeSystem) hookInstalled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hook != nil
}

// deliver simulates the OS invoking the installed hook.
func (s *fakeSystem) deliver(code int32, msg uint32, pt Point) (ret uintptr, nextCalls int) {
	s.mu.Lock()
	proc := s.hook
	s.mu.Unlock()
	if proc == nil {
		return 0, 0
	}
	ret = proc(code, msg, pt, func() uintptr {
		nextCalls++
		return 42
	})
	return ret, nextCalls
}

// sendMessage simulates a message reaching an intercepted window.
func (s *fakeSystem) sendMessage(hwnd uintptr, msg uint32) (ret uintptr, defaulted bool) {
	s.mu.Lock()
	proc, ok := s.attached[hwnd]
	s.mu.Unlock()
	if !ok {
		return 7, true
	}
	ret = proc(hwnd, msg, func() uintptr {
		defaulted = true
		return 7
	})
	return ret, defaulted
}

// fakeWindow sits at origin on screen with a client area of the given size.
type fakeWindow struct {
	hwnd   uintptr
	label  string
	origin Point
	width  int32
	height int32

	mu      sync.Mutex
	events  []Position
	names   []string
	emitErr error
	panics  bool
}

func newFakeWindow(hwnd uintptr, label string, origin Point, width, height int32) *fakeWindow {
	return &fakeWindow{hwnd: hwnd, label: label, origin: origin, width: width, height: height}
}

func (w *fakeWindow) Handle() uintptr { return w.hwnd }

func (w *fakeWindow) Label() string { return w.label }

func (w *fakeWindow) ClientRect() (Rect, error) {
	if w.panics {
		panic("window destroyed")
	}
	return Rect{Right: w.width, Bottom: w.height}, nil
}

func (w *fakeWindow) ScreenToClient(p Point) (Point, error) {
	return Point{X: p.X - w.origin.X, Y: p.Y - w.origin.Y}, nil
}

func (w *fakeWindow) Emit(event string, payload any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.emitErr != nil {
		return w.emitErr
	}
	w.names = append(w.names, event)
	w.events = append(w.events, payload.(Position))
	return nil
}

func (w *fakeWindow) received() []Position {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Position(nil), w.events...)
}

//go:build windows

package forward

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPeekMessageW        = user32.NewProc("PeekMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetWindowLongPtrW   = user32.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW   = user32.NewProc("SetWindowLongPtrW")
	procCallWindowProcW     = user32.NewProc("CallWindowProcW")
	procDefWindowProcW      = user32.NewProc("DefWindowProcW")
	procIsWindow            = user32.NewProc("IsWindow")
)

// a variable so the negative index converts to uintptr at run time
var _GWLP_WNDPROC = int32(-4)

const (
	_WH_MOUSE_LL  = 14
	_PM_NOREMOVE  = 0x0000
	_WM_APP       = 0x8000
	_WM_NCDESTROY = 0x0082

	// posted to the hook thread when requests are waiting
	wmRunRequests = _WM_APP + 1
)

type point struct {
	X, Y int32
}

type msllHookStruct struct {
	Pt          point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

// win32System installs the low-level mouse hook on a dedicated, locked OS
// thread that pumps messages, since the hook is called on the installing
// thread and must be removed from it. Windows are intercepted by replacing
// their window procedure, which works from any thread of the owning process.
type win32System struct {
	log *slog.Logger

	hookCallback uintptr
	wndCallback  uintptr

	startOnce sync.Once
	threadID  uint32
	requests  chan func()

	// hookProc is only touched on the hook thread
	hookProc HookProc

	subs *interceptorTable
}

var (
	systemOnce sync.Once
	system     *win32System
)

// NewSystem returns the process-wide Win32 backend. Callbacks handed to the
// OS cannot be freed, so there is only ever one.
func NewSystem(logger *slog.Logger) System {
	systemOnce.Do(func() {
		if logger == nil {
			logger = slog.Default()
		}
		s := &win32System{
			log:      logger,
			requests: make(chan func(), 16),
			subs:     newInterceptorTable(),
		}
		s.hookCallback = windows.NewCallback(s.mouseProc)
		s.wndCallback = windows.NewCallback(s.wndProc)
		system = s
	})
	return system
}

func (s *win32System) InstallMouseHook(proc HookProc) (HookHandle, error) {
	var h uintptr
	err := s.onHookThread(func() error {
		s.hookProc = proc
		ret, _, callErr := procSetWindowsHookExW.Call(_WH_MOUSE_LL, s.hookCallback, 0, 0)
		if ret == 0 {
			s.hookProc = nil
			return fmt.Errorf("SetWindowsHookExW: %w", callErr)
		}
		h = ret
		return nil
	})
	return HookHandle(h), err
}

func (s *win32System) RemoveMouseHook(h HookHandle) error {
	return s.onHookThread(func() error {
		ret, _, callErr := procUnhookWindowsHookEx.Call(uintptr(h))
		s.hookProc = nil
		if ret == 0 {
			return fmt.Errorf("UnhookWindowsHookEx: %w", callErr)
		}
		return nil
	})
}

func (s *win32System) AttachSubclass(hwnd uintptr, proc SubclassProc) error {
	s.subs.mu.Lock()
	defer s.subs.mu.Unlock()

	if ic, ok := s.subs.get(hwnd); ok {
		// left in the chain by a detach that could not unlink it
		if ic.proc == nil {
			ic.proc = proc
			return nil
		}
		return errAlreadyAttached
	}

	prev, _, callErr := procSetWindowLongPtrW.Call(hwnd, uintptr(_GWLP_WNDPROC), s.wndCallback)
	if prev == 0 {
		return fmt.Errorf("SetWindowLongPtrW: %w", callErr)
	}
	s.subs.add(hwnd, prev, proc)
	return nil
}

func (s *win32System) DetachSubclass(hwnd uintptr) error {
	s.subs.mu.Lock()
	defer s.subs.mu.Unlock()

	ic, ok := s.subs.get(hwnd)
	if !ok || ic.proc == nil {
		return errNotAttached
	}

	if alive, _, _ := procIsWindow.Call(hwnd); alive == 0 {
		s.subs.forget(hwnd)
		return nil
	}

	cur, _, _ := procGetWindowLongPtrW.Call(hwnd, uintptr(_GWLP_WNDPROC))
	if cur != s.wndCallback {
		// Someone subclassed on top of us. Unlinking would cut them off, so
		// stay in the chain as a plain pass-through.
		ic.proc = nil
		return fmt.Errorf("window procedure of %#x was replaced after attach", hwnd)
	}

	ret, _, callErr := procSetWindowLongPtrW.Call(hwnd, uintptr(_GWLP_WNDPROC), ic.prev)
	if ret == 0 {
		ic.proc = nil
		return fmt.Errorf("SetWindowLongPtrW: %w", callErr)
	}
	s.subs.remove(hwnd)
	return nil
}

func (s *win32System) mouseProc(nCode int, wParam, lParam uintptr) (ret uintptr) {
	passed := false
	next := func() uintptr {
		passed = true
		r, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
		return r
	}

	defer func() {
		if p := recover(); p != nil {
			s.log.Error("pointer hook panicked", slog.Any("panic", p))
			if !passed {
				ret = next()
			}
		}
	}()

	proc := s.hookProc
	if nCode < 0 || proc == nil {
		return next()
	}

	info := (*msllHookStruct)(unsafe.Pointer(lParam))
	return proc(int32(nCode), uint32(wParam), Point{X: info.Pt.X, Y: info.Pt.Y}, next)
}

func (s *win32System) wndProc(hwnd uintptr, umsg uint32, wParam, lParam uintptr) (ret uintptr) {
	prev, proc := s.subs.lookup(hwnd)

	def := func() uintptr {
		if prev == 0 {
			r, _, _ := procDefWindowProcW.Call(hwnd, uintptr(umsg), wParam, lParam)
			return r
		}
		r, _, _ := procCallWindowProcW.Call(prev, hwnd, uintptr(umsg), wParam, lParam)
		return r
	}

	if proc == nil {
		ret = def()
		if umsg == _WM_NCDESTROY {
			s.subs.mu.Lock()
			s.subs.forget(hwnd)
			s.subs.mu.Unlock()
		}
		return ret
	}

	defer func() {
		if p := recover(); p != nil {
			s.log.Error("message interceptor panicked",
				slog.Uint64("hwnd", uint64(hwnd)),
				slog.Any("panic", p))
			ret = def()
		}
	}()
	return proc(hwnd, umsg, def)
}

// onHookThread runs fn on the hook thread and waits for its result.
func (s *win32System) onHookThread(fn func() error) error {
	s.startOnce.Do(s.start)

	var claimed atomic.Bool
	done := make(chan error, 1)
	s.requests <- func() {
		if claimed.CompareAndSwap(false, true) {
			done <- fn()
		}
	}

	ret, _, callErr := procPostThreadMessageW.Call(uintptr(s.threadID), wmRunRequests, 0, 0)
	if ret == 0 && claimed.CompareAndSwap(false, true) {
		// The thread was never woken; the queued request is now inert.
		return fmt.Errorf("PostThreadMessageW: %w", callErr)
	}
	return <-done
}

func (s *win32System) start() {
	ready := make(chan struct{})
	go s.hookWorker(ready)
	<-ready
}

func (s *win32System) hookWorker(ready chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.threadID = windows.GetCurrentThreadId()

	// Create the thread's message queue before anybody posts to it.
	var m msg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, _PM_NOREMOVE)
	close(ready)

	s.log.Debug("hook thread started", slog.Uint64("thread", uint64(s.threadID)))

	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		// 0 is WM_QUIT, -1 is an error
		if ret == 0 || ret == ^uintptr(0) {
			break
		}

		if m.Hwnd == 0 && m.Message == wmRunRequests {
			s.runRequests()
			continue
		}

		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}

	s.log.Warn("hook thread exited")
}

func (s *win32System) runRequests() {
	for {
		select {
		case fn := <-s.requests:
			fn()
		default:
			return
		}
	}
}

package forward

import "sync"

// interceptor is the table entry for one subclassed window, looked up by the
// handle the window procedure receives. proc is nil while the entry only
// passes messages through.
type interceptor struct {
	prev uintptr
	proc SubclassProc
}

// interceptorTable maps window handles to their interceptors. Detached
// windows keep their previous procedure so a message already on its way into
// the replacement procedure still reaches the window's own handling.
type interceptorTable struct {
	mu       sync.RWMutex
	active   map[uintptr]*interceptor
	detached map[uintptr]uintptr
}

func newInterceptorTable() *interceptorTable {
	return &interceptorTable{
		active:   make(map[uintptr]*interceptor),
		detached: make(map[uintptr]uintptr),
	}
}

// lookup returns the procedure to chain to and the interceptor to run, if
// any. prev is 0 only for windows the table has never seen.
func (t *interceptorTable) lookup(hwnd uintptr) (prev uintptr, proc SubclassProc) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if ic, ok := t.active[hwnd]; ok {
		return ic.prev, ic.proc
	}
	return t.detached[hwnd], nil
}

// The methods below require t.mu held for writing.

func (t *interceptorTable) get(hwnd uintptr) (*interceptor, bool) {
	ic, ok := t.active[hwnd]
	return ic, ok
}

func (t *interceptorTable) add(hwnd, prev uintptr, proc SubclassProc) {
	delete(t.detached, hwnd)
	t.active[hwnd] = &interceptor{prev: prev, proc: proc}
}

// remove unlinks hwnd after its previous procedure was restored.
func (t *interceptorTable) remove(hwnd uintptr) {
	if ic, ok := t.active[hwnd]; ok {
		t.detached[hwnd] = ic.prev
		delete(t.active, hwnd)
	}
}

// forget drops every trace of a destroyed window.
func (t *interceptorTable) forget(hwnd uintptr) {
	delete(t.active, hwnd)
	delete(t.detached, hwnd)
}

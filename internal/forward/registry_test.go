package forward

import (
	"errors"
	"slices"
	"sync"
	"testing"
)

func TestToggle_FirstEnableInstallsHook(t *testing.T) {
	sys := newFakeSystem()
	r := New(sys, "", quietLogger())
	w := newFakeWindow(1, "Player", Point{}, 100, 100)

	if err := r.Toggle(w, true); err != nil {
		t.Fatalf("Toggle(true) failed: %v", err)
	}

	if !r.HookInstalled() || !sys.hookInstalled() {
		t.Error("Expected hook to be installed after first enable")
	}
	if !r.Intercepting(1) {
		t.Error("Expected interceptor on window 1")
	}
	if !r.Active() {
		t.Error("Expected registry to be active")
	}
	if got := r.Labels(); !slices.Equal(got, []string{"Player"}) {
		t.Errorf("Labels() = %v; want [Player]", got)
	}
}

func TestToggle_DuplicateEnableKeepsOneEntry(t *testing.T) {
	sys := newFakeSystem()
	r := New(sys, "", quietLogger())
	w := newFakeWindow(1, "Player", Point{}, 100, 100)

	for i := 0; i < 2; i++ {
		if err := r.Toggle(w, true); err != nil {
			t.Fatalf("Toggle(true) #%d failed: %v", i+1, err)
		}
	}

	if got := r.Labels(); len(got) != 1 {
		t.Errorf("Expected exactly one entry, got %v", got)
	}
	if sys.installs != 1 || len(sys.attaches) != 1 {
		t.Errorf("installs = %d, attaches = %d; want 1, 1", sys.installs, len(sys.attaches))
	}

	if err := r.Toggle(w, false); err != nil {
		t.Fatalf("Toggle(false) failed: %v", err)
	}
	if r.Active() || r.HookInstalled() {
		t.Error("A single disable should clear a twice-enabled window")
	}
}

func TestToggle_DisableUnknownIsNoop(t *testing.T) {
	sys := newFakeSystem()
	r := New(sys, "", quietLogger())

	if err := r.Toggle(newFakeWindow(9, "Ghost", Point{}, 10, 10), false); err != nil {
		t.Errorf("Disabling an unregistered window should not fail, got %v", err)
	}
	if sys.removes != 0 || len(sys.detaches) != 0 {
		t.Error("No OS resource should be touched")
	}
}

func TestToggle_InvalidWindow(t *testing.T) {
	r := New(newFakeSystem(), "", quietLogger())

	tests := []struct {
		name string
		w    Window
	}{
		{"nil", nil},
		{"no handle", newFakeWindow(0, "Player", Point{}, 10, 10)},
		{"no label", newFakeWindow(3, "", Point{}, 10, 10)},
	}

	for _, tc := range tests {
		if err := r.Toggle(tc.w, true); !errors.Is(err, ErrWindowNotFound) {
			t.Errorf("%s: Toggle error = %v; want ErrWindowNotFound", tc.name, err)
		}
	}
}

func TestToggle_DisableMatchesByLabel(t *testing.T) {
	sys := newFakeSystem()
	r := New(sys, "", quietLogger())

	if err := r.Toggle(newFakeWindow(1, "Player", Point{}, 10, 10), true); err != nil {
		t.Fatal(err)
	}

	// A different handle with the same label identifies the same entry; the
	// interceptor is still detached from the registered handle.
	if err := r.Toggle(newFakeWindow(99, "Player", Point{}, 10, 10), false); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(sys.detaches, []uintptr{1}) {
		t.Errorf("detaches = %v; want [1]", sys.detaches)
	}
}

func TestHookPresentIffSetNonEmpty(t *testing.T) {
	sys := newFakeSystem()
	r := New(sys, "", quietLogger())
	a := newFakeWindow(1, "A", Point{}, 10, 10)
	b := newFakeWindow(2, "B", Point{}, 10, 10)

	steps := []struct {
		w      *fakeWindow
		enable bool
		want   int
	}{
		{a, true, 1},
		{b, true, 2},
		{a, false, 1},
		{a, false, 1},
		{b, false, 0},
		{b, true, 1},
		{b, false, 0},
	}

	for i, step := range steps {
		if err := r.Toggle(step.w, step.enable); err != nil {
			t.Fatalf("step %d: Toggle failed: %v", i, err)
		}
		n := len(r.Labels())
		if n != step.want {
			t.Errorf("step %d: %d windows; want %d", i, n, step.want)
		}
		if r.HookInstalled() != (n > 0) || sys.hookInstalled() != (n > 0) {
			t.Errorf("step %d: hook installed = %v with %d windows", i, r.HookInstalled(), n)
		}
	}

	if sys.installs != 2 || sys.removes != 2 {
		t.Errorf("installs = %d, removes = %d; want 2, 2", sys.installs, sys.removes)
	}
}

func TestClearAll_ReleasesEverything(t *testing.T) {
	sys := newFakeSystem()
	r := New(sys, "", quietLogger())

	for i, label := range []string{"Player", "Playlist", "Convert"} {
		if err := r.Toggle(newFakeWindow(uintptr(i+1), label, Point{}, 10, 10), true); err != nil {
			t.Fatal(err)
		}
	}

	if err := r.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	if r.Active() || r.HookInstalled() {
		t.Error("Expected empty registry without hook after ClearAll")
	}
	if sys.removes != 1 {
		t.Errorf("Hook removed %d times; want 1", sys.removes)
	}
	if len(sys.detaches) != 3 || len(sys.attached) != 0 {
		t.Errorf("detaches = %v, still attached = %d", sys.detaches, len(sys.attached))
	}
	for _, hwnd := range []uintptr{1, 2, 3} {
		if r.Intercepting(hwnd) {
			t.Errorf("Window %d still intercepted", hwnd)
		}
	}

	// Second call has nothing to do.
	if err := r.ClearAll(); err != nil {
		t.Errorf("Second ClearAll failed: %v", err)
	}
	if sys.removes != 1 {
		t.Errorf("Hook removed %d times after second ClearAll; want 1", sys.removes)
	}
}

func TestToggle_HookInstallFailureRollsBack(t *testing.T) {
	sys := newFakeSystem()
	sys.installErr = errors.New("quota exceeded")
	r := New(sys, "", quietLogger())

	err := r.Toggle(newFakeWindow(1, "Player", Point{}, 10, 10), true)
	if !errors.Is(err, ErrHookInstall) {
		t.Fatalf("Toggle error = %v; want ErrHookInstall", err)
	}

	if r.Active() || r.HookInstalled() || r.Intercepting(1) {
		t.Error("Failed enable must leave no state behind")
	}
	if len(sys.attached) != 0 {
		t.Error("Interceptor should be detached on rollback")
	}

	sys.installErr = nil
	if err := r.Toggle(newFakeWindow(1, "Player", Point{}, 10, 10), true); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if !r.HookInstalled() {
		t.Error("Expected hook after retry")
	}
}

func TestToggle_SubclassAttachFailure(t *testing.T) {
	sys := newFakeSystem()
	sys.attachErr = errors.New("access denied")
	r := New(sys, "", quietLogger())

	err := r.Toggle(newFakeWindow(1, "Player", Point{}, 10, 10), true)
	if !errors.Is(err, ErrSubclassAttach) {
		t.Fatalf("Toggle error = %v; want ErrSubclassAttach", err)
	}
	if r.Active() || r.HookInstalled() || sys.installs != 0 {
		t.Error("Failed attach must not install the hook or register the window")
	}
}

func TestToggle_RemoveFailureStillClearsState(t *testing.T) {
	sys := newFakeSystem()
	r := New(sys, "", quietLogger())
	w := newFakeWindow(1, "Player", Point{}, 10, 10)

	if err := r.Toggle(w, true); err != nil {
		t.Fatal(err)
	}

	sys.removeErr = errors.New("invalid hook handle")
	sys.detachErr = errors.New("invalid window handle")
	err := r.Toggle(w, false)
	if !errors.Is(err, ErrHookRemove) || !errors.Is(err, ErrSubclassDetach) {
		t.Fatalf("Toggle error = %v; want ErrHookRemove and ErrSubclassDetach", err)
	}

	if r.Active() || r.HookInstalled() || r.Intercepting(1) {
		t.Error("Registry must be empty after a failed removal")
	}
}

func TestToggle_SharedHandleAttachesOnce(t *testing.T) {
	sys := newFakeSystem()
	r := New(sys, "", quietLogger())
	a := newFakeWindow(5, "Main", Point{}, 10, 10)
	b := newFakeWindow(5, "MainAlias", Point{}, 10, 10)

	if err := r.Toggle(a, true); err != nil {
		t.Fatal(err)
	}
	if err := r.Toggle(b, true); err != nil {
		t.Fatal(err)
	}
	if len(sys.attaches) != 1 {
		t.Errorf("attaches = %v; want one", sys.attaches)
	}

	if err := r.Toggle(a, false); err != nil {
		t.Fatal(err)
	}
	if !r.Intercepting(5) || len(sys.detaches) != 0 {
		t.Error("Interceptor must stay while another label uses the handle")
	}

	if err := r.Toggle(b, false); err != nil {
		t.Fatal(err)
	}
	if r.Intercepting(5) || len(sys.detaches) != 1 {
		t.Error("Interceptor must go with the last label")
	}
}

func TestHookOnly(t *testing.T) {
	sys := newFakeSystem()
	r := New(HookOnly(sys), "", quietLogger())

	if err := r.Toggle(newFakeWindow(1, "Foreign", Point{}, 10, 10), true); err != nil {
		t.Fatal(err)
	}
	if len(sys.attaches) != 0 {
		t.Error("HookOnly must not attach interceptors")
	}
	if !sys.hookInstalled() {
		t.Error("HookOnly must still install the hook")
	}
	if err := r.ClearAll(); err != nil {
		t.Fatal(err)
	}
	if sys.hookInstalled() {
		t.Error("Expected hook removed")
	}
}

func TestUnsupportedSystem(t *testing.T) {
	r := New(unsupportedSystem{}, "", quietLogger())

	err := r.Toggle(newFakeWindow(1, "Player", Point{}, 10, 10), true)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Toggle error = %v; want ErrUnsupported", err)
	}
	if r.Active() {
		t.Error("Nothing should be registered")
	}
}

func TestRegistry_ConcurrentToggleAndHook(t *testing.T) {
	sys := newFakeSystem()
	r := New(sys, "", quietLogger())

	windows := make([]*fakeWindow, 8)
	for i := range windows {
		windows[i] = newFakeWindow(uintptr(i+1), string(rune('A'+i)), Point{}, 100, 100)
	}

	var wg sync.WaitGroup
	for _, w := range windows {
		wg.Add(1)
		go func(w *fakeWindow) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = r.Toggle(w, i%2 == 0)
			}
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			r.HookProc(0, MsgMouseMove, Point{X: 10, Y: 10}, func() uintptr { return 0 })
		}
	}()
	wg.Wait()

	if err := r.ClearAll(); err != nil {
		t.Fatal(err)
	}
	if r.HookInstalled() || sys.hookInstalled() || len(sys.attached) != 0 {
		t.Error("Expected everything released after ClearAll")
	}
	if sys.installs != sys.removes {
		t.Errorf("installs = %d, removes = %d; want equal", sys.installs, sys.removes)
	}
}

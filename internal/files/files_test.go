package files

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2023, 5, 1, 10, 30, 0, 0, time.UTC)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	meta, err := Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	if meta.Size != 10 {
		t.Errorf("Size = %d; want 10", meta.Size)
	}
	if meta.Mtime != mtime.UnixMilli() {
		t.Errorf("Mtime = %d; want %d", meta.Mtime, mtime.UnixMilli())
	}
	if meta.Atime == 0 || meta.Ctime == 0 {
		t.Errorf("Expected access and creation times, got %+v", meta)
	}
}

func TestStat_Missing(t *testing.T) {
	_, err := Stat(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Stat error = %v; want ErrNotFound", err)
	}
}

func TestStat_Directory(t *testing.T) {
	if _, err := Stat(t.TempDir()); err == nil {
		t.Error("Expected an error for a directory")
	}
}

func TestRename(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "a.mp3")
	to := filepath.Join(dir, "b.mp3")
	if err := os.WriteFile(from, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Rename(from, to); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if _, err := os.Stat(to); err != nil {
		t.Errorf("Expected %s to exist: %v", to, err)
	}
	if _, err := os.Stat(from); !os.IsNotExist(err) {
		t.Errorf("Expected %s to be gone", from)
	}
}

func TestRename_Errors(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "taken.mp3")
	source := filepath.Join(dir, "source.mp3")
	for _, p := range []string{existing, source} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := Rename(filepath.Join(dir, "missing"), filepath.Join(dir, "x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rename of missing file = %v; want ErrNotFound", err)
	}
	if err := Rename(source, existing); err == nil {
		t.Error("Expected Rename to refuse overwriting")
	}
}

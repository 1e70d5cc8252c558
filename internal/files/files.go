package files

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var ErrNotFound = errors.New("file not found")

// Metadata holds file size and times in unix milliseconds
type Metadata struct {
	Size  int64 `json:"size"`
	Atime int64 `json:"atime"`
	Mtime int64 `json:"mtime"`
	Ctime int64 `json:"ctime"` // creation time where the platform records one
}

// Stat returns size and timestamps for path
func Stat(path string) (Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Metadata{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Metadata{}, fmt.Errorf("%s is a directory", path)
	}

	atime, ctime := fileTimes(path, info)
	return Metadata{
		Size:  info.Size(),
		Atime: atime.UnixMilli(),
		Mtime: info.ModTime().UnixMilli(),
		Ctime: ctime.UnixMilli(),
	}, nil
}

// Rename moves from to to, refusing to overwrite an existing file
func Rename(from, to string) error {
	if _, err := os.Stat(from); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, from)
		}
		return fmt.Errorf("failed to stat %s: %w", from, err)
	}
	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("failed to rename %s: %s already exists", from, to)
	}

	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("failed to rename %s: %w", from, err)
	}
	return nil
}

// fallbackTimes is used where the platform gives us nothing beyond mtime
func fallbackTimes(info os.FileInfo) (time.Time, time.Time) {
	return info.ModTime(), info.ModTime()
}

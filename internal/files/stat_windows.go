//go:build windows

package files

import (
	"os"
	"syscall"
	"time"
)

func fileTimes(_ string, info os.FileInfo) (atime, ctime time.Time) {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return fallbackTimes(info)
	}
	return time.Unix(0, data.LastAccessTime.Nanoseconds()), time.Unix(0, data.CreationTime.Nanoseconds())
}

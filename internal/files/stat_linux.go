//go:build linux

package files

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func fileTimes(path string, info os.FileInfo) (atime, ctime time.Time) {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_ATIME|unix.STATX_BTIME|unix.STATX_CTIME, &stx)
	if err == nil {
		atime = time.Unix(stx.Atime.Sec, int64(stx.Atime.Nsec))
		// Not every filesystem records a birth time.
		if stx.Mask&unix.STATX_BTIME != 0 {
			return atime, time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
		}
		return atime, time.Unix(stx.Ctime.Sec, int64(stx.Ctime.Nsec))
	}

	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fallbackTimes(info)
	}
	return time.Unix(st.Atim.Unix()), time.Unix(st.Ctim.Unix())
}

//go:build linux || darwin

package debug

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// residentBytes reports peak resident set size from getrusage.
func residentBytes() (uint64, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, err
	}
	// Maxrss is KiB on Linux and bytes on Darwin.
	if runtime.GOOS == "darwin" {
		return uint64(ru.Maxrss), nil
	}
	return uint64(ru.Maxrss) * 1024, nil
}

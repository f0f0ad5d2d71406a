//go:build arm64

package simd

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

func init() {
	// ASIMD is mandatory on ARM64 Linux; darwin does not populate the
	// auxv-backed flags, so assume it there.
	hasASIMD = cpu.ARM64.HasASIMD || runtime.GOOS == "darwin"
	initCapabilities()
}

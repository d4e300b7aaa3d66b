package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins every pool size.
const EnvOverride = "INGEST_WORKERS"

// Count returns a worker count of multiplier workers per available CPU,
// capped at limit (0 means no cap) and never below 1.
//
// Available CPUs come from GOMAXPROCS, which follows container CPU limits.
// A positive integer in INGEST_WORKERS replaces the computed value but is
// still capped at limit.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if n, err := strconv.Atoi(override); err == nil && n > 0 {
			return capAt(n, limit)
		}
	}

	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if n < 1 {
		n = 1
	}
	return capAt(n, limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU sizes pools for in-process image decode and encode: one per CPU.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO sizes pools whose jobs mostly wait, on the encoder process or on
// disk: two per CPU.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

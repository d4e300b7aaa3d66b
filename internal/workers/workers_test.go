package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")
	cpus := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"one per CPU", 1.0, 0, cpus},
		{"two per CPU", 2.0, 0, cpus * 2},
		{"capped", 2.0, 1, 1},
		{"zero multiplier", 0, 0, 1},
		{"negative multiplier", -3, 0, 1},
		{"high limit", 1.0, 1000, cpus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCount_EnvOverride(t *testing.T) {
	cpus := runtime.GOMAXPROCS(0)

	tests := []struct {
		name  string
		env   string
		limit int
		want  int
	}{
		{"override", "8", 0, 8},
		{"override capped by limit", "20", 10, 10},
		{"override below limit", "5", 10, 5},
		{"non-numeric ignored", "lots", 0, cpus},
		{"zero ignored", "0", 0, cpus},
		{"negative ignored", "-5", 0, cpus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.env)
			if got := Count(1.0, tt.limit); got != tt.want {
				t.Errorf("Count(1.0, %d) with %s=%q = %d, want %d", tt.limit, EnvOverride, tt.env, got, tt.want)
			}
		})
	}
}

func TestForCPUAndForIO(t *testing.T) {
	t.Setenv(EnvOverride, "")
	cpus := runtime.GOMAXPROCS(0)

	if got := ForCPU(0); got != cpus {
		t.Errorf("ForCPU(0) = %d, want %d", got, cpus)
	}
	if got := ForIO(0); got != cpus*2 {
		t.Errorf("ForIO(0) = %d, want %d", got, cpus*2)
	}
	if got := ForIO(1); got != 1 {
		t.Errorf("ForIO(1) = %d, want 1", got)
	}
}

func BenchmarkCount(b *testing.B) {
	b.Setenv(EnvOverride, "")
	for i := 0; i < b.N; i++ {
		_ = Count(2.0, 16)
	}
}

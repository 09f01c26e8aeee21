package tuner

import "testing"

func TestDetect(t *testing.T) {
	t.Parallel()

	resources, err := Detect()
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if resources.CPUCores <= 0 {
		t.Errorf("CPUCores = %d, want > 0", resources.CPUCores)
	}
	if resources.TotalRAM <= 0 {
		t.Errorf("TotalRAM = %d, want > 0", resources.TotalRAM)
	}
	if resources.AvailableRAM <= 0 || resources.AvailableRAM > resources.TotalRAM {
		t.Errorf("AvailableRAM = %d, want in (0, %d]", resources.AvailableRAM, resources.TotalRAM)
	}
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		resources       SystemResources
		wantFingerprint int
		wantCompare     int
	}{
		{
			name: "ample memory uses one worker per core",
			resources: SystemResources{
				CPUCores:     8,
				AvailableRAM: 16 * 1024 * 1024 * 1024,
			},
			wantFingerprint: 8,
			wantCompare:     8,
		},
		{
			name: "tight memory limits fingerprint workers",
			resources: SystemResources{
				CPUCores:     16,
				AvailableRAM: 1 * 1024 * 1024 * 1024, // room for 4 decodes
			},
			wantFingerprint: 4,
			wantCompare:     16,
		},
		{
			name: "minimum floor on tiny systems",
			resources: SystemResources{
				CPUCores:     1,
				AvailableRAM: 128 * 1024 * 1024,
			},
			wantFingerprint: minWorkers,
			wantCompare:     minWorkers,
		},
		{
			name: "cap on very large systems",
			resources: SystemResources{
				CPUCores:     128,
				AvailableRAM: 512 * 1024 * 1024 * 1024,
			},
			wantFingerprint: maxWorkers,
			wantCompare:     maxWorkers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Calculate(tt.resources)
			if cfg.FingerprintWorkers != tt.wantFingerprint {
				t.Errorf("FingerprintWorkers = %d, want %d", cfg.FingerprintWorkers, tt.wantFingerprint)
			}
			if cfg.CompareWorkers != tt.wantCompare {
				t.Errorf("CompareWorkers = %d, want %d", cfg.CompareWorkers, tt.wantCompare)
			}
		})
	}
}

func TestCalculateWithOverrides(t *testing.T) {
	t.Parallel()

	resources := SystemResources{
		CPUCores:     8,
		AvailableRAM: 16 * 1024 * 1024 * 1024,
	}

	t.Run("no override keeps calculated values", func(t *testing.T) {
		t.Parallel()
		cfg := CalculateWithOverrides(resources, 0)
		if cfg.FingerprintWorkers != 8 || cfg.CompareWorkers != 8 {
			t.Errorf("config = %+v, want 8 workers in both pools", cfg)
		}
	})

	t.Run("override applies to both pools", func(t *testing.T) {
		t.Parallel()
		cfg := CalculateWithOverrides(resources, 3)
		if cfg.FingerprintWorkers != 3 || cfg.CompareWorkers != 3 {
			t.Errorf("config = %+v, want 3 workers in both pools", cfg)
		}
	})

	t.Run("override respects the cap", func(t *testing.T) {
		t.Parallel()
		cfg := CalculateWithOverrides(resources, 500)
		if cfg.FingerprintWorkers != maxWorkers || cfg.CompareWorkers != maxWorkers {
			t.Errorf("config = %+v, want capped at %d", cfg, maxWorkers)
		}
	})
}

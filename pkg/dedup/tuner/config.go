package tuner

// Worker configuration limits.
const (
	// maxWorkers is the maximum number of workers for any pool.
	maxWorkers = 32

	// minWorkers is the minimum number of fingerprint workers.
	minWorkers = 2

	// bytesPerWorker estimates peak memory per fingerprint worker.
	// Decoding a large image for perceptual hashing can hold the full
	// pixel buffer in memory, so budget 256MB per concurrent decode.
	bytesPerWorker = 256 * 1024 * 1024
)

// OptimalConfig contains tuned worker configuration for the detected
// system resources.
type OptimalConfig struct {
	// FingerprintWorkers is the number of concurrent signal extraction
	// workers. Extraction mixes disk I/O with CPU-heavy image decoding.
	FingerprintWorkers int

	// CompareWorkers is the number of concurrent pairwise comparison
	// workers. Comparison is pure CPU.
	CompareWorkers int
}

// Calculate returns optimal configuration based on system resources.
//
// Fingerprint workers default to one per CPU core but are reduced when
// available RAM cannot hold that many concurrent image decodes.
// Comparison workers match the core count since comparison never blocks
// on I/O.
func Calculate(resources SystemResources) OptimalConfig {
	fingerprint := resources.CPUCores
	if budget := int(resources.AvailableRAM / bytesPerWorker); budget < fingerprint {
		fingerprint = budget
	}
	fingerprint = max(fingerprint, minWorkers)
	fingerprint = min(fingerprint, maxWorkers)

	compare := max(resources.CPUCores, minWorkers)
	compare = min(compare, maxWorkers)

	return OptimalConfig{
		FingerprintWorkers: fingerprint,
		CompareWorkers:     compare,
	}
}

// CalculateWithOverrides applies user overrides to the optimal config.
// If workerOverride is greater than 0, both pools use that value,
// still respecting the maximum cap.
func CalculateWithOverrides(resources SystemResources, workerOverride int) OptimalConfig {
	config := Calculate(resources)

	if workerOverride > 0 {
		workers := min(workerOverride, maxWorkers)
		config.FingerprintWorkers = workers
		config.CompareWorkers = workers
	}

	return config
}

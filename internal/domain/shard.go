package domain

import (
	"fmt"
	"path/filepath"

	m "simstage.dev/pkg/simstage/internal/model"
)

// shardDigits validates that maxPerLevel is a power of ten and returns the
// zero-padding width, i.e. log10(maxPerLevel).
func shardDigits(maxPerLevel int) (int, error) {
	if maxPerLevel < 10 {
		return 0, m.NewConfigurationError("max trial dirs must be a power of ten >= 10, got %d", maxPerLevel)
	}

	digits := 0
	for n := maxPerLevel; n > 1; n /= 10 {
		if n%10 != 0 {
			return 0, m.NewConfigurationError("max trial dirs must be a power of ten, got %d", maxPerLevel)
		}

		digits++
	}

	return digits, nil
}

// ShardPath maps a trial index to its two-level directory shard. Each
// level is a zero-padded fixed-width decimal: level1 = trial/maxPerLevel,
// level2 = trial%maxPerLevel. The fan-out of any single directory is
// bounded by maxPerLevel regardless of total trial count, and the lookup
// is pure arithmetic with no directory scans.
func ShardPath(trial, maxPerLevel int) (string, string, error) {
	digits, err := shardDigits(maxPerLevel)
	if err != nil {
		return "", "", err
	}

	if trial < 0 {
		return "", "", m.NewConfigurationError("trial index must be non-negative, got %d", trial)
	}

	level1 := fmt.Sprintf("%0*d", digits, trial/maxPerLevel)
	level2 := fmt.Sprintf("%0*d", digits, trial%maxPerLevel)

	return level1, level2, nil
}

// TrialDir returns the sharded directory for one trial under root.
func TrialDir(root string, trial, maxPerLevel int) (string, error) {
	level1, level2, err := ShardPath(trial, maxPerLevel)
	if err != nil {
		return "", err
	}

	return filepath.Join(root, level1, level2), nil
}

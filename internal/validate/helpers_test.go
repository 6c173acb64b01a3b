package validate

import "github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/overlap"

func overlapInterval(low, high float64) overlap.Interval {
	return overlap.Interval{Low: low, High: high}
}

package build

import "time"

// StepResult captures the outcome of a single build step.
type StepResult struct {
	Name     string
	Status   string       // "success", "failed"
	Images   []string     // tags loaded into the daemon
	Layers   []LayerEvent // parsed from --progress=plain
	Duration time.Duration
	Error    error
}

// CacheHits returns how many of the step's layers were served from cache.
func (r *StepResult) CacheHits() (hits, total int) {
	for _, l := range r.Layers {
		total++
		if l.Cached {
			hits++
		}
	}
	return hits, total
}

package dag

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// ErrSkipped marks a node that did not run because a dependency failed.
var ErrSkipped = errors.New("skipped")

// State is the terminal state of a node.
type State int

const (
	Done State = iota
	Failed
	Skipped
)

func (s State) String() string {
	switch s {
	case Done:
		return "success"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result records how a node finished.
type Result struct {
	ID       string
	State    State
	Err      error
	Duration time.Duration
}

// RunFunc executes one node.
type RunFunc func(ctx context.Context, id string) error

// Executor walks a Graph, running at most Jobs nodes at once.
// With Jobs == 1 nodes run in TopoOrder.
type Executor struct {
	Graph  *Graph
	Jobs   int
	Run    RunFunc
	Logger logrus.FieldLogger

	// OnResult, if set, is called once per node as it finishes.
	// Calls are serialized.
	OnResult func(Result)
}

type finished struct {
	id  string
	err error
	dur time.Duration
}

// Execute runs the graph to completion. It returns every node's result in
// completion order and a non-nil error if any node failed; the error wraps
// the first root cause.
func (e *Executor) Execute(ctx context.Context) ([]Result, error) {
	order, err := e.Graph.TopoOrder()
	if err != nil {
		return nil, err
	}
	logger := e.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	jobs := e.Jobs
	if jobs < 1 {
		jobs = 1
	}

	position := make(map[string]int, len(order))
	remaining := make(map[string]int, len(order))
	var ready []string
	for i, id := range order {
		position[id] = i
		deps, _ := e.Graph.Dependencies(id)
		remaining[id] = len(deps)
		if len(deps) == 0 {
			ready = append(ready, id)
		}
	}

	sem := semaphore.NewWeighted(int64(jobs))
	done := make(chan finished)
	settled := make(map[string]bool, len(order))
	results := make([]Result, 0, len(order))
	running := 0

	record := func(r Result) {
		settled[r.ID] = true
		results = append(results, r)
		if e.OnResult != nil {
			e.OnResult(r)
		}
	}

	var skip func(id, cause string)
	skip = func(id, cause string) {
		dependents, _ := e.Graph.Dependents(id)
		for _, d := range dependents {
			if settled[d] {
				continue
			}
			logger.WithFields(logrus.Fields{"op": d, "dependency": cause}).Warn("skipping operation after upstream failure")
			record(Result{ID: d, State: Skipped, Err: fmt.Errorf("%w: upstream %s failed", ErrSkipped, cause)})
			skip(d, cause)
		}
	}

	for len(ready) > 0 || running > 0 {
		for len(ready) > 0 && sem.TryAcquire(1) {
			id := ready[0]
			ready = ready[1:]

			if ctx.Err() != nil {
				sem.Release(1)
				record(Result{ID: id, State: Failed, Err: ctx.Err()})
				skip(id, id)
				continue
			}

			running++
			logger.WithField("op", id).Debug("starting operation")
			go func(id string) {
				start := time.Now()
				err := e.Run(ctx, id)
				done <- finished{id: id, err: err, dur: time.Since(start)}
			}(id)
		}

		if running == 0 {
			break
		}

		f := <-done
		running--
		sem.Release(1)

		if f.err != nil {
			logger.WithFields(logrus.Fields{"op": f.id, "error": f.err}).Error("operation failed")
			record(Result{ID: f.id, State: Failed, Err: f.err, Duration: f.dur})
			skip(f.id, f.id)
			continue
		}

		logger.WithFields(logrus.Fields{"op": f.id, "elapsed": f.dur.Round(time.Millisecond)}).Debug("operation succeeded")
		record(Result{ID: f.id, State: Done, Duration: f.dur})

		dependents, _ := e.Graph.Dependents(f.id)
		for _, d := range dependents {
			remaining[d]--
			if remaining[d] == 0 && !settled[d] {
				ready = append(ready, d)
			}
		}
		sort.Slice(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })
	}

	return results, failure(results)
}

// failure summarizes failed nodes, wrapping the first root cause.
// Skipped nodes are symptoms, not causes.
func failure(results []Result) error {
	var failedIDs []string
	var rootCause error
	for _, r := range results {
		if r.State != Failed {
			continue
		}
		failedIDs = append(failedIDs, r.ID)
		if rootCause == nil {
			rootCause = r.Err
		}
	}
	if rootCause == nil {
		return nil
	}
	return fmt.Errorf("execution failed for %s: %w", strings.Join(failedIDs, ", "), rootCause)
}

// Summary counts results by state.
func Summary(results []Result) (done, failed, skipped int) {
	for _, r := range results {
		switch r.State {
		case Done:
			done++
		case Failed:
			failed++
		case Skipped:
			skipped++
		}
	}
	return done, failed, skipped
}

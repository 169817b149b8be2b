package dag

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type recorder struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (r *recorder) run(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, id)
	return r.fail[id]
}

func statesByID(results []Result) map[string]State {
	m := map[string]State{}
	for _, r := range results {
		m[r.ID] = r.State
	}
	return m
}

func TestExecuteSequentialOrder(t *testing.T) {
	g := chain(t,
		[]string{"build-a", "test-a", "push-a", "build-b", "test-b", "push-b"},
		"build-a>test-a", "test-a>push-a", "build-b>test-b", "test-b>push-b",
	)
	rec := &recorder{}
	ex := &Executor{Graph: g, Jobs: 1, Run: rec.run, Logger: quietLogger()}

	results, err := ex.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []string{"build-a", "test-a", "push-a", "build-b", "test-b", "push-b"}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	if d, f, s := Summary(results); d != 6 || f != 0 || s != 0 {
		t.Fatalf("Summary = %d/%d/%d", d, f, s)
	}
}

func TestExecuteFailFastPerChain(t *testing.T) {
	g := chain(t,
		[]string{"build-a", "test-a", "push-a", "build-b", "test-b", "push-b"},
		"build-a>test-a", "test-a>push-a", "build-b>test-b", "test-b>push-b",
	)
	boom := errors.New("exit status 1")
	rec := &recorder{fail: map[string]error{"build-a": boom}}
	ex := &Executor{Graph: g, Jobs: 1, Run: rec.run, Logger: quietLogger()}

	results, err := ex.Execute(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected root cause in error, got %v", err)
	}

	states := statesByID(results)
	if states["build-a"] != Failed || states["test-a"] != Skipped || states["push-a"] != Skipped {
		t.Fatalf("chain a states wrong: %v", states)
	}
	if states["push-b"] != Done {
		t.Fatalf("independent chain b should finish: %v", states)
	}
	for _, c := range rec.calls {
		if c == "test-a" || c == "push-a" {
			t.Fatalf("%s ran after its build failed", c)
		}
	}
	for _, r := range results {
		if r.State == Skipped && !errors.Is(r.Err, ErrSkipped) {
			t.Fatalf("skipped result %s lacks ErrSkipped: %v", r.ID, r.Err)
		}
	}
}

func TestExecuteParallelIndependentChains(t *testing.T) {
	g := chain(t, []string{"a", "b", "c"})
	var mu sync.Mutex
	active, peak := 0, 0
	both := make(chan struct{})
	var once sync.Once
	run := func(_ context.Context, _ string) error {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		if active == 2 {
			once.Do(func() { close(both) })
		}
		mu.Unlock()
		// Hold the slot until a second node runs alongside.
		select {
		case <-both:
		case <-time.After(2 * time.Second):
		}
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}

	ex := &Executor{Graph: g, Jobs: 2, Run: run, Logger: quietLogger()}
	if _, err := ex.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if peak != 2 {
		t.Fatalf("ran %d at once, want exactly 2", peak)
	}
}

func TestExecuteCanceledContext(t *testing.T) {
	g := chain(t, []string{"a", "b"}, "a>b")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	ex := &Executor{Graph: g, Jobs: 1, Run: rec.run, Logger: quietLogger()}
	results, err := ex.Execute(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("nothing should run, got %v", rec.calls)
	}
	if states := statesByID(results); states["b"] != Skipped {
		t.Fatalf("b should be skipped: %v", states)
	}
}

func TestExecuteOnResultSeesEveryNode(t *testing.T) {
	g := chain(t, []string{"a", "b", "c"}, "a>b")
	var seen []string
	ex := &Executor{
		Graph:    g,
		Jobs:     1,
		Run:      (&recorder{fail: map[string]error{"a": errors.New("x")}}).run,
		Logger:   quietLogger(),
		OnResult: func(r Result) { seen = append(seen, r.ID+":"+r.State.String()) },
	}
	_, _ = ex.Execute(context.Background())

	want := []string{"a:failed", "b:skipped", "c:success"}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("OnResult = %v, want %v", seen, want)
	}
}

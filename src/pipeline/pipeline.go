// Package pipeline runs plan goals: it walks the goal's dependency graph
// and performs each operation through a Toolchain.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/postgis/imagectl/src/build"
	"github.com/postgis/imagectl/src/dag"
	"github.com/postgis/imagectl/src/matrix"
	"github.com/postgis/imagectl/src/output"
	"github.com/postgis/imagectl/src/plan"
)

// Toolchain performs the side effects behind each operation kind.
type Toolchain interface {
	Build(ctx context.Context, target matrix.BuildTarget, ref build.ImageRef) error
	PrepareHarness(ctx context.Context) error
	Test(ctx context.Context, ref build.ImageRef) error
	Push(ctx context.Context, ref build.ImageRef) error
	TagLatest(ctx context.Context, ref build.ImageRef) error
	Describe(ctx context.Context) error
}

// Pipeline executes goals of a RuleSet.
type Pipeline struct {
	Rules *plan.RuleSet
	Tools Toolchain
	Repo  string
	Image string
	Jobs  int

	Out    io.Writer
	Color  bool
	Logger logrus.FieldLogger

	// JUnitDir, if set, receives a JUnit report of test operations.
	JUnitDir string
}

// Report is the outcome of one goal.
type Report struct {
	Goal    plan.Goal
	Results []dag.Result
	Elapsed time.Duration
}

// Ref returns the image reference for target.
func (p *Pipeline) Ref(t matrix.BuildTarget) build.ImageRef {
	return build.RefFor(p.Repo, p.Image, t)
}

// Run executes goal and everything it depends on. A goal with no
// operations succeeds without doing anything.
func (p *Pipeline) Run(ctx context.Context, goal plan.Goal) (*Report, error) {
	g, err := p.Rules.GoalGraph(goal)
	if err != nil {
		return nil, err
	}

	report := &Report{Goal: goal}
	if g.Len() == 0 {
		output.Notice(p.Out, "%s: nothing to do", goal)
		return report, nil
	}

	p.logger().WithFields(logrus.Fields{"goal": goal, "operations": g.Len(), "jobs": p.Jobs}).Debug("running goal")

	var mu sync.Mutex
	start := time.Now()
	ex := &dag.Executor{
		Graph:  g,
		Jobs:   p.Jobs,
		Run:    p.runOperation,
		Logger: p.logger(),
		OnResult: func(r dag.Result) {
			mu.Lock()
			defer mu.Unlock()
			report.Results = append(report.Results, r)
		},
	}
	_, runErr := ex.Execute(ctx)
	report.Elapsed = time.Since(start)

	p.summarize(report)

	if p.JUnitDir != "" {
		if err := output.WriteTestJUnit(p.JUnitDir, p.testCases(report), report.Elapsed); err != nil {
			p.logger().WithError(err).Warn("writing junit report")
		}
	}
	return report, runErr
}

func (p *Pipeline) logger() logrus.FieldLogger {
	if p.Logger == nil {
		return logrus.StandardLogger()
	}
	return p.Logger
}

func (p *Pipeline) runOperation(ctx context.Context, id string) error {
	op, ok := p.Rules.Op(id)
	if !ok {
		return fmt.Errorf("unknown operation %s", id)
	}
	log := p.logger().WithFields(logrus.Fields{"op": op.ID, "target": op.Target.Tag()})

	sectionID := output.SectionID(op.ID)
	output.SectionStartCollapsed(p.Out, sectionID, op.ID)
	defer output.SectionEnd(p.Out, sectionID)

	log.Info("running")
	ref := p.Ref(op.Target)

	switch op.Kind {
	case plan.KindBuild:
		return p.Tools.Build(ctx, op.Target, ref)
	case plan.KindTestPrepare:
		return p.Tools.PrepareHarness(ctx)
	case plan.KindTest:
		return p.Tools.Test(ctx, ref)
	case plan.KindPush:
		return p.Tools.Push(ctx, ref)
	case plan.KindTagLatest:
		return p.Tools.TagLatest(ctx, ref)
	case plan.KindPushLatest:
		if err := p.Tools.Push(ctx, ref.Latest()); err != nil {
			return err
		}
		return p.Tools.Describe(ctx)
	default:
		return fmt.Errorf("operation %s: unsupported kind %q", op.ID, op.Kind)
	}
}

// summarize prints one row per operation and a total.
func (p *Pipeline) summarize(r *Report) {
	sec := output.NewSection(p.Out, "Summary: "+string(r.Goal), r.Elapsed, p.Color)
	for _, res := range r.Results {
		detail := output.FormatElapsed(res.Duration)
		if res.Err != nil {
			detail = res.Err.Error()
		}
		sec.Result(res.ID, res.State.String(), detail)
	}
	sec.Separator()

	done, failed, skipped := dag.Summary(r.Results)
	status := "success"
	if failed > 0 {
		status = "failed"
	}
	sec.Total(r.Elapsed, status)
	sec.Row("%d succeeded, %d failed, %d skipped", done, failed, skipped)
	sec.Close()
}

// testCases extracts test operation outcomes for the JUnit report.
func (p *Pipeline) testCases(r *Report) []output.TestCase {
	var cases []output.TestCase
	for _, res := range r.Results {
		op, ok := p.Rules.Op(res.ID)
		if !ok || op.Kind != plan.KindTest {
			continue
		}
		tc := output.TestCase{
			Image:    p.Ref(op.Target).String(),
			Status:   res.State.String(),
			Duration: res.Duration,
		}
		if res.Err != nil {
			tc.Message = res.Err.Error()
		}
		cases = append(cases, tc)
	}
	return cases
}

// Failed lists IDs of operations that failed, skipping their dependents.
func (r *Report) Failed() []string {
	var ids []string
	for _, res := range r.Results {
		if res.State == dag.Failed {
			ids = append(ids, res.ID)
		}
	}
	return ids
}

// Skipped reports whether the operation was skipped due to a failure.
func (r *Report) Skipped(id string) bool {
	for _, res := range r.Results {
		if res.ID == id {
			return errors.Is(res.Err, dag.ErrSkipped)
		}
	}
	return false
}

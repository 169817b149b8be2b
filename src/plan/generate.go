package plan

import (
	"fmt"

	"github.com/postgis/imagectl/src/dag"
	"github.com/postgis/imagectl/src/matrix"
)

// Goal names a composite entry point.
type Goal string

const (
	GoalBuild      Goal = "build"
	GoalTest       Goal = "test"
	GoalPush       Goal = "push"
	GoalTagLatest  Goal = "tag-latest"
	GoalPushLatest Goal = "push-latest"
)

// Goals lists every goal in display order.
var Goals = []Goal{GoalBuild, GoalTest, GoalPush, GoalTagLatest, GoalPushLatest}

// Options controls generation.
type Options struct {
	// LatestVersion is the version tag aliased as "latest".
	LatestVersion string
	// RequestedVersion is the explicitly requested version, if any.
	RequestedVersion string
}

// RuleSet is the generated plan for one invocation.
type RuleSet struct {
	ops   []Operation
	index map[string]int
	goals map[Goal][]string
	// latest is set when the latest operations are present.
	latest *matrix.BuildTarget
}

// Generate builds the operations for targets.
func Generate(targets []matrix.BuildTarget, opts Options) *RuleSet {
	rs := &RuleSet{
		index: map[string]int{},
		goals: map[Goal][]string{},
	}

	if len(targets) > 0 {
		rs.add(Operation{ID: string(KindTestPrepare), Kind: KindTestPrepare})
	}

	for _, t := range targets {
		build := OpID(KindBuild, t)
		test := OpID(KindTest, t)
		push := OpID(KindPush, t)

		rs.add(Operation{ID: build, Kind: KindBuild, Target: t})
		rs.add(Operation{ID: test, Kind: KindTest, Target: t, Deps: []string{build, string(KindTestPrepare)}})
		rs.add(Operation{ID: push, Kind: KindPush, Target: t, Deps: []string{test}})

		rs.goals[GoalBuild] = append(rs.goals[GoalBuild], build)
		rs.goals[GoalTest] = append(rs.goals[GoalTest], test)
		rs.goals[GoalPush] = append(rs.goals[GoalPush], push)
	}

	if lt, ok := latestTarget(targets, opts); ok {
		rs.latest = &lt
		tag := string(KindTagLatest)
		push := string(KindPushLatest)
		rs.add(Operation{ID: tag, Kind: KindTagLatest, Target: lt, Deps: []string{OpID(KindBuild, lt)}})
		rs.add(Operation{ID: push, Kind: KindPushLatest, Target: lt, Deps: []string{tag, OpID(KindTest, lt)}})

		rs.goals[GoalTagLatest] = []string{tag}
		rs.goals[GoalPushLatest] = []string{push}
		rs.goals[GoalPush] = append(rs.goals[GoalPush], push)
	}

	return rs
}

// latestTarget returns the default-variant target of the latest version
// when the latest operations belong in this run.
func latestTarget(targets []matrix.BuildTarget, opts Options) (matrix.BuildTarget, bool) {
	if opts.LatestVersion == "" {
		return matrix.BuildTarget{}, false
	}
	if opts.RequestedVersion != "" && opts.RequestedVersion != opts.LatestVersion {
		return matrix.BuildTarget{}, false
	}
	for _, t := range targets {
		if t.VersionTag == opts.LatestVersion && t.Variant == matrix.VariantDefault {
			return t, true
		}
	}
	return matrix.BuildTarget{}, false
}

func (rs *RuleSet) add(op Operation) {
	if _, dup := rs.index[op.ID]; dup {
		panic(fmt.Sprintf("plan: duplicate operation %s", op.ID))
	}
	rs.index[op.ID] = len(rs.ops)
	rs.ops = append(rs.ops, op)
}

// Operations returns every operation in generation order.
func (rs *RuleSet) Operations() []Operation {
	return append([]Operation(nil), rs.ops...)
}

// Op looks up an operation by ID.
func (rs *RuleSet) Op(id string) (Operation, bool) {
	i, ok := rs.index[id]
	if !ok {
		return Operation{}, false
	}
	return rs.ops[i], true
}

// Latest returns the latest target when tag-latest/push-latest are present.
func (rs *RuleSet) Latest() (matrix.BuildTarget, bool) {
	if rs.latest == nil {
		return matrix.BuildTarget{}, false
	}
	return *rs.latest, true
}

// Roots returns the operation IDs a goal names directly. An empty result
// means the goal has nothing to do in this run.
func (rs *RuleSet) Roots(g Goal) []string {
	return append([]string(nil), rs.goals[g]...)
}

// Graph assembles every operation into a DAG.
func (rs *RuleSet) Graph() (*dag.Graph, error) {
	g := dag.New()
	for _, op := range rs.ops {
		g.AddNode(op.ID)
	}
	for _, op := range rs.ops {
		for _, dep := range op.Deps {
			if err := g.AddEdge(dep, op.ID); err != nil {
				return nil, fmt.Errorf("operation %s: %w", op.ID, err)
			}
		}
	}
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}
	return g, nil
}

// GoalGraph returns the closure of a goal: its roots and everything they
// depend on.
func (rs *RuleSet) GoalGraph(goal Goal) (*dag.Graph, error) {
	if !validGoal(goal) {
		return nil, fmt.Errorf("unknown goal %q", goal)
	}
	g, err := rs.Graph()
	if err != nil {
		return nil, err
	}
	return g.Subgraph(rs.Roots(goal)...)
}

func validGoal(goal Goal) bool {
	for _, g := range Goals {
		if g == goal {
			return true
		}
	}
	return false
}

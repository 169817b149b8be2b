package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/postgis/imagectl/src/build"
	"github.com/postgis/imagectl/src/output"
	"github.com/postgis/imagectl/src/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan [goal] [KEY=VALUE...]",
	Short: "Print the operations a goal would run, in execution order",
	Long: `Prints the dependency closure of a goal (default: push) without running
anything. With --jobs 1 the listed order is the execution order.`,
	Args: paramArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	goal := plan.GoalPush
	if rest := positional(args); len(rest) == 1 {
		goal = plan.Goal(rest[0])
	}

	sel, err := selectTargets()
	if err != nil {
		return err
	}
	g, err := sel.rules.GoalGraph(goal)
	if err != nil {
		return err
	}
	order, err := g.TopoOrder()
	if err != nil {
		return err
	}

	color := output.UseColor()
	w := cmd.OutOrStdout()
	sec := output.NewSection(w, fmt.Sprintf("Plan: %s (%d operations)", goal, len(order)), 0, color)
	if len(order) == 0 {
		sec.Row("nothing to do")
	}
	for _, id := range order {
		op, _ := sel.rules.Op(id)
		line := fmt.Sprintf("%-28s %s", op.ID, describeOp(op))
		if len(op.Deps) > 0 {
			line += output.Dimmed("  after "+strings.Join(op.Deps, ", "), color)
		}
		sec.Row("%s", line)
	}
	if _, ok := sel.rules.Latest(); !ok && (goal == plan.GoalPush || goal == plan.GoalPushLatest) {
		sec.Separator()
		sec.Row("latest %q is not part of this run", sel.latest)
	}
	sec.Close()
	return nil
}

func describeOp(op plan.Operation) string {
	ref := build.RefFor(cfg.Repo.Name, cfg.Repo.ImageName(), op.Target)
	switch op.Kind {
	case plan.KindBuild:
		return fmt.Sprintf("buildx %s -> %s (cache %s)", op.Target.ContextDir(), ref, namespace().Key(op.Target))
	case plan.KindTestPrepare:
		return "clone " + cfg.Harness.RepoURL + " if missing"
	case plan.KindTest:
		return "run.sh " + ref.String()
	case plan.KindPush:
		return "push " + ref.String()
	case plan.KindTagLatest:
		return fmt.Sprintf("tag %s as %s", ref, ref.Latest())
	case plan.KindPushLatest:
		return fmt.Sprintf("push %s, update description", ref.Latest())
	}
	return string(op.Kind)
}

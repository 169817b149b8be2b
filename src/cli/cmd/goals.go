package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/postgis/imagectl/src/gate"
	"github.com/postgis/imagectl/src/gitver"
	"github.com/postgis/imagectl/src/output"
	"github.com/postgis/imagectl/src/plan"
)

var (
	goalJUnitDir string
	goalGated    bool
)

var goalDescriptions = map[plan.Goal]string{
	plan.GoalBuild:      "Build every selected target with its external cache",
	plan.GoalTest:       "Build and test every selected target",
	plan.GoalPush:       "Build, test and push every selected target (and latest)",
	plan.GoalTagLatest:  "Tag the designated latest version as latest",
	plan.GoalPushLatest: "Push the latest tag and update the registry description",
}

func init() {
	for _, g := range plan.Goals {
		goal := g
		c := &cobra.Command{
			Use:   string(goal) + " [KEY=VALUE...]",
			Short: goalDescriptions[goal],
			Args:  paramArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runGoal(goal)
			},
		}
		switch goal {
		case plan.GoalTest, plan.GoalPush:
			c.Flags().StringVar(&goalJUnitDir, "junit", "", "write a JUnit report of image tests to this directory")
		}
		switch goal {
		case plan.GoalPush, plan.GoalPushLatest:
			c.Flags().BoolVar(&goalGated, "gated", false, "apply the CI publish gate; when blocked, push only tests")
		}
		rootCmd.AddCommand(c)
	}
}

func runGoal(goal plan.Goal) error {
	ctx, stop := signalContext()
	defer stop()

	sel, err := selectTargets()
	if err != nil {
		return err
	}

	color := output.UseColor()
	w := os.Stdout
	output.CIHeader(w)
	output.ContextBlock(w, []output.KV{
		{Key: "goal", Value: string(goal)},
		{Key: "image", Value: cfg.Repo.Name + "/" + cfg.Repo.ImageName()},
		{Key: "targets", Value: fmt.Sprintf("%d", len(sel.targets))},
		{Key: "latest", Value: sel.latest},
		{Key: "jobs", Value: fmt.Sprintf("%d", cfg.Build.Jobs)},
		{Key: "cache", Value: namespace().Dir()},
	})

	if goalGated {
		goal, err = applyGate(goal)
		if err != nil || goal == "" {
			return err
		}
	}

	p, err := newPipeline(sel)
	if err != nil {
		return err
	}
	p.Color = color
	p.JUnitDir = goalJUnitDir

	_, err = p.Run(ctx, goal)
	return err
}

// applyGate downgrades a blocked push to test and drops a blocked
// push-latest. An empty goal means nothing should run.
func applyGate(goal plan.Goal) (plan.Goal, error) {
	repo, err := gitver.Detect(".")
	if err != nil {
		logger.WithError(err).Debug("no git metadata for the publish gate")
	}
	ctx := gate.FromEnv(os.Getenv, repo)
	d := gate.Evaluate(cfg.Publish, ctx, goal == plan.GoalPush)
	if d.Allowed {
		return goal, nil
	}

	output.Notice(os.Stdout, "%s", d)
	if goal == plan.GoalPush {
		return plan.GoalTest, nil
	}
	return "", nil
}

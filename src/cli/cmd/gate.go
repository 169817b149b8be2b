package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/postgis/imagectl/src/gate"
	"github.com/postgis/imagectl/src/gitver"
)

var (
	gatePush  bool
	gateCheck bool
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Evaluate whether this CI run may publish images",
	Long: `Reads GitHub Actions or GitLab CI variables (or the local git checkout)
and applies the publish policy: not a pull request, a publishing branch,
the canonical owner and, with --push, the primary platform.

Prints publish=true|false. Under GitHub Actions the same line is appended to
$GITHUB_OUTPUT.`,
	Args: paramArgs(0),
	RunE: runGate,
}

func init() {
	gateCmd.Flags().BoolVar(&gatePush, "push", false, "also require the primary publishing platform")
	gateCmd.Flags().BoolVar(&gateCheck, "check", false, "exit non-zero when publishing is blocked")
	rootCmd.AddCommand(gateCmd)
}

func runGate(cmd *cobra.Command, args []string) error {
	repo, err := gitver.Detect(".")
	if err != nil {
		logger.WithError(err).Debug("no git metadata for the publish gate")
	}
	ctx := gate.FromEnv(os.Getenv, repo)
	d := gate.Evaluate(cfg.Publish, ctx, gatePush)

	logger.WithFields(logrus.Fields{
		"provider": ctx.Provider,
		"event":    ctx.Event,
		"branch":   ctx.Branch,
		"owner":    ctx.Owner,
		"platform": ctx.Platform,
	}).Debug("gate context")

	line := fmt.Sprintf("publish=%t", d.Allowed)
	fmt.Fprintln(cmd.OutOrStdout(), line)
	if !d.Allowed {
		fmt.Fprintln(cmd.ErrOrStderr(), d)
	}

	if path := os.Getenv("GITHUB_OUTPUT"); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("writing GITHUB_OUTPUT: %w", err)
		}
		defer f.Close()
		if _, err := fmt.Fprintln(f, line); err != nil {
			return fmt.Errorf("writing GITHUB_OUTPUT: %w", err)
		}
	}

	if gateCheck && !d.Allowed {
		return fmt.Errorf("%s", d)
	}
	return nil
}

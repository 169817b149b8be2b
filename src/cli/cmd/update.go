package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/postgis/imagectl/src/build"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Regenerate version directories with the update script in a container",
	Long: `Runs the source-update script inside a throwaway container with the
working tree mounted at the same path, so generated files keep host paths.`,
	Args: paramArgs(0),
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	workdir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	spec := build.UpdateSpec(cfg.Update.Image, workdir, cfg.Update.Script)
	logger.WithField("image", cfg.Update.Image).Info("running update script")
	return newBuildx().Run(ctx, spec)
}

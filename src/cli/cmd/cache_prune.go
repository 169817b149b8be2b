package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/postgis/imagectl/src/cache"
	"github.com/postgis/imagectl/src/matrix"
	"github.com/postgis/imagectl/src/output"
)

var cachePruneDryRun bool

var cachePruneCmd = &cobra.Command{
	Use:   "cache-prune",
	Short: "Remove external cache keys of versions no longer in the tree",
	Long: `Deletes cache keys under the external cache namespace that belong to no
discovered target. Keys of every platform suffix are kept for live targets.`,
	Args: paramArgs(0),
	RunE: runCachePrune,
}

func init() {
	cachePruneCmd.Flags().BoolVar(&cachePruneDryRun, "dry-run", false, "list keys that would be removed")
	rootCmd.AddCommand(cachePruneCmd)
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	// Prune against the whole tree, never a VERSION subset.
	targets, err := matrix.Select(os.DirFS(cfg.Build.Root), matrix.Request{PlatformSuffix: cfg.Build.TagSuffix})
	if err != nil {
		return err
	}

	ns := namespace()
	entries, err := cache.Usage(ctx, ns)
	if err != nil {
		return err
	}

	keep := map[string]bool{}
	var stale []cache.Entry
	for _, e := range entries {
		for _, t := range targets {
			if cache.Owns(t, e.Name) {
				keep[e.Name] = true
				break
			}
		}
		if !keep[e.Name] {
			stale = append(stale, e)
		}
	}

	color := output.UseColor()
	sec := output.NewSection(cmd.OutOrStdout(), "Cache prune: "+ns.Dir(), 0, color)
	defer sec.Close()

	if len(stale) == 0 {
		sec.Row("nothing to remove")
		return nil
	}
	if cachePruneDryRun {
		for _, e := range stale {
			sec.Row("would remove %-28s %s", e.Name, cache.HumanBytes(e.Bytes))
		}
		return nil
	}

	removed, err := cache.Prune(ns, keep)
	for _, name := range removed {
		output.RowStatus(sec, name, "removed", "success", color)
	}
	sec.Row("reclaimed %s", cache.HumanBytes(cache.Total(stale)))
	return err
}

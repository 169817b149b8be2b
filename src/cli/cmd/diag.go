package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/postgis/imagectl/src/cache"
	"github.com/postgis/imagectl/src/output"
	"github.com/postgis/imagectl/src/registry"
)

// Diagnostics report on the local environment; none of them touch the
// operation graph.

var pruneAll bool

var diagCmds = []*cobra.Command{
	{
		Use:   "image-list-all",
		Short: "List every tagged image in the local daemon",
		Args:  paramArgs(0),
		RunE:  func(cmd *cobra.Command, args []string) error { return listImages("") },
	},
	{
		Use:   "image-list-postgis",
		Short: "List local images of the configured repository",
		Args:  paramArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listImages(cfg.Repo.Name + "/" + cfg.Repo.ImageName())
		},
	},
	{
		Use:   "image-prune",
		Short: "Remove dangling images (all unused images with --all)",
		Args:  paramArgs(0),
		RunE:  runImagePrune,
	},
	{
		Use:   "buildx-du",
		Short: "Show buildx cache disk usage",
		Args:  paramArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			return newBuildx().DiskUsage(ctx)
		},
	},
	{
		Use:   "buildx-inspect",
		Short: "Show the active buildx builder",
		Args:  paramArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			return newBuildx().Inspect(ctx)
		},
	},
	{
		Use:   "external-cache-du",
		Short: "Show per-target size of the external build cache",
		Args:  paramArgs(0),
		RunE:  runExternalCacheDU,
	},
	{
		Use:   "diskfree",
		Short: "Show free space for the working tree and the external cache",
		Args:  paramArgs(0),
		RunE:  runDiskFree,
	},
}

func init() {
	for _, c := range diagCmds {
		if c.Use == "image-prune" {
			c.Flags().BoolVar(&pruneAll, "all", false, "remove all unused images, not just dangling ones")
		}
		rootCmd.AddCommand(c)
	}
}

func withLocal(fn func(ctx context.Context, l *registry.Local) error) error {
	ctx, stop := signalContext()
	defer stop()

	l, err := registry.NewLocal()
	if err != nil {
		return err
	}
	defer l.Close()
	return fn(ctx, l)
}

func listImages(reference string) error {
	return withLocal(func(ctx context.Context, l *registry.Local) error {
		images, err := l.List(ctx, reference)
		if err != nil {
			return err
		}

		color := output.UseColor()
		name := "Images"
		if reference != "" {
			name = "Images: " + reference
		}
		sec := output.NewSection(os.Stdout, name, 0, color)
		rows := [][]string{{"REPOSITORY", "TAG", "ID", "SIZE", "CREATED"}}
		for _, img := range images {
			rows = append(rows, []string{
				img.Repository,
				img.Tag,
				shortID(img.ID),
				cache.HumanBytes(img.Size),
				img.CreatedAt.Format(time.DateTime),
			})
		}
		output.Table(sec, rows, color)
		sec.Close()
		return nil
	})
}

func shortID(id string) string {
	if len(id) > 7 && id[:7] == "sha256:" {
		id = id[7:]
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

func runImagePrune(cmd *cobra.Command, args []string) error {
	return withLocal(func(ctx context.Context, l *registry.Local) error {
		res, err := l.Prune(ctx, pruneAll)
		if err != nil {
			return err
		}
		output.Notice(os.Stdout, "removed %d images, reclaimed %s", res.Deleted, cache.HumanBytes(int64(res.Reclaimed)))
		return nil
	})
}

func runExternalCacheDU(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	ns := namespace()
	entries, err := cache.Usage(ctx, ns)
	if err != nil {
		return err
	}

	color := output.UseColor()
	sec := output.NewSection(os.Stdout, "External cache: "+ns.Dir(), 0, color)
	rows := [][]string{{"KEY", "FILES", "SIZE"}}
	for _, e := range entries {
		rows = append(rows, []string{e.Name, fmt.Sprintf("%d", e.Files), cache.HumanBytes(e.Bytes)})
	}
	output.Table(sec, rows, color)
	sec.Separator()
	sec.Row("total %s in %d keys", cache.HumanBytes(cache.Total(entries)), len(entries))
	sec.Close()
	return nil
}

func runDiskFree(cmd *cobra.Command, args []string) error {
	color := output.UseColor()
	sec := output.NewSection(os.Stdout, "Disk free", 0, color)
	rows := [][]string{{"PATH", "SIZE", "USED", "AVAIL", "USE%"}}
	for _, path := range []string{cfg.Build.Root, cfg.Cache.Root()} {
		row, err := diskRow(path)
		if err != nil {
			logger.WithError(err).WithField("path", path).Warn("statfs failed")
			continue
		}
		rows = append(rows, row)
	}
	output.Table(sec, rows, color)
	sec.Close()
	return nil
}

func diskRow(path string) ([]string, error) {
	// The cache root may not exist yet; report the filesystem it would live on.
	for {
		if _, err := os.Stat(path); err == nil || path == "/" || path == "." {
			break
		}
		path = filepath.Dir(filepath.Clean(path))
	}

	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return nil, fmt.Errorf("statfs %s: %w", path, err)
	}
	size := int64(st.Blocks) * int64(st.Bsize)
	avail := int64(st.Bavail) * int64(st.Bsize)
	used := size - int64(st.Bfree)*int64(st.Bsize)
	pct := 0.0
	if used+avail > 0 {
		pct = float64(used) / float64(used+avail) * 100
	}
	return []string{
		path,
		cache.HumanBytes(size),
		cache.HumanBytes(used),
		cache.HumanBytes(avail),
		fmt.Sprintf("%.0f%%", pct),
	}, nil
}

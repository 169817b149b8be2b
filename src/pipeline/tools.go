package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/postgis/imagectl/src/build"
	"github.com/postgis/imagectl/src/cache"
	"github.com/postgis/imagectl/src/harness"
	"github.com/postgis/imagectl/src/matrix"
)

// DescribeOptions configures the registry description updater.
type DescribeOptions struct {
	Image      string
	Repository string // repo/image whose description is updated
	Workdir    string
	Readme     string
	Username   string
	Token      string
}

// Docker is the Toolchain backed by the docker CLI and the test harness.
type Docker struct {
	Buildx      *build.Buildx
	Harness     *harness.Harness
	Cache       cache.Namespace
	Root        string
	Description DescribeOptions
	Logger      logrus.FieldLogger

	builderOnce sync.Once
	builderErr  error
}

var _ Toolchain = (*Docker)(nil)

// errMissingCredentials is returned when the description updater has no
// registry credentials.
var errMissingCredentials = errors.New("DOCKERHUB_USERNAME and DOCKERHUB_ACCESS_TOKEN are required to update the description")

// Build runs buildx for one target. Local cache export needs a builder
// that is not on the "docker" driver; the first build selects one.
func (d *Docker) Build(ctx context.Context, target matrix.BuildTarget, ref build.ImageRef) error {
	d.builderOnce.Do(func() { d.builderErr = d.Buildx.EnsureBuilder(ctx) })
	if d.builderErr != nil {
		return d.builderErr
	}

	step := build.StepFor(d.Root, target, ref, d.Cache)
	res, err := d.Buildx.Build(ctx, step)
	if res != nil {
		hits, total := res.CacheHits()
		d.log().WithFields(logrus.Fields{
			"target":     target.Tag(),
			"cache":      d.Cache.Key(target),
			"cached":     hits,
			"layers":     total,
			"build_time": res.Duration.Round(time.Millisecond),
		}).Info("build finished")
	}
	return err
}

func (d *Docker) log() logrus.FieldLogger {
	if d.Logger == nil {
		return logrus.StandardLogger()
	}
	return d.Logger
}

func (d *Docker) PrepareHarness(ctx context.Context) error {
	_, err := d.Harness.Prepare(ctx)
	return err
}

func (d *Docker) Test(ctx context.Context, ref build.ImageRef) error {
	return d.Harness.Run(ctx, ref.String())
}

func (d *Docker) Push(ctx context.Context, ref build.ImageRef) error {
	return d.Buildx.Push(ctx, ref)
}

func (d *Docker) TagLatest(ctx context.Context, ref build.ImageRef) error {
	return d.Buildx.Tag(ctx, ref, ref.Latest())
}

// Describe runs the description updater container for the repository.
func (d *Docker) Describe(ctx context.Context) error {
	o := d.Description
	if o.Username == "" || o.Token == "" {
		return errMissingCredentials
	}
	spec := build.DescribeSpec(o.Image, o.Workdir, o.Repository, o.Readme, o.Username, o.Token)
	if err := d.Buildx.Run(ctx, spec); err != nil {
		return fmt.Errorf("updating description of %s: %w", o.Repository, err)
	}
	return nil
}

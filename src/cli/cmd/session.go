package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/postgis/imagectl/src/build"
	"github.com/postgis/imagectl/src/cache"
	"github.com/postgis/imagectl/src/config"
	"github.com/postgis/imagectl/src/harness"
	"github.com/postgis/imagectl/src/matrix"
	"github.com/postgis/imagectl/src/output"
	"github.com/postgis/imagectl/src/pipeline"
	"github.com/postgis/imagectl/src/plan"
)

// selection is the resolved target set for one invocation.
type selection struct {
	request matrix.Request
	targets []matrix.BuildTarget
	latest  string
	rules   *plan.RuleSet
}

// selectTargets applies VERSION/VARIANT to the build root.
func selectTargets() (*selection, error) {
	variant, err := matrix.ParseVariant(params.Get(config.KeyVariant))
	if err != nil {
		return nil, err
	}
	ver, err := matrix.CleanVersion(params.Get(config.KeyVersion))
	if err != nil {
		return nil, err
	}
	req := matrix.Request{
		Version:        ver,
		Variant:        variant,
		PlatformSuffix: cfg.Build.TagSuffix,
	}
	if req.Version == "" && req.Variant != "" {
		logger.WithField("variant", req.Variant).Warn("VARIANT is ignored without VERSION")
	}

	fsys := os.DirFS(cfg.Build.Root)
	targets, err := matrix.Select(fsys, req)
	if err != nil {
		return nil, err
	}

	latest := cfg.Build.LatestVersion
	if latest == "" {
		versions, err := matrix.Discover(fsys)
		if err != nil {
			return nil, err
		}
		latest = matrix.PickLatest(versions)
	}

	rules := plan.Generate(targets, plan.Options{
		LatestVersion:    latest,
		RequestedVersion: req.Version,
	})
	logger.WithFields(logrus.Fields{
		"targets": len(targets),
		"latest":  latest,
		"root":    cfg.Build.Root,
	}).Debug("selected targets")

	return &selection{request: req, targets: targets, latest: latest, rules: rules}, nil
}

func namespace() cache.Namespace {
	return cache.Namespace{
		Root:  cfg.Cache.Root(),
		Repo:  cfg.Repo.Name,
		Image: cfg.Repo.ImageName(),
	}
}

func newBuildx() *build.Buildx {
	return build.NewBuildx(cfg.Build.Docker, verbose)
}

// newPipeline wires the docker toolchain for a selection.
func newPipeline(sel *selection) (*pipeline.Pipeline, error) {
	workdir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	root, err := filepath.Abs(cfg.Build.Root)
	if err != nil {
		return nil, err
	}

	h := harness.New(cfg.Harness, logger)
	h.Verbose = verbose

	tools := &pipeline.Docker{
		Buildx:  newBuildx(),
		Harness: h,
		Cache:   namespace(),
		Root:    root,
		Description: pipeline.DescribeOptions{
			Image:      cfg.Describe.Image,
			Repository: cfg.Repo.Name + "/" + cfg.Repo.ImageName(),
			Workdir:    workdir,
			Readme:     cfg.Describe.Readme,
			Username:   cfg.Describe.Username,
			Token:      cfg.Describe.Token,
		},
		Logger: logger,
	}

	return &pipeline.Pipeline{
		Rules:  sel.rules,
		Tools:  tools,
		Repo:   cfg.Repo.Name,
		Image:  cfg.Repo.ImageName(),
		Jobs:   cfg.Build.Jobs,
		Out:    os.Stdout,
		Color:  output.UseColor(),
		Logger: logger,
	}, nil
}

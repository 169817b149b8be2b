package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// tagSuffixRe allows only characters valid in a docker tag.
var tagSuffixRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]*$`)

// Validate checks structural invariants of a loaded Config.
// All problems are reported together.
func Validate(cfg *Config) error {
	var errs []error

	// ── Repo ──────────────────────────────────────────────────────────────

	if cfg.Repo.Name == "" {
		errs = append(errs, errors.New("repo.name: required"))
	}
	if cfg.Repo.ImageName() == "" {
		errs = append(errs, errors.New("repo.image_base: image name resolves to empty"))
	}
	if strings.ContainsAny(cfg.Repo.Name+cfg.Repo.ImageName(), ": ") {
		errs = append(errs, fmt.Errorf("repo: %q/%q must not contain ':' or spaces", cfg.Repo.Name, cfg.Repo.ImageName()))
	}

	// ── Build ─────────────────────────────────────────────────────────────

	if cfg.Build.Root == "" {
		errs = append(errs, errors.New("build.root: required"))
	}
	if cfg.Build.Docker == "" {
		errs = append(errs, errors.New("build.docker: required"))
	}
	if cfg.Build.Jobs < 1 {
		errs = append(errs, fmt.Errorf("build.jobs: must be >= 1, got %d", cfg.Build.Jobs))
	}
	if !tagSuffixRe.MatchString(cfg.Build.TagSuffix) {
		errs = append(errs, fmt.Errorf("build.tag_suffix: %q contains characters not allowed in a tag", cfg.Build.TagSuffix))
	}
	// A default target with this suffix would share tag and cache key with
	// the alpine target.
	if strings.HasPrefix(cfg.Build.TagSuffix, "-alpine") {
		errs = append(errs, fmt.Errorf("build.tag_suffix: %q collides with the alpine variant suffix", cfg.Build.TagSuffix))
	}

	// ── Cache ─────────────────────────────────────────────────────────────

	if cfg.Cache.Dir == "" && cfg.Cache.DirName == "" {
		errs = append(errs, errors.New("cache: dir or dir_name required"))
	}

	// ── Harness ───────────────────────────────────────────────────────────

	if cfg.Harness.Clone == "" {
		errs = append(errs, errors.New("harness.clone: required"))
	}
	if cfg.Harness.Runner == "" {
		errs = append(errs, errors.New("harness.runner: required"))
	}

	// ── Publish ───────────────────────────────────────────────────────────

	for _, p := range cfg.Publish.Branches {
		pat := strings.TrimPrefix(p, "!")
		if _, err := regexp.Compile(pat); err != nil {
			errs = append(errs, fmt.Errorf("publish.branches: %q: %w", p, err))
		}
	}

	return errors.Join(errs...)
}

package matrix

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// DefinitionFile is the build-definition filename looked up per directory.
const DefinitionFile = "Dockerfile"

// ErrTargetNotFound is returned when an explicitly requested version has
// no build definition on disk.
var ErrTargetNotFound = errors.New("no build definition for version")

// Request is the caller's selection input.
type Request struct {
	Version        string
	Variant        Variant
	PlatformSuffix string
}

// Discover returns every top-level directory of fsys that contains a
// build definition. fs.ReadDir returns entries sorted by name, so the
// result is deterministic and free of duplicates.
func Discover(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("listing build definitions: %w", err)
	}

	var versions []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if hasDefinition(fsys, e.Name()) {
			versions = append(versions, e.Name())
		}
	}
	return versions, nil
}

// CleanVersion normalizes an explicitly requested version. A trailing
// slash from shell completion is dropped; anything that is not a single
// top-level directory name is ErrTargetNotFound.
func CleanVersion(v string) (string, error) {
	if v == "" {
		return "", nil
	}
	c := path.Clean(v)
	if strings.ContainsRune(c, '/') || strings.HasPrefix(c, ".") {
		return "", fmt.Errorf("%w %q", ErrTargetNotFound, v)
	}
	return c, nil
}

// Select resolves the ordered target set for a request. For each version
// the default target precedes the alpine target.
//
// An empty tree with no explicit version yields an empty set, not an error.
func Select(fsys fs.FS, req Request) ([]BuildTarget, error) {
	var err error
	if req.Version, err = CleanVersion(req.Version); err != nil {
		return nil, err
	}

	var versions []string
	if req.Version != "" {
		if !hasDefinition(fsys, req.Version) && !hasDefinition(fsys, path.Join(req.Version, string(VariantAlpine))) {
			return nil, fmt.Errorf("%w %q", ErrTargetNotFound, req.Version)
		}
		versions = []string{req.Version}
	} else {
		versions, err = Discover(fsys)
		if err != nil {
			return nil, err
		}
	}

	var targets []BuildTarget
	for _, v := range versions {
		hasDefault := hasDefinition(fsys, v)
		hasAlpine := hasDefinition(fsys, path.Join(v, string(VariantAlpine)))
		flags := ResolveVariantFlags(req.Version, req.Variant, hasAlpine)

		if flags.BuildDefault && hasDefault {
			targets = append(targets, BuildTarget{
				VersionTag:     v,
				Variant:        VariantDefault,
				HasVariantDir:  true,
				PlatformSuffix: req.PlatformSuffix,
			})
		}
		if flags.BuildAlpine {
			targets = append(targets, BuildTarget{
				VersionTag:     v,
				Variant:        VariantAlpine,
				HasVariantDir:  hasAlpine,
				PlatformSuffix: req.PlatformSuffix,
			})
		}
	}
	return targets, nil
}

func hasDefinition(fsys fs.FS, dir string) bool {
	info, err := fs.Stat(fsys, path.Join(dir, DefinitionFile))
	return err == nil && !info.IsDir()
}

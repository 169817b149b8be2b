// Package cache derives per-target buildx cache locations and reports on
// the external cache directory.
package cache

import (
	"path/filepath"
	"strings"

	"github.com/postgis/imagectl/src/matrix"
)

// Namespace scopes cache keys to one repository/image pair.
type Namespace struct {
	Root  string // external cache root, e.g. $HOME/.buildx-cache
	Repo  string
	Image string
}

// Dir returns the directory holding every key of the namespace.
func (n Namespace) Dir() string {
	return filepath.Join(n.Root, n.Repo, n.Image)
}

// Key returns the cache path for a target:
//
//	{root}/{repo}/{image}/{versionTag}[-alpine][{platformSuffix}]
//
// The same path is the cache import source and export destination.
func (n Namespace) Key(t matrix.BuildTarget) string {
	return filepath.Join(n.Dir(), t.Tag())
}

// From returns the buildx --cache-from directive for a target.
func (n Namespace) From(t matrix.BuildTarget) string {
	return "type=local,src=" + n.Key(t)
}

// To returns the buildx --cache-to directive for a target. mode=max exports
// every intermediate layer, not just the final stage.
func (n Namespace) To(t matrix.BuildTarget) string {
	return "type=local,dest=" + n.Key(t) + ",mode=max"
}

// Owns reports whether the key name belongs to target on any platform:
// the target's name alone or followed by a platform suffix.
func Owns(t matrix.BuildTarget, name string) bool {
	base := t.Name()
	if name == base {
		return true
	}
	rest, ok := strings.CutPrefix(name, base)
	if !ok || !strings.HasPrefix(rest, "-") {
		return false
	}
	return t.Variant == matrix.VariantAlpine || !strings.HasPrefix(rest, "-alpine")
}

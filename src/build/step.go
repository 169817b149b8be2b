package build

import (
	"path/filepath"

	"github.com/postgis/imagectl/src/cache"
	"github.com/postgis/imagectl/src/matrix"
)

// BuildStep is a single buildx invocation.
type BuildStep struct {
	Name      string
	Context   string
	Tags      []string
	CacheFrom string // --cache-from value
	CacheTo   string // --cache-to value
	Pull      bool   // always refresh base images
	Load      bool   // --load into the local daemon
}

// StepFor builds the step for one target. The build context is
// <root>/<version>[/alpine]; cache import and export share one key.
func StepFor(root string, t matrix.BuildTarget, ref ImageRef, ns cache.Namespace) BuildStep {
	return BuildStep{
		Name:      t.Name(),
		Context:   filepath.Join(root, t.ContextDir()),
		Tags:      []string{ref.String()},
		CacheFrom: ns.From(t),
		CacheTo:   ns.To(t),
		Pull:      true,
		Load:      true,
	}
}

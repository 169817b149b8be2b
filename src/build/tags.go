package build

import (
	"fmt"
	"strings"

	"github.com/postgis/imagectl/src/matrix"
)

// LatestTag is the alias pointing at the designated latest version.
const LatestTag = "latest"

// ImageRef names a local or registry image: repo/image:tag.
type ImageRef struct {
	Repo  string
	Image string
	Tag   string
}

// RefFor returns the reference a build target is tagged with.
func RefFor(repo, image string, t matrix.BuildTarget) ImageRef {
	return ImageRef{Repo: repo, Image: image, Tag: sanitizeTag(t.Tag())}
}

// Repository returns repo/image without a tag.
func (r ImageRef) Repository() string {
	if r.Repo == "" {
		return r.Image
	}
	return r.Repo + "/" + r.Image
}

// String returns repo/image:tag.
func (r ImageRef) String() string {
	if r.Tag == "" {
		return r.Repository()
	}
	return fmt.Sprintf("%s:%s", r.Repository(), r.Tag)
}

// WithTag returns a copy of r carrying tag.
func (r ImageRef) WithTag(tag string) ImageRef {
	r.Tag = tag
	return r
}

// Latest returns the "latest" alias of r.
func (r ImageRef) Latest() ImageRef {
	return r.WithTag(LatestTag)
}

// sanitizeTag replaces characters not allowed in Docker tags.
func sanitizeTag(s string) string {
	r := strings.NewReplacer(
		"/", "-",
		" ", "-",
	)
	return r.Replace(s)
}

// Package registry talks to the local image store through the Docker
// Engine API: listing the images a build produced and pruning leftovers.
package registry

import (
	"context"
	"time"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
)

// ImageAPI is the subset of the Docker client used here.
type ImageAPI interface {
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImagesPrune(ctx context.Context, pruneFilters filters.Args) (image.PruneReport, error)
	Close() error
}

// ImageInfo describes one repo:tag in the local store.
type ImageInfo struct {
	Repository string
	Tag        string
	ID         string
	Size       int64
	CreatedAt  time.Time
}

// Ref returns repository:tag.
func (i ImageInfo) Ref() string {
	return i.Repository + ":" + i.Tag
}

// PruneResult summarizes an image prune.
type PruneResult struct {
	Deleted   int
	Reclaimed uint64
}

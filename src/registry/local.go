package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// Local queries the local Docker daemon.
type Local struct {
	api ImageAPI
}

// NewLocal connects using DOCKER_HOST and friends from the environment.
func NewLocal() (*Local, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}
	return &Local{api: cli}, nil
}

// NewLocalWithAPI wraps an existing client.
func NewLocalWithAPI(api ImageAPI) *Local {
	return &Local{api: api}
}

// Close releases the client.
func (l *Local) Close() error {
	return l.api.Close()
}

// List returns tagged images, optionally restricted to a reference
// pattern such as "postgis/postgis". Results are sorted by repository
// then tag. Untagged images are omitted.
func (l *Local) List(ctx context.Context, reference string) ([]ImageInfo, error) {
	opts := image.ListOptions{}
	if reference != "" {
		opts.Filters = filters.NewArgs(filters.Arg("reference", reference))
	}

	summaries, err := l.api.ImageList(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	var out []ImageInfo
	for _, s := range summaries {
		for _, rt := range s.RepoTags {
			if rt == "<none>:<none>" {
				continue
			}
			i := strings.LastIndex(rt, ":")
			if i == -1 {
				continue
			}
			out = append(out, ImageInfo{
				Repository: rt[:i],
				Tag:        rt[i+1:],
				ID:         s.ID,
				Size:       s.Size,
				CreatedAt:  time.Unix(s.Created, 0),
			})
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Repository != out[b].Repository {
			return out[a].Repository < out[b].Repository
		}
		return out[a].Tag < out[b].Tag
	})
	return out, nil
}

// Prune removes dangling images, or every unused image when all is set.
func (l *Local) Prune(ctx context.Context, all bool) (PruneResult, error) {
	dangling := "true"
	if all {
		dangling = "false"
	}
	report, err := l.api.ImagesPrune(ctx, filters.NewArgs(filters.Arg("dangling", dangling)))
	if err != nil {
		return PruneResult{}, fmt.Errorf("pruning images: %w", err)
	}
	return PruneResult{Deleted: len(report.ImagesDeleted), Reclaimed: report.SpaceReclaimed}, nil
}

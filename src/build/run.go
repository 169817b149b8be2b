package build

import (
	"fmt"
	"sort"
	"strings"
)

// RunSpec describes a `docker run --rm` invocation.
type RunSpec struct {
	Image   string
	Workdir string
	// Mounts maps host paths to container paths.
	Mounts  map[string]string
	Env     map[string]string
	Command []string
}

// Args returns the docker run argument list.
// Mounts and env are emitted in key order.
func (s RunSpec) Args() []string {
	args := []string{"run", "--rm"}

	hosts := make([]string, 0, len(s.Mounts))
	for h := range s.Mounts {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	for _, h := range hosts {
		args = append(args, "-v", fmt.Sprintf("%s:%s", h, s.Mounts[h]))
	}

	keys := make([]string, 0, len(s.Env))
	for k := range s.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+s.Env[k])
	}

	if s.Workdir != "" {
		args = append(args, "-w", s.Workdir)
	}
	args = append(args, s.Image)
	return append(args, s.Command...)
}

// UpdateSpec runs the source-update script inside a scoped container with
// the working tree mounted at the same path.
func UpdateSpec(image, workdir, script string) RunSpec {
	return RunSpec{
		Image:   image,
		Workdir: workdir,
		Mounts:  map[string]string{workdir: workdir},
		Command: []string{script},
	}
}

// DescribeSpec runs the registry description updater against repository.
func DescribeSpec(image, workdir, repository, readme, username, token string) RunSpec {
	return RunSpec{
		Image:  image,
		Mounts: map[string]string{workdir: "/workspace"},
		Env: map[string]string{
			"DOCKERHUB_USERNAME":   username,
			"DOCKERHUB_PASSWORD":   token,
			"DOCKERHUB_REPOSITORY": repository,
			"README_FILEPATH":      "/workspace/" + strings.TrimPrefix(readme, "./"),
		},
	}
}

// secretEnv lists env names whose values never appear in verbose output.
var secretEnv = []string{"DOCKERHUB_PASSWORD="}

// redact masks secret env values in an argument list.
func redact(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a
		for _, p := range secretEnv {
			if strings.HasPrefix(a, p) {
				out[i] = p + "****"
			}
		}
	}
	return out
}

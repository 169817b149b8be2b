package build

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Buildx wraps the docker CLI: buildx builds plus the image
// tag/push/run commands the pipeline needs.
type Buildx struct {
	// Docker is the CLI binary, "docker" unless overridden.
	Docker  string
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewBuildx creates a Buildx runner with default output writers.
func NewBuildx(docker string, verbose bool) *Buildx {
	if docker == "" {
		docker = "docker"
	}
	return &Buildx{
		Docker:  docker,
		Verbose: verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Build executes a single build step via docker buildx.
func (bx *Buildx) Build(ctx context.Context, step BuildStep) (*StepResult, error) {
	start := time.Now()
	result := &StepResult{
		Name: step.Name,
	}

	// Progress goes to stderr; keep a copy for layer parsing.
	var progress bytes.Buffer
	err := bx.exec(ctx, bx.Stdout, io.MultiWriter(bx.Stderr, &progress), bx.buildArgs(step)...)
	result.Layers = ParseBuildxOutput(progress.String())
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = "failed"
		result.Error = fmt.Errorf("docker buildx build %s failed: %w", step.Name, err)
		return result, result.Error
	}

	result.Status = "success"
	result.Images = step.Tags
	return result, nil
}

// buildArgs constructs the docker buildx build argument list.
func (bx *Buildx) buildArgs(step BuildStep) []string {
	args := []string{"buildx", "build", "--progress=plain"}

	if step.Pull {
		args = append(args, "--pull")
	}
	if step.CacheFrom != "" {
		args = append(args, "--cache-from", step.CacheFrom)
	}
	if step.CacheTo != "" {
		args = append(args, "--cache-to", step.CacheTo)
	}
	if step.Load {
		args = append(args, "--load")
	}
	for _, tag := range step.Tags {
		args = append(args, "-t", tag)
	}

	context := step.Context
	if context == "" {
		context = "."
	}
	args = append(args, context)

	return args
}

// Tag points dst at the image src in the local daemon.
func (bx *Buildx) Tag(ctx context.Context, src, dst ImageRef) error {
	if err := bx.exec(ctx, bx.Stdout, bx.Stderr, "image", "tag", src.String(), dst.String()); err != nil {
		return fmt.Errorf("tagging %s as %s: %w", src, dst, err)
	}
	return nil
}

// Push uploads ref to its registry.
func (bx *Buildx) Push(ctx context.Context, ref ImageRef) error {
	if err := bx.exec(ctx, bx.Stdout, bx.Stderr, "image", "push", ref.String()); err != nil {
		return fmt.Errorf("pushing %s: %w", ref, err)
	}
	return nil
}

// DiskUsage prints buildx cache usage.
func (bx *Buildx) DiskUsage(ctx context.Context) error {
	return bx.exec(ctx, bx.Stdout, bx.Stderr, "buildx", "du")
}

// Inspect prints the active builder.
func (bx *Buildx) Inspect(ctx context.Context) error {
	return bx.exec(ctx, bx.Stdout, bx.Stderr, "buildx", "inspect")
}

// BuilderName is the builder created when the active one cannot export
// a local cache.
const BuilderName = "imagectl"

// EnsureBuilder makes the active builder one that can export a local
// cache. The "docker" driver of a stock engine cannot, so a
// docker-container builder is created and selected in its place.
func (bx *Buildx) EnsureBuilder(ctx context.Context) error {
	var out bytes.Buffer
	err := bx.exec(ctx, &out, io.Discard, "buildx", "inspect")
	driver := builderDriver(out.String())
	if err == nil && driver != "" && driver != "docker" {
		return nil
	}
	createErr := bx.exec(ctx, bx.Stderr, bx.Stderr, "buildx", "create", "--use", "--driver", "docker-container", "--name", BuilderName)
	if createErr == nil {
		return nil
	}
	// Left over from an earlier run but no longer selected.
	if err := bx.exec(ctx, io.Discard, io.Discard, "buildx", "use", BuilderName); err != nil {
		return fmt.Errorf("creating buildx builder %s: %w", BuilderName, createErr)
	}
	return nil
}

// builderDriver returns the first "Driver:" value of buildx inspect output.
func builderDriver(inspect string) string {
	for _, line := range strings.Split(inspect, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "Driver:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Run starts a throwaway container.
func (bx *Buildx) Run(ctx context.Context, spec RunSpec) error {
	if err := bx.exec(ctx, bx.Stdout, bx.Stderr, spec.Args()...); err != nil {
		return fmt.Errorf("running %s: %w", spec.Image, err)
	}
	return nil
}

func (bx *Buildx) exec(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	if bx.Verbose {
		fmt.Fprintf(bx.Stderr, "exec: %s %s\n", bx.Docker, strings.Join(redact(args), " "))
	}
	cmd := exec.CommandContext(ctx, bx.Docker, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

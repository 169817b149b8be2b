// Package harness prepares and runs the external image test harness
// (docker-library/official-images test/run.sh).
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"

	"github.com/postgis/imagectl/src/config"
)

// Harness clones the harness repository on demand and runs its test
// runner against built images.
type Harness struct {
	Clone         string
	RepoURL       string
	RunnerPath    string
	BaseConfig    string
	ProjectConfig string
	// Depth limits clone history; 0 clones everything.
	Depth   int
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  logrus.FieldLogger

	mu sync.Mutex
}

// New creates a Harness from configuration.
func New(cfg config.HarnessConfig, logger logrus.FieldLogger) *Harness {
	return &Harness{
		Clone:         cfg.Clone,
		RepoURL:       cfg.RepoURL,
		RunnerPath:    cfg.RunnerPath(),
		BaseConfig:    cfg.BaseConfigPath(),
		ProjectConfig: cfg.ProjectConfig,
		Depth:         1,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Logger:        logger,
	}
}

// Prepare clones the harness if the local clone is missing. An existing
// clone is left untouched. It reports whether a clone happened.
func (h *Harness) Prepare(ctx context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := os.Stat(h.Clone); err == nil {
		h.Logger.WithField("path", h.Clone).Debug("test harness already present")
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking harness clone %s: %w", h.Clone, err)
	}

	h.Logger.WithFields(logrus.Fields{"url": h.RepoURL, "path": h.Clone}).Info("cloning test harness")
	opts := &git.CloneOptions{
		URL:   h.RepoURL,
		Depth: h.Depth,
	}
	if h.Verbose {
		opts.Progress = h.Stderr
	}
	if _, err := git.PlainCloneContext(ctx, h.Clone, false, opts); err != nil {
		// A partial clone would be mistaken for a good one next time.
		_ = os.RemoveAll(h.Clone)
		return false, fmt.Errorf("cloning %s: %w", h.RepoURL, err)
	}
	return true, nil
}

// Args returns the runner arguments for image: the shared base config,
// then the project config, then the image reference.
func (h *Harness) Args(image string) []string {
	var args []string
	if h.BaseConfig != "" {
		args = append(args, "-c", h.BaseConfig)
	}
	if h.ProjectConfig != "" {
		args = append(args, "-c", h.ProjectConfig)
	}
	return append(args, image)
}

// Run executes the harness runner against image.
func (h *Harness) Run(ctx context.Context, image string) error {
	args := h.Args(image)
	if h.Verbose {
		fmt.Fprintf(h.Stderr, "exec: %s %s\n", h.RunnerPath, strings.Join(args, " "))
	}
	cmd := exec.CommandContext(ctx, h.RunnerPath, args...)
	cmd.Stdout = h.Stdout
	cmd.Stderr = h.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("testing %s: %w", image, err)
	}
	return nil
}

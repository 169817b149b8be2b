package build

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/postgis/imagectl/src/cache"
	"github.com/postgis/imagectl/src/matrix"
)

// fakeBuildx writes a docker stand-in whose active builder uses driver.
// With the "docker" driver, builds fail until a builder has been created.
func fakeBuildx(t *testing.T, driver string) (*Buildx, string) {
	t.Helper()
	dir := t.TempDir()
	log := filepath.Join(dir, "calls.log")
	created := filepath.Join(dir, "created")
	script := `#!/bin/sh
echo "$@" >> ` + log + `
case "$1 $2" in
"buildx inspect")
	if [ -f ` + created + ` ]; then echo "Driver: docker-container"; else echo "Name: default"; echo "Driver: ` + driver + `"; fi ;;
"buildx create")
	touch ` + created + ` ;;
"buildx build")
	[ "` + driver + `" != docker ] || [ -f ` + created + ` ] || exit 1 ;;
esac
exit 0
`
	bin := filepath.Join(dir, "docker")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	bx := NewBuildx(bin, false)
	bx.Stdout, bx.Stderr = io.Discard, io.Discard
	return bx, log
}

func calls(t *testing.T, log string) []string {
	t.Helper()
	data, err := os.ReadFile(log)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func buildOne(ctx context.Context, bx *Buildx) error {
	target := matrix.BuildTarget{VersionTag: "17-3.5", Variant: matrix.VariantDefault}
	ns := cache.Namespace{Root: "/cache", Repo: "postgis", Image: "postgis"}
	_, err := bx.Build(ctx, StepFor("/src", target, RefFor("postgis", "postgis", target), ns))
	return err
}

func TestEnsureBuilderReplacesDockerDriver(t *testing.T) {
	bx, log := fakeBuildx(t, "docker")
	ctx := context.Background()

	if err := bx.EnsureBuilder(ctx); err != nil {
		t.Fatalf("EnsureBuilder: %v", err)
	}
	if err := buildOne(ctx, bx); err != nil {
		t.Fatalf("build after EnsureBuilder: %v", err)
	}

	got := calls(t, log)
	if len(got) != 3 {
		t.Fatalf("calls = %q", got)
	}
	if got[1] != "buildx create --use --driver docker-container --name imagectl" {
		t.Errorf("create call = %q", got[1])
	}
	if !strings.HasPrefix(got[2], "buildx build") {
		t.Errorf("build call = %q", got[2])
	}
}

func TestEnsureBuilderKeepsContainerDriver(t *testing.T) {
	bx, log := fakeBuildx(t, "docker-container")

	if err := bx.EnsureBuilder(context.Background()); err != nil {
		t.Fatalf("EnsureBuilder: %v", err)
	}
	if got := calls(t, log); len(got) != 1 || got[0] != "buildx inspect" {
		t.Fatalf("calls = %q, want only the inspect", got)
	}
}

func TestBuilderDriver(t *testing.T) {
	out := "Name:          default\nDriver:        docker\n\nNodes:\nName:      default\n"
	if got := builderDriver(out); got != "docker" {
		t.Errorf("builderDriver = %q", got)
	}
	if got := builderDriver("Name: x\n"); got != "" {
		t.Errorf("no driver line = %q", got)
	}
}

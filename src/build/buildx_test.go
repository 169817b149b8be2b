package build

import (
	"reflect"
	"strings"
	"testing"

	"github.com/postgis/imagectl/src/cache"
	"github.com/postgis/imagectl/src/matrix"
)

func TestStepForAlpineTarget(t *testing.T) {
	target := matrix.BuildTarget{
		VersionTag:     "17-3.5",
		Variant:        matrix.VariantAlpine,
		HasVariantDir:  true,
		PlatformSuffix: "-linux_amd64",
	}
	ns := cache.Namespace{Root: "/cache", Repo: "postgis", Image: "postgis"}
	ref := RefFor("postgis", "postgis", target)

	step := StepFor("/src", target, ref, ns)
	bx := NewBuildx("docker", false)
	got := bx.buildArgs(step)

	want := []string{
		"buildx", "build", "--progress=plain", "--pull",
		"--cache-from", "type=local,src=/cache/postgis/postgis/17-3.5-alpine-linux_amd64",
		"--cache-to", "type=local,dest=/cache/postgis/postgis/17-3.5-alpine-linux_amd64,mode=max",
		"--load",
		"-t", "postgis/postgis:17-3.5-alpine-linux_amd64",
		"/src/17-3.5/alpine",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildArgs =\n  %v\nwant\n  %v", got, want)
	}
}

func TestImageRef(t *testing.T) {
	target := matrix.BuildTarget{VersionTag: "17-3.5", Variant: matrix.VariantDefault}
	ref := RefFor("postgis", "postgis", target)

	if got := ref.String(); got != "postgis/postgis:17-3.5" {
		t.Errorf("String() = %q", got)
	}
	if got := ref.Latest().String(); got != "postgis/postgis:latest" {
		t.Errorf("Latest() = %q", got)
	}
	if got := (ImageRef{Image: "postgis", Tag: "x"}).String(); got != "postgis:x" {
		t.Errorf("no repo = %q", got)
	}
}

func TestRunSpecArgs(t *testing.T) {
	spec := DescribeSpec("peterevans/dockerhub-description:latest", "/work", "postgis/postgis", "./README.md", "bot", "s3cret")
	got := strings.Join(spec.Args(), " ")
	want := "run --rm -v /work:/workspace" +
		" -e DOCKERHUB_PASSWORD=s3cret -e DOCKERHUB_REPOSITORY=postgis/postgis" +
		" -e DOCKERHUB_USERNAME=bot -e README_FILEPATH=/workspace/README.md" +
		" peterevans/dockerhub-description:latest"
	if got != want {
		t.Fatalf("Args =\n  %s\nwant\n  %s", got, want)
	}

	red := strings.Join(redact(spec.Args()), " ")
	if strings.Contains(red, "s3cret") {
		t.Fatalf("secret leaked: %s", red)
	}
}

func TestUpdateSpec(t *testing.T) {
	got := UpdateSpec("buildpack-deps", "/work", "./update.sh").Args()
	want := []string{"run", "--rm", "-v", "/work:/work", "-w", "/work", "buildpack-deps", "./update.sh"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Args = %v, want %v", got, want)
	}
}

func TestParseBuildxOutput(t *testing.T) {
	out := `#1 [internal] load build definition from Dockerfile
#1 DONE 0.0s
#5 [1/3] FROM docker.io/library/postgres:17-bookworm@sha256:abc
#5 CACHED
#6 [2/3] RUN apt-get update && apt-get install -y postgis
#6 DONE 44.8s
#7 [3/3] COPY ./initdb-postgis.sh /docker-entrypoint-initdb.d/10_postgis.sh
#7 CACHED
#8 exporting to image
#8 DONE 1.2s
`
	events := ParseBuildxOutput(out)
	if len(events) != 3 {
		t.Fatalf("got %d events: %+v", len(events), events)
	}
	if events[0].Instruction != "FROM" || !events[0].Cached {
		t.Errorf("event 0 = %+v", events[0])
	}
	if events[1].Cached || events[1].Duration.Seconds() < 44 {
		t.Errorf("event 1 = %+v", events[1])
	}

	r := &StepResult{Layers: events}
	if hits, total := r.CacheHits(); hits != 2 || total != 3 {
		t.Errorf("CacheHits = %d/%d", hits, total)
	}
}

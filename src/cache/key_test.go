package cache

import (
	"path/filepath"
	"testing"

	"github.com/postgis/imagectl/src/matrix"
)

func TestKeyAlpineWithPlatformSuffix(t *testing.T) {
	ns := Namespace{Root: "/cache", Repo: "postgis", Image: "postgis"}
	target := matrix.BuildTarget{
		VersionTag:     "17-3.5",
		Variant:        matrix.VariantAlpine,
		HasVariantDir:  true,
		PlatformSuffix: "-linux_amd64",
	}

	want := filepath.Join("/cache", "postgis", "postgis", "17-3.5-alpine-linux_amd64")
	if got := ns.Key(target); got != want {
		t.Fatalf("Key = %q, want %q", got, want)
	}
}

func TestKeyDirectivesShareOnePath(t *testing.T) {
	ns := Namespace{Root: "/cache", Repo: "postgis", Image: "postgis"}
	target := matrix.BuildTarget{VersionTag: "16-3.4", Variant: matrix.VariantDefault}

	key := ns.Key(target)
	if got, want := ns.From(target), "type=local,src="+key; got != want {
		t.Fatalf("From = %q, want %q", got, want)
	}
	if got, want := ns.To(target), "type=local,dest="+key+",mode=max"; got != want {
		t.Fatalf("To = %q, want %q", got, want)
	}
}

func TestKeysAreDistinctAcrossTargets(t *testing.T) {
	ns := Namespace{Root: "/cache", Repo: "postgis", Image: "postgis"}
	seen := map[string]matrix.BuildTarget{}

	for _, v := range []string{"16-3.4", "16-3.5", "17-3.5"} {
		for _, variant := range []matrix.Variant{matrix.VariantDefault, matrix.VariantAlpine} {
			for _, suffix := range []string{"", "-linux_amd64", "-linux_arm64"} {
				target := matrix.BuildTarget{VersionTag: v, Variant: variant, PlatformSuffix: suffix}
				key := ns.Key(target)
				if prev, dup := seen[key]; dup {
					t.Fatalf("key %q shared by %v and %v", key, prev, target)
				}
				seen[key] = target
			}
		}
	}
}

func TestOwns(t *testing.T) {
	def := matrix.BuildTarget{VersionTag: "17-3.5", Variant: matrix.VariantDefault}
	alp := matrix.BuildTarget{VersionTag: "17-3.5", Variant: matrix.VariantAlpine}

	tests := []struct {
		target matrix.BuildTarget
		name   string
		want   bool
	}{
		{def, "17-3.5", true},
		{def, "17-3.5-linux_arm64", true},
		{def, "17-3.5-alpine", false},
		{def, "17-3.5-alpine-linux_amd64", false},
		{def, "17-3.5.1", false},
		{alp, "17-3.5-alpine-linux_amd64", true},
		{alp, "17-3.5", false},
	}
	for _, tt := range tests {
		if got := Owns(tt.target, tt.name); got != tt.want {
			t.Errorf("Owns(%s, %q) = %v, want %v", tt.target.Name(), tt.name, got, tt.want)
		}
	}
}

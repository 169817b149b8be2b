package cache

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeBlob(t *testing.T, path string, size int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestUsageSumsEachKey(t *testing.T) {
	ns := Namespace{Root: t.TempDir(), Repo: "postgis", Image: "postgis"}
	writeBlob(t, filepath.Join(ns.Dir(), "17-3.5", "index.json"), 100)
	writeBlob(t, filepath.Join(ns.Dir(), "17-3.5", "blobs", "sha256", "a"), 400)
	writeBlob(t, filepath.Join(ns.Dir(), "17-3.5-alpine", "index.json"), 50)

	entries, err := Usage(context.Background(), ns)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "17-3.5" || entries[0].Bytes != 500 || entries[0].Files != 2 {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	if Total(entries) != 550 {
		t.Fatalf("Total = %d, want 550", Total(entries))
	}
}

func TestUsageMissingDir(t *testing.T) {
	ns := Namespace{Root: filepath.Join(t.TempDir(), "absent"), Repo: "postgis", Image: "postgis"}
	entries, err := Usage(context.Background(), ns)
	if err != nil || entries != nil {
		t.Fatalf("Usage = %v, %v; want nil, nil", entries, err)
	}
}

func TestPruneKeepsSelectedKeys(t *testing.T) {
	ns := Namespace{Root: t.TempDir(), Repo: "postgis", Image: "postgis"}
	for _, k := range []string{"12-3.3", "17-3.5", "17-3.5-alpine"} {
		writeBlob(t, filepath.Join(ns.Dir(), k, "index.json"), 10)
	}

	removed, err := Prune(ns, map[string]bool{"17-3.5": true, "17-3.5-alpine": true})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if !reflect.DeepEqual(removed, []string{"12-3.3"}) {
		t.Fatalf("removed = %v", removed)
	}
	if _, err := os.Stat(filepath.Join(ns.Dir(), "12-3.3")); !os.IsNotExist(err) {
		t.Fatalf("12-3.3 should be gone, stat err = %v", err)
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[int64]string{
		512:             "512B",
		2048:            "2.0K",
		5 * 1024 * 1024: "5.0M",
	}
	for in, want := range cases {
		if got := HumanBytes(in); got != want {
			t.Errorf("HumanBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

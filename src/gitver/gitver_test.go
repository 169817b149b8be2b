package gitver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestOwnerAndName(t *testing.T) {
	tests := []struct {
		remote, owner, name string
	}{
		{"https://github.com/postgis/docker-postgis.git", "postgis", "docker-postgis"},
		{"git@github.com:postgis/docker-postgis.git", "postgis", "docker-postgis"},
		{"ssh://git@gitlab.com/group/sub/repo", "sub", "repo"},
		{"https://github.com/fork-user/docker-postgis/", "fork-user", "docker-postgis"},
		{"repo", "", "repo"},
	}
	for _, tt := range tests {
		owner, name := ownerAndName(tt.remote)
		if owner != tt.owner || name != tt.name {
			t.Errorf("ownerAndName(%q) = %q, %q; want %q, %q", tt.remote, owner, name, tt.owner, tt.name)
		}
	}
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://github.com/postgis/docker-postgis.git"},
	})
	if err != nil {
		t.Fatalf("CreateRemote: %v", err)
	}

	// No commits yet: still detectable.
	info, err := Detect(dir)
	if err != nil {
		t.Fatalf("Detect on empty repo: %v", err)
	}
	if info.Owner != "postgis" || info.SHA != "" {
		t.Fatalf("empty repo info = %+v", info)
	}

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, _ := repo.Worktree()
	if _, err := wt.Add("README.md"); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "Test Author", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	sub := filepath.Join(dir, "17-3.5")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	info, err = Detect(sub)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if info.Branch != "master" {
		t.Errorf("Branch = %q, want master", info.Branch)
	}
	if len(info.SHA) != 7 {
		t.Errorf("SHA = %q", info.SHA)
	}
	if info.Name != "docker-postgis" {
		t.Errorf("Name = %q", info.Name)
	}

	if _, err := Detect(t.TempDir()); err == nil {
		t.Error("expected error outside a repository")
	}
}

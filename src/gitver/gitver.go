// Package gitver reads repository facts (branch, commit, origin owner)
// from the working tree. The publish gate falls back to it outside CI.
package gitver

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// RepoInfo holds what the publish gate needs to know about a checkout.
type RepoInfo struct {
	Branch    string // "" when HEAD is detached
	SHA       string // short commit hash
	RemoteURL string // origin fetch URL
	Owner     string // org/user segment of the origin URL
	Name      string // repository segment of the origin URL
}

// Detect inspects the repository containing rootDir.
func Detect(rootDir string) (*RepoInfo, error) {
	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", rootDir, err)
	}

	info := &RepoInfo{}

	head, err := repo.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// Unborn branch: no commits yet.
	case err != nil:
		return nil, fmt.Errorf("getting HEAD: %w", err)
	default:
		info.SHA = head.Hash().String()[:7]
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		}
	}

	remote, err := repo.Remote(git.DefaultRemoteName)
	if err == nil && len(remote.Config().URLs) > 0 {
		info.RemoteURL = remote.Config().URLs[0]
		info.Owner, info.Name = ownerAndName(info.RemoteURL)
	} else if err != nil && !errors.Is(err, git.ErrRemoteNotFound) {
		return nil, fmt.Errorf("reading origin remote: %w", err)
	}

	return info, nil
}

package gitver

import "strings"

// ownerAndName extracts the owner and repository name from a git remote URL.
// Handles SSH (git@host:org/repo.git) and HTTPS (https://host/org/repo.git).
func ownerAndName(remote string) (owner, name string) {
	path := remotePath(remote)
	idx := strings.LastIndex(path, "/")
	if idx == -1 {
		return "", path
	}
	owner = path[:idx]
	if j := strings.LastIndex(owner, "/"); j != -1 {
		owner = owner[j+1:]
	}
	return owner, path[idx+1:]
}

// remotePath strips scheme, credentials, host and .git suffix.
func remotePath(remote string) string {
	remote = strings.TrimSuffix(strings.TrimSuffix(remote, "/"), ".git")

	if i := strings.Index(remote, "://"); i != -1 {
		rest := remote[i+3:]
		if j := strings.Index(rest, "/"); j != -1 {
			return rest[j+1:]
		}
		return ""
	}

	// SSH: git@host:org/repo
	if idx := strings.Index(remote, ":"); idx != -1 {
		return remote[idx+1:]
	}
	return remote
}

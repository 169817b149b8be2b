// Package gate decides whether the current CI run may publish images.
//
// Publishing is allowed only for non-pull-request events on a primary
// branch of the canonical repository. Pushing per-platform images also
// requires the runner to be the primary publishing platform.
package gate

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/postgis/imagectl/src/config"
	"github.com/postgis/imagectl/src/gitver"
)

// Provider identifies where the run happens.
type Provider string

const (
	ProviderGitHub Provider = "github"
	ProviderGitLab Provider = "gitlab"
	ProviderLocal  Provider = "local"
)

// Context is what the gate knows about the current run.
type Context struct {
	Provider    Provider
	Event       string
	PullRequest bool
	Branch      string
	Owner       string
	Platform    string // "linux/amd64"
}

// Getenv looks up an environment variable.
type Getenv func(string) string

// FromEnv reads the run context from GitHub Actions or GitLab CI variables.
// Outside CI, branch and owner come from repo, which may be nil.
func FromEnv(getenv Getenv, repo *gitver.RepoInfo) Context {
	switch {
	case getenv("GITHUB_ACTIONS") == "true":
		event := getenv("GITHUB_EVENT_NAME")
		ctx := Context{
			Provider:    ProviderGitHub,
			Event:       event,
			PullRequest: strings.HasPrefix(event, "pull_request"),
			Branch:      getenv("GITHUB_REF_NAME"),
			Owner:       getenv("GITHUB_REPOSITORY_OWNER"),
			Platform:    githubPlatform(getenv("RUNNER_OS"), getenv("RUNNER_ARCH")),
		}
		if getenv("GITHUB_REF_TYPE") == "tag" {
			ctx.Branch = ""
		}
		return ctx

	case getenv("GITLAB_CI") == "true":
		source := getenv("CI_PIPELINE_SOURCE")
		return Context{
			Provider:    ProviderGitLab,
			Event:       source,
			PullRequest: source == "merge_request_event" || getenv("CI_MERGE_REQUEST_IID") != "",
			Branch:      getenv("CI_COMMIT_BRANCH"),
			Owner:       getenv("CI_PROJECT_NAMESPACE"),
			Platform:    localPlatform(),
		}
	}

	ctx := Context{Provider: ProviderLocal, Event: "local", Platform: localPlatform()}
	if repo != nil {
		ctx.Branch = repo.Branch
		ctx.Owner = repo.Owner
	}
	return ctx
}

func githubPlatform(osName, arch string) string {
	if osName == "" || arch == "" {
		return localPlatform()
	}
	archs := map[string]string{"X64": "amd64", "ARM64": "arm64", "X86": "386", "ARM": "arm"}
	a, ok := archs[strings.ToUpper(arch)]
	if !ok {
		a = strings.ToLower(arch)
	}
	return strings.ToLower(osName) + "/" + a
}

func localPlatform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// Decision is the gate verdict with the failed checks, if any.
type Decision struct {
	Allowed bool
	Reasons []string
}

func (d Decision) String() string {
	if d.Allowed {
		return "publish allowed"
	}
	return "publish blocked: " + strings.Join(d.Reasons, "; ")
}

// Evaluate applies the publish policy. requirePlatform adds the
// primary-platform check used by per-platform pushes.
func Evaluate(policy config.PublishConfig, ctx Context, requirePlatform bool) Decision {
	var reasons []string

	if ctx.PullRequest {
		reasons = append(reasons, fmt.Sprintf("event %q is a pull request", ctx.Event))
	}
	if ctx.Branch == "" {
		reasons = append(reasons, "not on a branch")
	} else if !config.MatchPatterns(policy.Branches, ctx.Branch) {
		reasons = append(reasons, fmt.Sprintf("branch %q is not a publishing branch", ctx.Branch))
	}
	if policy.Owner != "" && !strings.EqualFold(ctx.Owner, policy.Owner) {
		reasons = append(reasons, fmt.Sprintf("owner %q is not %q", ctx.Owner, policy.Owner))
	}
	if requirePlatform && policy.Platform != "" && ctx.Platform != policy.Platform {
		reasons = append(reasons, fmt.Sprintf("platform %s is not %s", ctx.Platform, policy.Platform))
	}

	return Decision{Allowed: len(reasons) == 0, Reasons: reasons}
}

package gate

import (
	"strings"
	"testing"

	"github.com/postgis/imagectl/src/config"
	"github.com/postgis/imagectl/src/gitver"
)

func envMap(m map[string]string) Getenv {
	return func(k string) string { return m[k] }
}

var policy = config.PublishConfig{
	Branches: []string{"^master$"},
	Owner:    "postgis",
	Platform: "linux/amd64",
}

func TestFromEnvGitHub(t *testing.T) {
	ctx := FromEnv(envMap(map[string]string{
		"GITHUB_ACTIONS":          "true",
		"GITHUB_EVENT_NAME":       "pull_request",
		"GITHUB_REF_NAME":         "42/merge",
		"GITHUB_REPOSITORY_OWNER": "postgis",
		"RUNNER_OS":               "Linux",
		"RUNNER_ARCH":             "ARM64",
	}), nil)

	if ctx.Provider != ProviderGitHub || !ctx.PullRequest {
		t.Fatalf("ctx = %+v", ctx)
	}
	if ctx.Platform != "linux/arm64" {
		t.Fatalf("Platform = %q", ctx.Platform)
	}
}

func TestFromEnvGitLab(t *testing.T) {
	ctx := FromEnv(envMap(map[string]string{
		"GITLAB_CI":            "true",
		"CI_PIPELINE_SOURCE":   "push",
		"CI_COMMIT_BRANCH":     "master",
		"CI_PROJECT_NAMESPACE": "postgis",
	}), nil)

	if ctx.Provider != ProviderGitLab || ctx.PullRequest || ctx.Branch != "master" || ctx.Owner != "postgis" {
		t.Fatalf("ctx = %+v", ctx)
	}
}

func TestFromEnvLocalUsesRepo(t *testing.T) {
	ctx := FromEnv(envMap(nil), &gitver.RepoInfo{Branch: "master", Owner: "postgis"})
	if ctx.Provider != ProviderLocal || ctx.Branch != "master" || ctx.Owner != "postgis" {
		t.Fatalf("ctx = %+v", ctx)
	}
}

func TestEvaluate(t *testing.T) {
	good := Context{Provider: ProviderGitHub, Event: "push", Branch: "master", Owner: "postgis", Platform: "linux/amd64"}

	tests := []struct {
		name            string
		mutate          func(*Context)
		requirePlatform bool
		allowed         bool
		reason          string
	}{
		{"primary branch push", func(*Context) {}, true, true, ""},
		{"pull request", func(c *Context) { c.PullRequest = true; c.Event = "pull_request" }, false, false, "pull request"},
		{"feature branch", func(c *Context) { c.Branch = "feature/x" }, false, false, "publishing branch"},
		{"tag build", func(c *Context) { c.Branch = "" }, false, false, "not on a branch"},
		{"fork", func(c *Context) { c.Owner = "someone" }, false, false, "owner"},
		{"owner case-insensitive", func(c *Context) { c.Owner = "PostGIS" }, false, true, ""},
		{"arm runner push", func(c *Context) { c.Platform = "linux/arm64" }, true, false, "platform"},
		{"arm runner latest", func(c *Context) { c.Platform = "linux/arm64" }, false, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := good
			tt.mutate(&ctx)
			d := Evaluate(policy, ctx, tt.requirePlatform)
			if d.Allowed != tt.allowed {
				t.Fatalf("Allowed = %v (%s)", d.Allowed, d)
			}
			if tt.reason != "" && !strings.Contains(d.String(), tt.reason) {
				t.Fatalf("decision %q lacks %q", d, tt.reason)
			}
		})
	}
}

func TestEvaluateNoOwnerConfigured(t *testing.T) {
	p := policy
	p.Owner = ""
	d := Evaluate(p, Context{Branch: "master", Owner: "anyone"}, false)
	if !d.Allowed {
		t.Fatalf("expected allowed: %s", d)
	}
}

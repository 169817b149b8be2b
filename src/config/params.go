package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Params holds make-style KEY=VALUE parameters.
// Later sources override earlier ones.
type Params map[string]string

// Parameter keys recognized by ApplyParams and the selector.
const (
	KeyVersion              = "VERSION"
	KeyVariant              = "VARIANT"
	KeyRepoName             = "REPO_NAME"
	KeyImageNameBase        = "IMAGE_NAME_BASE"
	KeyImageNamePrefix      = "IMAGE_NAME_PREFIX"
	KeyImageNameSuffix      = "IMAGE_NAME_SUFFIX"
	KeyTagSuffix            = "TAG_SUFFIX"
	KeyExternalCacheDirName = "EXTERNAL_CACHE_DIR_NAME"
	KeyExternalCacheDir     = "EXTERNAL_CACHE_DIR"
	KeyLatestVersion        = "LATEST_VERSION"
	KeyDocker               = "DOCKER"
	KeyJobs                 = "JOBS"
	KeyHarnessClone         = "OFFIMG_LOCAL_CLONE"
	KeyHarnessRepoURL       = "OFFIMG_REPO_URL"
	KeyDockerHubUsername    = "DOCKERHUB_USERNAME"
	KeyDockerHubToken       = "DOCKERHUB_ACCESS_TOKEN"
	KeyDescribeImage        = "DOCKERHUB_DESC_IMG"
)

// knownKeys lists every key read from the process environment.
var knownKeys = []string{
	KeyVersion, KeyVariant, KeyRepoName, KeyImageNameBase, KeyImageNamePrefix,
	KeyImageNameSuffix, KeyTagSuffix, KeyExternalCacheDirName, KeyExternalCacheDir,
	KeyLatestVersion, KeyDocker, KeyJobs, KeyHarnessClone, KeyHarnessRepoURL,
	KeyDockerHubUsername, KeyDockerHubToken, KeyDescribeImage,
}

// ParseArgs splits positional arguments into KEY=VALUE params and the rest.
// "version=17-3.5" and "VERSION=17-3.5" are equivalent.
func ParseArgs(args []string) (Params, []string) {
	p := Params{}
	var rest []string
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			rest = append(rest, a)
			continue
		}
		p[strings.ToUpper(k)] = v
	}
	return p, rest
}

// DotEnv reads KEY=VALUE pairs from a .env file.
// A missing file yields empty params.
func DotEnv(path string) (Params, error) {
	if path == "" {
		path = ".env"
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Params{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Params(values), nil
}

// Environ returns the known keys present in the process environment.
func Environ() Params {
	p := Params{}
	for _, k := range knownKeys {
		if v, ok := os.LookupEnv(k); ok {
			p[k] = v
		}
	}
	return p
}

// Merge returns a new Params with every layer applied in order.
func Merge(layers ...Params) Params {
	out := Params{}
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

// Get returns the value for key, or "".
func (p Params) Get(key string) string {
	return p[key]
}

// ApplyParams overlays params onto the config.
func (c *Config) ApplyParams(p Params) error {
	str := map[string]*string{
		KeyRepoName:             &c.Repo.Name,
		KeyImageNameBase:        &c.Repo.ImageBase,
		KeyImageNamePrefix:      &c.Repo.ImagePrefix,
		KeyImageNameSuffix:      &c.Repo.ImageSuffix,
		KeyTagSuffix:            &c.Build.TagSuffix,
		KeyExternalCacheDirName: &c.Cache.DirName,
		KeyExternalCacheDir:     &c.Cache.Dir,
		KeyLatestVersion:        &c.Build.LatestVersion,
		KeyDocker:               &c.Build.Docker,
		KeyHarnessClone:         &c.Harness.Clone,
		KeyHarnessRepoURL:       &c.Harness.RepoURL,
		KeyDockerHubUsername:    &c.Describe.Username,
		KeyDockerHubToken:       &c.Describe.Token,
		KeyDescribeImage:        &c.Describe.Image,
	}
	for k, dst := range str {
		if v, ok := p[k]; ok {
			*dst = v
		}
	}

	if v, ok := p[KeyJobs]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: expected integer, got %q", KeyJobs, v)
		}
		c.Build.Jobs = n
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// defaultConfigFiles are tried in order when no explicit path is given.
var defaultConfigFiles = []string{".imagectl.yml", ".imagectl.yaml", ".imagectl.toml"}

// Config is the top-level imagectl configuration.
type Config struct {
	Repo     RepoConfig     `yaml:"repo" toml:"repo"`
	Build    BuildConfig    `yaml:"build" toml:"build"`
	Cache    CacheConfig    `yaml:"cache" toml:"cache"`
	Harness  HarnessConfig  `yaml:"harness" toml:"harness"`
	Describe DescribeConfig `yaml:"describe" toml:"describe"`
	Update   UpdateConfig   `yaml:"update" toml:"update"`
	Publish  PublishConfig  `yaml:"publish" toml:"publish"`
}

// RepoConfig names the image repository.
// The image name is prefix + base + suffix.
type RepoConfig struct {
	Name        string `yaml:"name" toml:"name"`
	ImageBase   string `yaml:"image_base" toml:"image_base"`
	ImagePrefix string `yaml:"image_prefix" toml:"image_prefix"`
	ImageSuffix string `yaml:"image_suffix" toml:"image_suffix"`
}

// ImageName returns the composed image name, e.g. "postgis".
func (r RepoConfig) ImageName() string {
	return r.ImagePrefix + r.ImageBase + r.ImageSuffix
}

// BuildConfig holds build-matrix settings.
type BuildConfig struct {
	// Root is the directory holding <version>/Dockerfile build definitions.
	Root string `yaml:"root" toml:"root"`
	// Docker is the docker CLI binary.
	Docker string `yaml:"docker" toml:"docker"`
	// TagSuffix disambiguates architectures in tags and cache keys, e.g. "-linux_amd64".
	TagSuffix string `yaml:"tag_suffix" toml:"tag_suffix"`
	// LatestVersion is the version aliased to the "latest" tag.
	// Empty = highest stable version found on disk.
	LatestVersion string `yaml:"latest_version" toml:"latest_version"`
	// Jobs bounds how many operations run at once.
	Jobs int `yaml:"jobs" toml:"jobs"`
}

// CacheConfig locates the external buildx cache.
type CacheConfig struct {
	Dir     string `yaml:"dir" toml:"dir"`
	DirName string `yaml:"dir_name" toml:"dir_name"`
}

// Root returns the cache root: Dir if set, otherwise $HOME/DirName.
func (c CacheConfig) Root() string {
	if c.Dir != "" {
		return c.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return c.DirName
	}
	return filepath.Join(home, c.DirName)
}

// HarnessConfig describes the external image test harness
// (docker-library/official-images).
type HarnessConfig struct {
	Clone         string `yaml:"clone" toml:"clone"`
	RepoURL       string `yaml:"repo_url" toml:"repo_url"`
	Runner        string `yaml:"runner" toml:"runner"`                 // relative to Clone
	BaseConfig    string `yaml:"base_config" toml:"base_config"`       // relative to Clone
	ProjectConfig string `yaml:"project_config" toml:"project_config"` // relative to the working directory
}

// RunnerPath returns the absolute harness runner path.
func (h HarnessConfig) RunnerPath() string {
	return filepath.Join(h.Clone, h.Runner)
}

// BaseConfigPath returns the absolute shared harness config path.
func (h HarnessConfig) BaseConfigPath() string {
	return filepath.Join(h.Clone, h.BaseConfig)
}

// DescribeConfig configures the registry description updater container.
// Credentials are never read from the config file.
type DescribeConfig struct {
	Image    string `yaml:"image" toml:"image"`
	Readme   string `yaml:"readme" toml:"readme"`
	Username string `yaml:"-" toml:"-"`
	Token    string `yaml:"-" toml:"-"`
}

// UpdateConfig configures the source-update script run in a scoped container.
type UpdateConfig struct {
	Image  string `yaml:"image" toml:"image"`
	Script string `yaml:"script" toml:"script"`
}

// PublishConfig gates publishing in CI.
type PublishConfig struct {
	// Branches uses MatchPatterns syntax: regex or !negated regex.
	Branches []string `yaml:"branches" toml:"branches"`
	// Owner is the canonical repository owner. Empty = no owner check.
	Owner string `yaml:"owner" toml:"owner"`
	// Platform is the primary publishing platform, e.g. "linux/amd64".
	Platform string `yaml:"platform" toml:"platform"`
}

// Load reads configuration from a YAML or TOML file.
// If path is empty, the default files are tried in order.
// Returns defaults if no file exists.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		for _, candidate := range defaultConfigFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// decode picks the decoder by file extension.
func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

func defaults() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Repo: RepoConfig{
			Name:      "postgis",
			ImageBase: "postgis",
		},
		Build: BuildConfig{
			Root:   ".",
			Docker: "docker",
			Jobs:   1,
		},
		Cache: CacheConfig{
			DirName: ".buildx-cache",
		},
		Harness: HarnessConfig{
			Clone:         filepath.Join(home, "official-images"),
			RepoURL:       "https://github.com/docker-library/official-images.git",
			Runner:        "test/run.sh",
			BaseConfig:    "test/config.sh",
			ProjectConfig: "test/postgis-config.sh",
		},
		Describe: DescribeConfig{
			Image:  "peterevans/dockerhub-description:latest",
			Readme: "README.md",
		},
		Update: UpdateConfig{
			Image:  "buildpack-deps",
			Script: "./update.sh",
		},
		Publish: PublishConfig{
			Branches: []string{"^master$"},
			Owner:    "postgis",
			Platform: "linux/amd64",
		},
	}
}

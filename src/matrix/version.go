package matrix

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionInfo is a parsed version tag such as "17-3.5" or "18-master".
type VersionInfo struct {
	Tag          string
	Postgres     int
	PostGIS      *semver.Version // nil for development branches
	PostGISRaw   string
	Experimental bool
}

// glued matches prerelease text glued to the numeric part: "3.6.0alpha1".
var glued = regexp.MustCompile(`^(\d+(?:\.\d+){0,2})([A-Za-z][0-9A-Za-z.]*)$`)

// ParseVersionTag splits "<postgres major>-<postgis version>".
// A PostGIS part that is "master" or carries a prerelease is experimental.
func ParseVersionTag(tag string) (VersionInfo, error) {
	pg, gis, ok := strings.Cut(tag, "-")
	if !ok || pg == "" || gis == "" {
		return VersionInfo{}, fmt.Errorf("version tag %q: expected <postgres>-<postgis>", tag)
	}

	major, err := strconv.Atoi(pg)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("version tag %q: postgres major %q is not a number", tag, pg)
	}

	vi := VersionInfo{Tag: tag, Postgres: major, PostGISRaw: gis}

	if gis == "master" || gis == "develop" {
		vi.Experimental = true
		return vi, nil
	}

	normalized := gis
	if m := glued.FindStringSubmatch(gis); m != nil {
		normalized = m[1] + "-" + m[2]
	}
	v, err := semver.NewVersion(normalized)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("version tag %q: postgis version %q: %w", tag, gis, err)
	}
	vi.PostGIS = v
	vi.Experimental = v.Prerelease() != ""
	return vi, nil
}

// Less orders by postgres major, then postgis version; development
// branches sort after every release of the same postgres major.
func (vi VersionInfo) Less(other VersionInfo) bool {
	if vi.Postgres != other.Postgres {
		return vi.Postgres < other.Postgres
	}
	switch {
	case vi.PostGIS == nil && other.PostGIS == nil:
		return vi.PostGISRaw < other.PostGISRaw
	case vi.PostGIS == nil:
		return false
	case other.PostGIS == nil:
		return true
	}
	return vi.PostGIS.LessThan(other.PostGIS)
}

// SortVersionTags sorts tags by Less. Unparseable tags keep their relative
// order and sort after parseable ones.
func SortVersionTags(tags []string) []string {
	out := append([]string(nil), tags...)
	sort.SliceStable(out, func(i, j int) bool {
		a, errA := ParseVersionTag(out[i])
		b, errB := ParseVersionTag(out[j])
		switch {
		case errA != nil:
			return false
		case errB != nil:
			return true
		}
		return a.Less(b)
	})
	return out
}

// PickLatest returns the highest non-experimental version tag, or "".
func PickLatest(tags []string) string {
	var stable []string
	for _, t := range tags {
		if vi, err := ParseVersionTag(t); err == nil && !vi.Experimental {
			stable = append(stable, t)
		}
	}
	if len(stable) == 0 {
		return ""
	}
	sorted := SortVersionTags(stable)
	return sorted[len(sorted)-1]
}

package config

import (
	"regexp"
	"strings"
)

// MatchPatterns reports whether value passes a branch filter.
//
// Each pattern is a regex; a leading "!" negates it. A value matching any
// negated pattern is rejected. Otherwise it passes if any plain pattern
// matches, or if there are no plain patterns at all. An empty list passes
// everything.
//
//	[]string{"^master$", "^develop$"}   master or develop
//	[]string{"!^dependabot/"}           anything but dependabot branches
func MatchPatterns(patterns []string, value string) bool {
	include, matched := false, false
	for _, p := range patterns {
		if neg, ok := strings.CutPrefix(p, "!"); ok {
			if matchOne(neg, value) {
				return false
			}
			continue
		}
		include = true
		if !matched && matchOne(p, value) {
			matched = true
		}
	}
	return !include || matched
}

// matchOne reports a regex match. Validate rejects invalid patterns up
// front, so one that fails to compile here matches nothing.
func matchOne(pattern, value string) bool {
	re, err := regexp.Compile(pattern)
	return err == nil && re.MatchString(value)
}

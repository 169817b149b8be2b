package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CI environment detection.

func IsCI() bool {
	return os.Getenv("CI") == "true" || IsGitHubActions()
}

func IsGitLabCI() bool {
	return os.Getenv("GITLAB_CI") == "true"
}

func IsGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Collapsible section helpers. GitLab uses section markers, GitHub Actions
// uses log groups; elsewhere they write nothing.

func SectionStart(w io.Writer, id, name string) {
	switch {
	case IsGitLabCI():
		ts := time.Now().Unix()
		fmt.Fprintf(w, "\033[0Ksection_start:%d:%s\r\033[0K%s\n", ts, id, name)
	case IsGitHubActions():
		fmt.Fprintf(w, "::group::%s\n", name)
	}
}

func SectionEnd(w io.Writer, id string) {
	switch {
	case IsGitLabCI():
		ts := time.Now().Unix()
		fmt.Fprintf(w, "\033[0Ksection_end:%d:%s\r\033[0K\n", ts, id)
	case IsGitHubActions():
		fmt.Fprintln(w, "::endgroup::")
	}
}

// SectionStartCollapsed starts a section that is collapsed by default.
// GitHub groups are always collapsed.
func SectionStartCollapsed(w io.Writer, id, name string) {
	if IsGitLabCI() {
		ts := time.Now().Unix()
		fmt.Fprintf(w, "\033[0Ksection_start:%d:%s[collapsed=true]\r\033[0K%s\n", ts, id, name)
		return
	}
	SectionStart(w, id, name)
}

// SectionID turns an operation ID into a marker-safe section ID.
func SectionID(id string) string {
	return strings.NewReplacer(".", "_", "/", "_", ":", "_").Replace(id)
}

// CIHeader prints a compact pipeline context block at the start of a CI run.
func CIHeader(w io.Writer) {
	if !IsCI() {
		return
	}
	var parts []string
	add := func(key string, names ...string) {
		for _, n := range names {
			if v := os.Getenv(n); v != "" {
				if key == "sha" && len(v) > 8 {
					v = v[:8]
				}
				parts = append(parts, fmt.Sprintf("%s=%s", key, v))
				return
			}
		}
	}
	add("ref", "CI_COMMIT_REF_NAME", "GITHUB_REF_NAME")
	add("sha", "CI_COMMIT_SHORT_SHA", "CI_COMMIT_SHA", "GITHUB_SHA")
	add("pipeline", "CI_PIPELINE_ID", "GITHUB_RUN_ID")
	add("runner", "CI_RUNNER_DESCRIPTION", "RUNNER_NAME")
	if len(parts) > 0 {
		fmt.Fprintf(w, "  ci: %s\n", strings.Join(parts, "  "))
	}
}

// JUnit XML types for CI test reporting.

type JUnitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Skipped  int              `xml:"skipped,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

type JUnitSkipped struct {
	Message string `xml:"message,attr"`
}

// TestCase is one image test outcome for the JUnit report.
type TestCase struct {
	Image    string
	Status   string // "success", "failed", "skipped"
	Message  string
	Duration time.Duration
}

// WriteTestJUnit writes image test outcomes to dir/imagectl-test.xml.
func WriteTestJUnit(dir string, cases []TestCase, elapsed time.Duration) error {
	suite := JUnitTestSuite{
		Name: "image-tests",
		Time: fmt.Sprintf("%.3f", elapsed.Seconds()),
	}
	for _, c := range cases {
		tc := JUnitTestCase{
			Name:      c.Image,
			Classname: "imagectl.test",
			Time:      fmt.Sprintf("%.3f", c.Duration.Seconds()),
		}
		switch c.Status {
		case "failed":
			suite.Failures++
			tc.Failure = &JUnitFailure{Message: c.Message, Type: "test", Body: c.Message}
		case "skipped":
			suite.Skipped++
			tc.Skipped = &JUnitSkipped{Message: c.Message}
		}
		suite.Tests++
		suite.Cases = append(suite.Cases, tc)
	}

	suites := JUnitTestSuites{
		Name:     "imagectl",
		Tests:    suite.Tests,
		Failures: suite.Failures,
		Skipped:  suite.Skipped,
		Time:     suite.Time,
		Suites:   []JUnitTestSuite{suite},
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating junit dir: %w", err)
	}
	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding junit: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	return os.WriteFile(filepath.Join(dir, "imagectl-test.xml"), data, 0o644)
}

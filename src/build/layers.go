package build

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LayerEvent is a completed Dockerfile step parsed from buildx output.
type LayerEvent struct {
	Stage       string // "stage-1", "" for single-stage builds
	StageStep   string // "1/7"
	Instruction string // "FROM", "RUN", ...
	Detail      string
	Cached      bool
	Duration    time.Duration // 0 for cached layers
}

type layerState struct {
	event   LayerEvent
	done    bool
	seconds float64
}

var (
	// #N [stage M/N] INSTRUCTION args...
	layerStartRe = regexp.MustCompile(`^#(\d+) \[(?:([^\]]*?) )?(\d+/\d+)\] (\w+)\s*(.*)`)
	internalRe   = regexp.MustCompile(`^#\d+ \[internal\]`)
	cachedRe     = regexp.MustCompile(`^#(\d+) CACHED`)
	doneRe       = regexp.MustCompile(`^#(\d+) DONE (\d+\.?\d*)s`)
)

// ParseBuildxOutput parses buildx --progress=plain output into layer
// events, in step order. Internal steps are dropped.
func ParseBuildxOutput(output string) []LayerEvent {
	layers := make(map[int]*layerState)
	maxStep := 0

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || internalRe.MatchString(line) {
			continue
		}

		if m := layerStartRe.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			detail := m[5]
			if len(detail) > 60 {
				detail = detail[:57] + "..."
			}
			layers[n] = &layerState{event: LayerEvent{
				Stage:       m[2],
				StageStep:   m[3],
				Instruction: m[4],
				Detail:      detail,
			}}
			if n > maxStep {
				maxStep = n
			}
			continue
		}

		if m := cachedRe.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			if ls, ok := layers[n]; ok {
				ls.event.Cached = true
				ls.done = true
			}
			continue
		}

		if m := doneRe.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			if ls, ok := layers[n]; ok {
				ls.seconds, _ = strconv.ParseFloat(m[2], 64)
				ls.done = true
			}
		}
	}

	var events []LayerEvent
	for i := 0; i <= maxStep; i++ {
		ls, ok := layers[i]
		if !ok || !ls.done {
			continue
		}
		ev := ls.event
		if !ev.Cached && ls.seconds > 0 {
			ev.Duration = time.Duration(ls.seconds * float64(time.Second))
		}
		events = append(events, ev)
	}
	return events
}

package output

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

// frameWidth is the rule length under the "    " indent.
const frameWidth = 61

// Section is a framed block of output:
//
//	── Build 17-3.5 ─────────────────────────────── 1.5s ──
//	│ row
//	└──────────────────────────────────────────────────────
type Section struct {
	w     io.Writer
	color bool
}

// NewSection writes the header and returns the section. A zero elapsed
// leaves the timing out of the header.
func NewSection(w io.Writer, title string, elapsed time.Duration, color bool) *Section {
	left := "── " + title + " "
	right := "──"
	if elapsed > 0 {
		right = " " + FormatElapsed(elapsed) + " ──"
	}
	pad := max(frameWidth+4-utf8.RuneCountInString(left)-utf8.RuneCountInString(right), 1)
	fmt.Fprintf(w, "\n    %s\n", paint(styles.header, left+strings.Repeat("─", pad)+right, color))
	return &Section{w: w, color: color}
}

func (s *Section) Row(format string, args ...any) {
	fmt.Fprintf(s.w, "    │ %s\n", fmt.Sprintf(format, args...))
}

func (s *Section) Separator() { s.rule("├") }

func (s *Section) Close() { s.rule("└") }

func (s *Section) rule(corner string) {
	fmt.Fprintf(s.w, "    %s%s\n", corner, strings.Repeat("─", frameWidth))
}

// Result writes one operation outcome: name, icon, detail.
func (s *Section) Result(name, status, detail string) {
	s.Row("%-28s%s  %s", name, StatusIcon(status, s.color), detail)
}

// Total writes the closing line of a run summary.
func (s *Section) Total(elapsed time.Duration, status string) {
	s.Result("total", status, FormatElapsed(elapsed))
}

// StatusIcon maps a dag state name to its icon. Anything other than
// success or failed renders as skipped.
func StatusIcon(status string, color bool) string {
	switch status {
	case "success":
		return paint(styles.success, "✓", color)
	case "failed":
		return paint(styles.failed, "✗", color)
	}
	return paint(styles.skipped, "⊘", color)
}

func Dimmed(text string, color bool) string {
	return paint(styles.dim, text, color)
}

// KV is one entry of a ContextBlock.
type KV struct {
	Key   string
	Value string
}

// ContextBlock prints run parameters two per line, keys aligned to the
// longest key in the block.
func ContextBlock(w io.Writer, kv []KV) {
	if len(kv) == 0 {
		return
	}
	keyW, valW := 0, 0
	for i, e := range kv {
		keyW = max(keyW, len(e.Key))
		if i%2 == 0 {
			valW = max(valW, len(e.Value))
		}
	}
	fmt.Fprintln(w)
	for i := 0; i < len(kv); i += 2 {
		line := fmt.Sprintf("%-*s  %s", keyW, kv[i].Key, kv[i].Value)
		if i+1 < len(kv) {
			line = fmt.Sprintf("%-*s  %-*s    %-*s  %s", keyW, kv[i].Key, valW, kv[i].Value, keyW, kv[i+1].Key, kv[i+1].Value)
		}
		fmt.Fprintf(w, "    %s\n", line)
	}
}

// FormatElapsed renders a duration as 850ms, 12.3s or 4m05s.
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

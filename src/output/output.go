package output

import (
	"fmt"
	"io"
	"os"
	"strings"
)

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal() || IsCI()
}

// RowStatus writes a row with label, detail, and a status icon.
func RowStatus(sec *Section, label, detail, status string, color bool) {
	icon := StatusIcon(status, color)
	if detail != "" {
		sec.Row("%-28s %s  %s", label, icon, detail)
	} else {
		sec.Row("%-28s %s", label, icon)
	}
}

// Table writes rows as aligned columns inside a section. The first row is
// the header.
func Table(sec *Section, rows [][]string, color bool) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, r := range rows {
		for i, cell := range r {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	for n, r := range rows {
		var b strings.Builder
		for i, cell := range r {
			if i >= len(widths) {
				break
			}
			if i == len(r)-1 {
				b.WriteString(cell)
				continue
			}
			fmt.Fprintf(&b, "%-*s  ", widths[i], cell)
		}
		line := strings.TrimRight(b.String(), " ")
		if n == 0 {
			line = Dimmed(line, color)
		}
		sec.Row("%s", line)
	}
}

// Notice prints a single indented informational line outside any section.
func Notice(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "    %s\n", fmt.Sprintf(format, args...))
}

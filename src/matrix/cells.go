package matrix

import (
	"sort"
	"strconv"
)

// Cell is one CI matrix entry.
type Cell struct {
	Version      string `json:"version" yaml:"version"`
	Postgres     string `json:"postgres" yaml:"postgres"`
	PostGIS      string `json:"postgis" yaml:"postgis"`
	Variant      string `json:"variant" yaml:"variant"`
	Experimental bool   `json:"experimental" yaml:"experimental"`
}

// Cells converts targets into CI matrix cells ordered by version, default
// variant first. Targets whose version tag cannot be parsed are kept as
// experimental cells so that CI still builds them without failing the run.
func Cells(targets []BuildTarget) []Cell {
	type keyed struct {
		cell Cell
		info VersionInfo
		ok   bool
	}

	rows := make([]keyed, 0, len(targets))
	for _, t := range targets {
		vi, err := ParseVersionTag(t.VersionTag)
		c := Cell{Version: t.VersionTag, Variant: string(t.Variant)}
		if err != nil {
			c.Experimental = true
		} else {
			c.Postgres = strconv.Itoa(vi.Postgres)
			c.PostGIS = vi.PostGISRaw
			c.Experimental = vi.Experimental
		}
		rows = append(rows, keyed{cell: c, info: vi, ok: err == nil})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.cell.Version != b.cell.Version {
			switch {
			case !a.ok:
				return false
			case !b.ok:
				return true
			}
			return a.info.Less(b.info)
		}
		return a.cell.Variant == string(VariantDefault) && b.cell.Variant != string(VariantDefault)
	})

	cells := make([]Cell, len(rows))
	for i, r := range rows {
		cells[i] = r.cell
	}
	return cells
}

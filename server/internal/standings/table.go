package standings

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/simleague/standings/server/internal/store"
)

// Table renders rows as a plain-text standings table with a position column.
func Table(rows []store.Standing) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Driver", "Code", "Pts", "Poles", "FL"})
	for i, r := range rows {
		t.AppendRow(table.Row{i + 1, r.FullName, r.ShortName, r.Points, r.PolePositions, r.FastestLaps})
	}
	return t.Render()
}

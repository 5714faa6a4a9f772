package garden

import (
	"strings"

	"github.com/talgya/terraform-garden/internal/plants"
)

// Snapshot is a read-only copy of the grid for collaborators. Plants are
// copied so holders cannot mutate live state.
type Snapshot struct {
	Rows     int    `json:"rows"`
	Cols     int    `json:"cols"`
	Occupied int    `json:"occupied"`
	Dented   int    `json:"dented"`
	Cells    []Cell `json:"cells"`
}

// Snapshot copies the grid.
func (g *Grid) Snapshot() Snapshot {
	snap := Snapshot{
		Rows:  g.rows,
		Cols:  g.cols,
		Cells: make([]Cell, len(g.cells)),
	}
	for i, c := range g.cells {
		if c.Plant != nil {
			cp := *c.Plant
			c.Plant = &cp
		}
		switch c.State {
		case CellPlanted:
			snap.Occupied++
		case CellDented:
			snap.Dented++
		}
		snap.Cells[i] = c
	}
	return snap
}

// At returns the snapshot cell at p, or false when out of bounds.
func (s Snapshot) At(p Pos) (Cell, bool) {
	if p.Row < 0 || p.Row >= s.Rows || p.Col < 0 || p.Col >= s.Cols {
		return Cell{}, false
	}
	return s.Cells[p.Row*s.Cols+p.Col], true
}

// String renders the grid as text: '.' empty, 'x' crater, tier digit for
// plants (0 for tier 10).
func (s Snapshot) String() string {
	var b strings.Builder
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			cell := s.Cells[r*s.Cols+c]
			switch cell.State {
			case CellPlanted:
				b.WriteByte(tierGlyph(cell.Plant))
			case CellDented:
				b.WriteByte('x')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func tierGlyph(p *plants.Plant) byte {
	if p == nil {
		return '?'
	}
	return byte('0' + p.Tier%10)
}

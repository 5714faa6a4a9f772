// Package garden provides the fixed-size planting grid.
// Cells are empty, planted, or dented (cratered and unplantable).
package garden

import (
	"errors"
	"fmt"
	"time"

	"github.com/talgya/terraform-garden/internal/plants"
)

// Default grid dimensions.
const (
	DefaultRows = 8
	DefaultCols = 8
)

var (
	ErrOutOfBounds  = errors.New("position out of bounds")
	ErrCellOccupied = errors.New("cell occupied")
	ErrNilPlant     = errors.New("nil plant")
	ErrInvalidSize  = errors.New("grid dimensions must be positive")

	ErrPlantPlaced   = errors.New("plant already placed")
	ErrPlantWithered = errors.New("plant has withered")
)

// ErrCellDented wraps ErrCellOccupied; errors.Is matches either.
var ErrCellDented = fmt.Errorf("%w: cell is cratered", ErrCellOccupied)

// Pos is a grid coordinate.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// CellState enumerates what a cell holds.
type CellState uint8

const (
	CellEmpty CellState = iota
	CellPlanted
	CellDented
)

func (s CellState) String() string {
	switch s {
	case CellEmpty:
		return "empty"
	case CellPlanted:
		return "planted"
	case CellDented:
		return "dented"
	default:
		return "unknown"
	}
}

// Cell is one grid square. Plant is non-nil only when State is CellPlanted.
type Cell struct {
	Pos      Pos           `json:"pos"`
	State    CellState     `json:"state"`
	Plant    *plants.Plant `json:"plant,omitempty"`
	DentedAt time.Duration `json:"dented_at,omitempty"` // engine clock when cratered
}

// Grid is a fixed rows×cols garden. It is never resized after construction.
type Grid struct {
	rows, cols int
	cells      []Cell
}

// New creates an empty grid.
func New(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("new grid %dx%d: %w", rows, cols, ErrInvalidSize)
	}
	g := &Grid{rows: rows, cols: cols, cells: make([]Cell, rows*cols)}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.cells[r*cols+c].Pos = Pos{Row: r, Col: c}
		}
	}
	return g, nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Size returns the number of cells.
func (g *Grid) Size() int { return len(g.cells) }

// InBounds reports whether p lies inside the grid.
func (g *Grid) InBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

func (g *Grid) cell(p Pos) (*Cell, error) {
	if !g.InBounds(p) {
		return nil, fmt.Errorf("cell %s: %w", p, ErrOutOfBounds)
	}
	return &g.cells[p.Row*g.cols+p.Col], nil
}

// Get returns the cell at p. The returned Plant pointer is the live instance.
func (g *Grid) Get(p Pos) (Cell, error) {
	c, err := g.cell(p)
	if err != nil {
		return Cell{}, err
	}
	return *c, nil
}

// PlantAt places plant at p. Fails if the cell is planted or dented, or if
// the plant is withered or has been placed before, including in a cell it
// has since been evicted from.
func (g *Grid) PlantAt(p Pos, plant *plants.Plant) error {
	switch {
	case plant == nil:
		return ErrNilPlant
	case plant.Withered():
		return fmt.Errorf("plant %s at %s: %w", plant.Name, p, ErrPlantWithered)
	case plant.Placed():
		return fmt.Errorf("plant %s at %s: %w", plant.Name, p, ErrPlantPlaced)
	}
	c, err := g.cell(p)
	if err != nil {
		return err
	}
	switch c.State {
	case CellPlanted:
		return fmt.Errorf("plant at %s: %w", p, ErrCellOccupied)
	case CellDented:
		return fmt.Errorf("plant at %s: %w", p, ErrCellDented)
	}
	c.State = CellPlanted
	c.Plant = plant
	plant.MarkPlaced()
	return nil
}

// RemoveAt clears a planted cell and returns the evicted plant.
// Empty and dented cells are left alone.
func (g *Grid) RemoveAt(p Pos) (*plants.Plant, error) {
	c, err := g.cell(p)
	if err != nil {
		return nil, err
	}
	if c.State != CellPlanted {
		return nil, nil
	}
	evicted := c.Plant
	c.State = CellEmpty
	c.Plant = nil
	return evicted, nil
}

// ApplyCrater turns any cell into a crater, evicting its plant without
// credit. at is the engine clock used for crater expiry.
func (g *Grid) ApplyCrater(p Pos, at time.Duration) (*plants.Plant, error) {
	c, err := g.cell(p)
	if err != nil {
		return nil, err
	}
	evicted := c.Plant
	c.State = CellDented
	c.Plant = nil
	c.DentedAt = at
	return evicted, nil
}

// ClearCrater restores a dented cell to empty. Non-dented cells are unchanged.
func (g *Grid) ClearCrater(p Pos) error {
	c, err := g.cell(p)
	if err != nil {
		return err
	}
	if c.State == CellDented {
		c.State = CellEmpty
		c.DentedAt = 0
	}
	return nil
}

// Occupied counts planted cells.
func (g *Grid) Occupied() int {
	return g.count(CellPlanted)
}

// Dented counts cratered cells.
func (g *Grid) Dented() int {
	return g.count(CellDented)
}

func (g *Grid) count(state CellState) int {
	n := 0
	for i := range g.cells {
		if g.cells[i].State == state {
			n++
		}
	}
	return n
}

// Positions returns, in row-major order, the positions of cells in state.
func (g *Grid) Positions(state CellState) []Pos {
	var out []Pos
	for i := range g.cells {
		if g.cells[i].State == state {
			out = append(out, g.cells[i].Pos)
		}
	}
	return out
}

// Planted returns positions of planted cells in row-major order.
func (g *Grid) Planted() []Pos { return g.Positions(CellPlanted) }

// Empty returns positions of plantable cells in row-major order.
func (g *Grid) Empty() []Pos { return g.Positions(CellEmpty) }

// Each calls fn for every cell in row-major order.
func (g *Grid) Each(fn func(Cell)) {
	for i := range g.cells {
		fn(g.cells[i])
	}
}

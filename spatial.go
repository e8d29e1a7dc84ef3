package main

import "math"

const (
	SpatialCellSize   = 50.0 // bullet-bot hit radius is 20, bullet-bullet 12
	SpatialMarginCell = 2    // off-screen cells kept on each side (bots live up to 50 units out)

	HomingSearchCells = 3
	FlockSearchCells  = 2
	HitSearchCells    = 1
)

// EntityRef identifies an entity in the grid
type EntityRef struct {
	Kind byte // 'r'=bullet, 'b'=bot
	Idx  int  // pool handle for bullets, index into the bot list for bots
}

const (
	RefBullet byte = 'r'
	RefBot    byte = 'b'
)

// SpatialGrid buckets entities into fixed-size cells for neighbor queries.
// It is a derived index: Reset and re-insert every tick, never keep refs across ticks.
type SpatialGrid struct {
	cols, rows int
	cells      [][]EntityRef
}

// NewSpatialGrid creates a grid covering the playfield plus an off-screen margin
func NewSpatialGrid(width, height float64) *SpatialGrid {
	g := &SpatialGrid{}
	g.Reset(width, height)
	return g
}

// Reset sizes the grid for the playfield and empties every cell, keeping capacity
func (g *SpatialGrid) Reset(width, height float64) {
	cols := int(width/SpatialCellSize) + 1 + 2*SpatialMarginCell
	rows := int(height/SpatialCellSize) + 1 + 2*SpatialMarginCell
	if cols != g.cols || rows != g.rows {
		g.cols = cols
		g.rows = rows
		g.cells = make([][]EntityRef, cols*rows)
		return
	}
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// cellCoord returns the clamped column/row for a position
func (g *SpatialGrid) cellCoord(x, y float64) (int, int) {
	cx := floorDiv(x) + SpatialMarginCell
	cy := floorDiv(y) + SpatialMarginCell
	if cx < 0 {
		cx = 0
	} else if cx >= g.cols {
		cx = g.cols - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= g.rows {
		cy = g.rows - 1
	}
	return cx, cy
}

func floorDiv(v float64) int {
	return int(math.Floor(v / SpatialCellSize))
}

// Insert adds an entity reference at the given position
func (g *SpatialGrid) Insert(x, y float64, ref EntityRef) {
	cx, cy := g.cellCoord(x, y)
	idx := cy*g.cols + cx
	g.cells[idx] = append(g.cells[idx], ref)
}

// QueryBuf appends the refs in the (2r+1)x(2r+1) block of cells around a point
// to buf and returns the extended slice, avoiding per-call allocation
func (g *SpatialGrid) QueryBuf(x, y float64, radiusCells int, buf []EntityRef) []EntityRef {
	cx, cy := g.cellCoord(x, y)
	minCX, maxCX := cx-radiusCells, cx+radiusCells
	minCY, maxCY := cy-radiusCells, cy+radiusCells
	if minCX < 0 {
		minCX = 0
	}
	if maxCX >= g.cols {
		maxCX = g.cols - 1
	}
	if minCY < 0 {
		minCY = 0
	}
	if maxCY >= g.rows {
		maxCY = g.rows - 1
	}
	for row := minCY; row <= maxCY; row++ {
		for col := minCX; col <= maxCX; col++ {
			buf = append(buf, g.cells[row*g.cols+col]...)
		}
	}
	return buf
}

// Query returns the refs around a point in a freshly allocated slice
func (g *SpatialGrid) Query(x, y float64, radiusCells int) []EntityRef {
	return g.QueryBuf(x, y, radiusCells, nil)
}

package layout

import "math"

// Page describes a sheet the grid is packed onto, in points.
type Page struct {
	Width, Height float64
	Margin        float64
	GapX, GapY    float64
}

// A4Portrait is the default sheet for combined documents.
var A4Portrait = Page{Width: 595.28, Height: 841.89, Margin: 20, GapX: 10, GapY: 10}

// Grid is the packing of fixed-size cards onto one page.
type Grid struct {
	Columns, Rows int
	StartX        float64
	StartY        float64
	CardWidth     float64
	CardHeight    float64
	GapX, GapY    float64
}

// Placement is the page index and top-left corner for one card.
type Placement struct {
	Index int
	Page  int
	Row   int
	Col   int
	X, Y  float64
}

// ComputeGrid fits as many cards as possible inside the margins, at least one
// in each direction, and centres the block, never closer to the edge than the margin.
func ComputeGrid(page Page, cardW, cardH float64) Grid {
	cols := fit(page.Width-2*page.Margin, cardW, page.GapX)
	rows := fit(page.Height-2*page.Margin, cardH, page.GapY)

	footprintW := float64(cols)*cardW + float64(cols-1)*page.GapX
	footprintH := float64(rows)*cardH + float64(rows-1)*page.GapY

	return Grid{
		Columns:    cols,
		Rows:       rows,
		StartX:     math.Max(page.Margin, (page.Width-footprintW)/2),
		StartY:     math.Max(page.Margin, (page.Height-footprintH)/2),
		CardWidth:  cardW,
		CardHeight: cardH,
		GapX:       page.GapX,
		GapY:       page.GapY,
	}
}

func fit(available, size, gap float64) int {
	if size <= 0 {
		return 1
	}
	n := int(math.Floor((available + gap) / (size + gap)))
	if n < 1 {
		return 1
	}
	return n
}

// PerPage is the number of cells on one page.
func (g Grid) PerPage() int {
	return g.Columns * g.Rows
}

// Pages is the number of pages needed for n cards; zero cards need zero pages.
func (g Grid) Pages(n int) int {
	if n <= 0 {
		return 0
	}
	per := g.PerPage()
	return (n + per - 1) / per
}

// Place assigns n cards to cells row-major, left to right then top to bottom,
// starting a new page only once the current one is full.
func (g Grid) Place(n int) []Placement {
	if n <= 0 {
		return nil
	}
	per := g.PerPage()
	out := make([]Placement, n)
	for i := 0; i < n; i++ {
		cell := i % per
		row, col := cell/g.Columns, cell%g.Columns
		out[i] = Placement{
			Index: i,
			Page:  i / per,
			Row:   row,
			Col:   col,
			X:     g.StartX + float64(col)*(g.CardWidth+g.GapX),
			Y:     g.StartY + float64(row)*(g.CardHeight+g.GapY),
		}
	}
	return out
}

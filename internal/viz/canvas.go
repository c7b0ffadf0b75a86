package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
	return c
}

// Set sets a pixel at (x, y) where x,y are in "sub-pixel" coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Lines returns one string per canvas row.
func (c *Canvas) Lines() []string {
	out := make([]string, len(c.Grid))
	for i, row := range c.Grid {
		out[i] = string(row)
	}
	return out
}

func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n")
}

// VectorBars draws an embedding-style vector: one horizontal bar per
// component, two sub-pixel rows apart, with lengths following
// 0.7 + 0.3·sin(0.5·i) of the full width. A dimmed vector draws every bar at
// full width.
func VectorBars(components, width int, highlighted bool) *Canvas {
	rows := (components*2 + 3) / 4
	c := NewCanvas(width, rows)
	full := width*2 - 1
	for i := 0; i < components; i++ {
		length := full
		if highlighted {
			length = int(math.Round(float64(full) * (0.7 + math.Sin(float64(i)*0.5)*0.3)))
		}
		if length < 1 {
			length = 1
		}
		y := i * 2
		c.DrawLine(0, y, length-1, y)
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

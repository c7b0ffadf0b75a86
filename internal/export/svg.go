package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/gptwalk/internal/viz"
)

const background = "#0a0a0a"

// Braille dot-to-bit mapping
var pixelMap = [4][2]int{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64, fill lipgloss.Color) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder
	sb.WriteString(header(width, height))
	sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", fill))

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r < 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						sb.WriteString(fmt.Sprintf("<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius))
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// MatrixToSVG draws an attention heatmap: one square per score, shaded from
// the background toward hot, with the tokens along both axes.
func MatrixToSVG(tokens []string, grid [][]float64, hot lipgloss.Color, cell int) string {
	n := len(tokens)
	if n == 0 || len(grid) != n {
		return ""
	}
	margin := cell * 2
	size := float64(margin + n*cell)

	var sb strings.Builder
	sb.WriteString(header(size, size))
	sb.WriteString(fmt.Sprintf("<g font-family=\"monospace\" font-size=\"%d\" fill=\"#cccccc\">\n", cell/3))
	for i, tok := range tokens {
		pos := margin + i*cell + cell/2
		sb.WriteString(fmt.Sprintf("<text x=\"%d\" y=\"%d\" text-anchor=\"middle\">%s</text>\n", pos, margin-cell/3, html.EscapeString(tok)))
		sb.WriteString(fmt.Sprintf("<text x=\"%d\" y=\"%d\" text-anchor=\"end\" dominant-baseline=\"middle\">%s</text>\n", margin-cell/4, pos, html.EscapeString(tok)))
	}
	sb.WriteString("</g>\n")

	for i, row := range grid {
		for j, s := range row {
			fill := viz.Blend("#1f2937", hot, s*0.8)
			x := margin + j*cell
			y := margin + i*cell
			sb.WriteString(fmt.Sprintf("<rect x=\"%d\" y=\"%d\" width=\"%d\" height=\"%d\" fill=\"%s\"><title>%s → %s: %.0f%%</title></rect>\n",
				x, y, cell-1, cell-1, fill, html.EscapeString(tokens[i]), html.EscapeString(tokens[j]), s*100))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func header(width, height float64) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

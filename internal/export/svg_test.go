package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/gptwalk/internal/scores"
	"github.com/san-kum/gptwalk/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	svg := CanvasToSVG(c, 10, "#00ff00")
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Contains(t, svg, `width="40" height="40"`)
	assert.Contains(t, svg, `fill="#00ff00"`)
	assert.Equal(t, 2, strings.Count(svg, "<circle"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))

	assert.Empty(t, CanvasToSVG(nil, 10, "#00ff00"))
}

func TestMatrixToSVG(t *testing.T) {
	tokens := []string{"a", "<b>", "c"}
	svg := MatrixToSVG(tokens, scores.Matrix(0, 3), "#ec4899", 30)

	assert.Equal(t, 9, strings.Count(svg, "<rect x="))
	assert.Contains(t, svg, "&lt;b&gt;")
	assert.NotContains(t, svg, "<b>")
	assert.Contains(t, svg, `width="150" height="150"`)

	assert.Empty(t, MatrixToSVG(tokens, scores.Matrix(0, 2), "#ec4899", 30))
}

package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles is the set of lipgloss styles derived from a theme.
type Styles struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Panel     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Muted     lipgloss.Style
	Playing   lipgloss.Style
	Paused    lipgloss.Style
	Highlight lipgloss.Style
	Chip      lipgloss.Style
	ChipOff   lipgloss.Style
	Note      lipgloss.Style
}

// NewStyles builds the styles for a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(t.Secondary),
		Subtitle: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 2),
		Label:     lipgloss.NewStyle().Foreground(t.Muted),
		Value:     lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(t.Muted),
		Playing:   lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Paused:    lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Chip:      lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(t.Primary),
		ChipOff:   lipgloss.NewStyle().Padding(0, 1).Foreground(t.Muted),
		Note:      lipgloss.NewStyle().Foreground(t.Text).Italic(true),
	}
}

// SectionBox frames one part of the architecture flow. Active sections get
// the section color, inactive ones the muted border.
func SectionBox(t Theme, color lipgloss.Color, active bool, width int) lipgloss.Style {
	border := t.Muted
	if active {
		border = color
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 2)
	if width > 0 {
		style = style.Width(width)
	}
	return style
}

// GradientText creates a gradient effect on text using color interpolation
func GradientText(text string, startColor, endColor lipgloss.Color) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	var result strings.Builder
	n := len(runes)
	for i, c := range runes {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		style := lipgloss.NewStyle().Bold(true).Foreground(Blend(startColor, endColor, t))
		result.WriteString(style.Render(string(c)))
	}

	return result.String()
}

// Blend interpolates between two hex colors; t is clamped to [0, 1].
func Blend(from, to lipgloss.Color, t float64) lipgloss.Color {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	sr, sg, sb := parseHex(string(from))
	er, eg, eb := parseHex(string(to))
	r := int(float64(sr) + t*float64(er-sr))
	g := int(float64(sg) + t*float64(eg-sg))
	b := int(float64(sb) + t*float64(eb-sb))
	return lipgloss.Color(hexColor(r, g, b))
}

// Separator renders a muted rule with a diamond in the middle.
func Separator(width int, style lipgloss.Style) string {
	if width < 8 {
		width = 8
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return style.Render(left + " ◆ " + right)
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	r = parseHexByte(hex[1:3])
	g = parseHexByte(hex[3:5])
	b = parseHexByte(hex[5:7])
	return
}

func parseHexByte(s string) int {
	var val int
	for _, c := range s {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}

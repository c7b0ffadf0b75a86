package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/muesli/reflow/wordwrap"

	"github.com/san-kum/gptwalk/internal/scores"
	"github.com/san-kum/gptwalk/internal/viz"
	"github.com/san-kum/gptwalk/internal/walkthrough"
)

// cell is the matrix cursor. It is only drawn while visible is set.
type cell struct {
	row, col int
	visible  bool
}

// flow renders the architecture diagram for one playback state.
type flow struct {
	state  walkthrough.PlaybackState
	tokens []string
	heads  int
	head   int
	cursor cell
	theme  viz.Theme
	styles viz.Styles
	width  int
}

// render returns the diagram and the line at which each section starts.
func (f flow) render() (string, map[walkthrough.Section]int) {
	var b strings.Builder
	offsets := make(map[walkthrough.Section]int)

	add := func(block string) {
		b.WriteString(block)
		b.WriteString("\n\n")
	}
	mark := func(sec walkthrough.Section) {
		offsets[sec] = strings.Count(b.String(), "\n")
	}

	mark(walkthrough.SectionInput)
	add(f.input())
	mark(walkthrough.SectionEmbeddings)
	add(f.embeddings())
	mark(walkthrough.SectionPositional)
	add(f.positional())
	add(f.styles.Title.Render("  " + blockTitle))
	if f.state.ActiveStep >= walkthrough.AttentionStep {
		mark(walkthrough.SectionAttention)
		add(f.attention())
	}
	mark(walkthrough.SectionFeedForward)
	add(f.feedForward())
	mark(walkthrough.SectionOutput)
	add(f.output())
	add(f.insights())

	return strings.TrimRight(b.String(), "\n"), offsets
}

func (f flow) inner() int {
	w := f.width - 6
	if w < 40 {
		w = 40
	}
	return w
}

func (f flow) box(sec walkthrough.Section, active bool, body ...string) string {
	color := f.theme.SectionColor(sec)
	title := f.styles.Muted.Render(sectionTitles[sec])
	if active {
		title = lipgloss.NewStyle().Bold(true).Foreground(color).Render(sectionTitles[sec])
	}
	content := lipgloss.JoinVertical(lipgloss.Left, append([]string{title, ""}, body...)...)
	return viz.SectionBox(f.theme, color, active, f.inner()).Render(content)
}

func (f flow) note(step int) []string {
	text, ok := stepNotes[step]
	if !ok || f.state.ActiveStep != step {
		return nil
	}
	return []string{"", f.styles.Note.Render(wordwrap.String(text, f.inner()-4))}
}

func (f flow) chip(text string, on bool) string {
	if on {
		return f.styles.Chip.Render(text)
	}
	return f.styles.ChipOff.Render(text)
}

func (f flow) input() string {
	active := f.state.ActiveStep == 0
	chips := make([]string, 0, len(f.tokens))
	for _, tok := range f.tokens {
		chips = append(chips, f.chip(tok, active), " ")
	}
	body := append([]string{lipgloss.JoinHorizontal(lipgloss.Top, chips...)}, f.note(0)...)
	return f.box(walkthrough.SectionInput, active, body...)
}

func (f flow) embeddings() string {
	active := f.state.ActiveStep == 1
	reached := f.state.ActiveStep >= 1
	dims := "d=?"
	if reached {
		dims = fmt.Sprintf("d=%d", embeddingDims)
	}

	n := min(3, len(f.tokens))
	cols := make([]string, 0, n*2)
	for _, tok := range f.tokens[:n] {
		bars := viz.VectorBars(8, 7, active).String()
		col := lipgloss.JoinVertical(lipgloss.Center,
			f.styles.Value.Render(tok),
			f.styles.Muted.Render("↓"),
			lipgloss.NewStyle().Foreground(f.theme.SectionColor(walkthrough.SectionEmbeddings)).Render(bars),
			f.styles.Label.Render(dims),
		)
		cols = append(cols, col, "    ")
	}
	body := append([]string{lipgloss.JoinHorizontal(lipgloss.Top, cols...)}, f.note(1)...)
	return f.box(walkthrough.SectionEmbeddings, active, body...)
}

func (f flow) positional() string {
	active := f.state.ActiveStep == 2
	chips := make([]string, 0, len(f.tokens)*2+1)
	for i := range f.tokens {
		chips = append(chips, f.chip(fmt.Sprintf("Pos %d", i), active), " ")
	}
	chips = append(chips, f.styles.Muted.Render(" → Added to embeddings"))

	body := []string{lipgloss.JoinHorizontal(lipgloss.Top, chips...)}
	if f.state.ActiveStep >= 2 {
		body = append(body, "", f.encodingChart())
	}
	body = append(body, f.note(2)...)
	return f.box(walkthrough.SectionPositional, active, body...)
}

// encodingChart plots the first two sinusoidal encoding dimensions across the
// token positions.
func (f flow) encodingChart() string {
	const samples = 10
	n := len(f.tokens)
	points := (n-1)*samples + 1
	if points < 2 {
		points = 2
	}
	sin := make([]float64, points)
	cos := make([]float64, points)
	for i := range sin {
		pos := float64(i) / samples
		sin[i] = math.Sin(pos)
		cos[i] = math.Cos(pos)
	}
	width := min(f.inner()-14, 60)
	return asciigraph.PlotMany([][]float64{sin, cos},
		asciigraph.Height(5),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.Caption("PE(pos, 0) = sin(pos)   PE(pos, 1) = cos(pos)"),
	)
}

func (f flow) attention() string {
	active := f.state.ActiveStep == walkthrough.AttentionStep || f.state.ActiveStep == 4
	body := []string{f.styles.Label.Render(headPrompt), f.headSelector(), "", f.projections(), "", f.matrix()}
	if tip := f.tooltip(); tip != "" {
		body = append(body, f.styles.Highlight.Render(tip))
	}
	body = append(body, "", f.styles.Muted.Render(wordwrap.String(matrixFootnote, f.inner()-4)))
	return f.box(walkthrough.SectionAttention, active, body...)
}

func (f flow) headSelector() string {
	chips := make([]string, 0, f.heads*2)
	for h := 0; h < f.heads; h++ {
		chips = append(chips, f.chip(fmt.Sprintf("Head %d", h+1), h == f.head), " ")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

// projections draws the Q, K and V cards. While the attention step plays,
// card i lights up once the phase reaches i.
func (f flow) projections() string {
	cards := make([]string, 0, len(qkv)*2)
	for i, p := range qkv {
		lit := f.state.ActiveStep == walkthrough.AttentionStep && f.state.AttentionPhase >= i
		color := f.theme.SectionColor(walkthrough.SectionAttention)
		card := lipgloss.JoinVertical(lipgloss.Center,
			p.icon+" "+p.name,
			viz.VectorBars(6, 5, lit).String(),
			wordwrap.String(p.desc, 18),
		)
		style := viz.SectionBox(f.theme, color, lit, 0).Padding(0, 1)
		if !lit {
			style = style.Foreground(f.theme.Muted)
		}
		cards = append(cards, style.Render(card), " ")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (f flow) matrix() string {
	n := len(f.tokens)
	grid := scores.Matrix(f.head, n)
	bg := lipgloss.Color("#1f2937")
	hot := f.theme.SectionColor(walkthrough.SectionAttention)

	cellStyle := lipgloss.NewStyle().Width(7).Align(lipgloss.Center)
	header := []string{cellStyle.Render("")}
	for _, tok := range f.tokens {
		header = append(header, cellStyle.Inherit(f.styles.Label).Render(tok))
	}
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}

	for i := 0; i < n; i++ {
		row := []string{cellStyle.Inherit(f.styles.Label).Render(f.tokens[i])}
		for j := 0; j < n; j++ {
			s := grid[i][j]
			st := cellStyle.Background(viz.Blend(bg, hot, s*0.8))
			if s > 0.5 {
				st = st.Foreground(lipgloss.Color("#ffffff"))
			} else {
				st = st.Foreground(lipgloss.Color("#9ca3af"))
			}
			if f.cursor.visible && f.cursor.row == i && f.cursor.col == j {
				st = st.Bold(true).Underline(true)
			}
			row = append(row, st.Render(fmt.Sprintf("%.1f", s*10)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (f flow) tooltip() string {
	if !f.cursor.visible {
		return ""
	}
	s := scores.Score(f.head, f.cursor.row, f.cursor.col)
	return fmt.Sprintf("Attention from %q to %q: %.0f%%", f.tokens[f.cursor.row], f.tokens[f.cursor.col], s*100)
}

func (f flow) feedForward() string {
	active := f.state.ActiveStep == 5 || f.state.ActiveStep == 6
	reached := f.state.ActiveStep >= 5
	color := lipgloss.NewStyle().Foreground(f.theme.SectionColor(walkthrough.SectionFeedForward))

	in := lipgloss.JoinVertical(lipgloss.Center,
		f.styles.Label.Render(fmt.Sprintf("Input (d=%d)", embeddingDims)),
		color.Render(viz.VectorBars(8, 7, reached).String()),
	)
	mid := lipgloss.JoinVertical(lipgloss.Center,
		f.chip("Linear → ReLU → Linear", active),
		f.styles.Muted.Render(fmt.Sprintf("4× expansion (%d dims)", ffnDims)),
	)
	out := lipgloss.JoinVertical(lipgloss.Center,
		f.styles.Label.Render(fmt.Sprintf("Output (d=%d)", embeddingDims)),
		color.Render(viz.VectorBars(8, 7, reached).String()),
	)
	row := lipgloss.JoinHorizontal(lipgloss.Center, in, "   →   ", mid, "   →   ", out)

	body := []string{row}
	if reached {
		body = append(body, "", f.styles.Note.Render(wordwrap.String(ffnNote, f.inner()-4)))
	}
	return f.box(walkthrough.SectionFeedForward, active, body...)
}

func (f flow) output() string {
	active := f.state.ActiveStep == walkthrough.LastStep
	color := lipgloss.NewStyle().Foreground(f.theme.SectionColor(walkthrough.SectionOutput))
	hidden := lipgloss.JoinVertical(lipgloss.Center,
		f.styles.Label.Render("Final hidden state"),
		color.Render(viz.VectorBars(8, 7, active).String()),
	)

	probs := make([]string, 0, len(predictions))
	for i, p := range predictions {
		val := "?"
		if active {
			val = fmt.Sprintf("%.3g", p.prob)
		}
		probs = append(probs, f.chip(fmt.Sprintf("%s: %s", p.word, val), active && i == 0))
	}
	grid := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, probs[0], " ", probs[1], " ", probs[2]),
		lipgloss.JoinHorizontal(lipgloss.Top, probs[3], " ", probs[4], " ", probs[5]),
	)
	row := lipgloss.JoinHorizontal(lipgloss.Center, hidden, "   →   ", grid)
	body := append([]string{row}, f.note(walkthrough.LastStep)...)
	return f.box(walkthrough.SectionOutput, active, body...)
}

func (f flow) insights() string {
	w := (f.inner() - 4) / len(insights)
	if w < 20 {
		w = 20
	}
	cards := make([]string, 0, len(insights))
	for _, in := range insights {
		body := lipgloss.JoinVertical(lipgloss.Left,
			f.styles.Highlight.Render(in.title),
			f.styles.Muted.Render(wordwrap.String(in.body, w-4)),
		)
		cards = append(cards, f.styles.Panel.Width(w).Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/san-kum/gptwalk/internal/walkthrough"
)

const narratorWidth = 70

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// Narrator prints the walkthrough as plain lines: a header and description
// whenever the step changes, and the section each scroll lands on.
type Narrator struct {
	w     io.Writer
	ctrl  *walkthrough.Controller
	unsub []func()
}

func NewNarrator(w io.Writer) *Narrator {
	return &Narrator{w: w}
}

// Attach subscribes to ctrl and prints its current step. Detach undoes it.
func (n *Narrator) Attach(ctrl *walkthrough.Controller) {
	n.Detach()
	n.ctrl = ctrl
	n.unsub = append(n.unsub,
		ctrl.Subscribe(n.onChange),
		ctrl.OnSection(n.onSection),
	)
	n.step(ctrl.State())
}

func (n *Narrator) Detach() {
	for _, fn := range n.unsub {
		fn()
	}
	n.unsub = nil
}

func (n *Narrator) onChange(prev, next walkthrough.PlaybackState) {
	switch {
	case prev.ActiveStep != next.ActiveStep:
		n.step(next)
	case prev.IsPlaying != next.IsPlaying:
		n.status(next)
	case next.AttentionPhase != prev.AttentionPhase:
		n.phase(next.AttentionPhase)
	}
}

func (n *Narrator) step(s walkthrough.PlaybackState) {
	st := n.ctrl.Catalog().Get(s.ActiveStep)
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s %s\n",
		cyan.Render(fmt.Sprintf("[%d/%d]", s.ActiveStep+1, walkthrough.NumSteps)),
		white.Render(st.Name)))
	b.WriteString("  " + dimmer.Render(strings.Repeat("─", narratorWidth)) + "\n")
	for _, line := range strings.Split(wordwrap.String(st.Description, narratorWidth), "\n") {
		b.WriteString("  " + dim.Render(line) + "\n")
	}
	if s.ActiveStep == walkthrough.LastStep {
		for _, p := range predictions {
			b.WriteString(fmt.Sprintf("    %-8s %s\n", p.word, white.Render(fmt.Sprintf("%.3g", p.prob))))
		}
	}
	fmt.Fprint(n.w, b.String())
}

func (n *Narrator) status(s walkthrough.PlaybackState) {
	if s.IsPlaying {
		fmt.Fprintf(n.w, "  %s\n", green.Render("● playing"))
		return
	}
	fmt.Fprintf(n.w, "  %s\n", yellow.Render("○ paused"))
}

func (n *Narrator) phase(p int) {
	if p < len(qkv) {
		fmt.Fprintf(n.w, "    %s %s\n", qkv[p].icon, dim.Render(qkv[p].name+": "+qkv[p].desc))
		return
	}
	fmt.Fprintf(n.w, "    %s\n", dim.Render("weighted sum of values"))
}

func (n *Narrator) onSection(sec walkthrough.Section) {
	fmt.Fprintf(n.w, "  %s %s\n", dimmer.Render("→"), dim.Render(sec.String()))
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"

	"github.com/san-kum/gptwalk/internal/config"
	"github.com/san-kum/gptwalk/internal/viz"
	"github.com/san-kum/gptwalk/internal/walkthrough"
)

// Options carries the cosmetic settings of the TUI. The controller owns
// everything else.
type Options struct {
	Tokens   []string
	Heads    int
	Theme    string
	Autoplay bool
	Logger   *zap.Logger
}

// OptionsFrom picks the TUI settings out of a loaded config.
func OptionsFrom(cfg *config.Config, log *zap.Logger) Options {
	return Options{
		Tokens:   cfg.Tokens,
		Heads:    cfg.Heads,
		Theme:    cfg.Theme,
		Autoplay: cfg.Autoplay,
		Logger:   log,
	}
}

// timerMsg is delivered when one of the controller's schedules expires.
type timerMsg struct {
	timer walkthrough.Timer
	tag   uint64
}

// focus collects the section notifications raised during Fire so Update can
// apply them to the viewport.
type focus struct {
	section walkthrough.Section
	pending bool
}

type model struct {
	ctrl  *walkthrough.Controller
	log   *zap.Logger
	focus *focus

	tokens []string
	heads  int
	head   int
	cursor cell

	theme    viz.Theme
	styles   viz.Styles
	keys     keyMap
	help     help.Model
	progress progress.Model
	viewport viewport.Model
	offsets  map[walkthrough.Section]int

	width  int
	height int
}

func NewApp(ctrl *walkthrough.Controller, opts Options) model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tokens := opts.Tokens
	if len(tokens) == 0 {
		tokens = config.DefaultTokens
	}
	heads := opts.Heads
	if heads < 1 || heads > config.MaxHeads {
		heads = config.DefaultHeads
	}

	f := &focus{}
	ctrl.OnSection(func(s walkthrough.Section) {
		f.section = s
		f.pending = true
	})
	ctrl.Subscribe(func(prev, next walkthrough.PlaybackState) {
		if prev.ActiveStep != next.ActiveStep {
			log.Info("step", zap.Int("step", next.ActiveStep), zap.String("name", ctrl.Step().Name))
		}
	})
	if opts.Autoplay {
		ctrl.Play()
	}

	vp := viewport.New(80, 20)
	vp.KeyMap = viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		PageUp:       key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "½ page up")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "½ page down")),
		Up:           key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "scroll up")),
		Down:         key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "scroll down")),
	}

	m := model{
		ctrl:     ctrl,
		log:      log,
		focus:    f,
		tokens:   tokens,
		heads:    heads,
		keys:     newKeyMap(),
		help:     help.New(),
		viewport: vp,
		width:    80,
		height:   24,
	}
	m.setTheme(viz.GetTheme(opts.Theme))
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return schedule(m.ctrl.Pending())
}

// schedule turns controller schedules into tagged ticks.
func schedule(pending []walkthrough.Schedule) tea.Cmd {
	if len(pending) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(pending))
	for _, s := range pending {
		cmds = append(cmds, tea.Tick(s.After, func(time.Time) tea.Msg {
			return timerMsg{timer: s.Timer, tag: s.Tag}
		}))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)
	case timerMsg:
		m.ctrl.Fire(msg.timer, msg.tag)
	}

	m.refresh()
	if m.focus.pending {
		m.focus.pending = false
		m.scrollTo(m.focus.section)
	}
	return m, tea.Batch(cmd, schedule(m.ctrl.Pending()))
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	step := m.ctrl.State().ActiveStep
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		m.ctrl.Dispatch(walkthrough.Toggle())
	case key.Matches(msg, m.keys.reset):
		m.ctrl.Dispatch(walkthrough.Reset())
		m.head = 0
		m.cursor = cell{}
	case key.Matches(msg, m.keys.next):
		m.ctrl.Dispatch(walkthrough.GoTo(step + 1))
	case key.Matches(msg, m.keys.prev):
		m.ctrl.Dispatch(walkthrough.GoTo(step - 1))
	case key.Matches(msg, m.keys.jump):
		m.ctrl.Dispatch(walkthrough.GoTo(int(msg.String()[0] - '1')))
	case key.Matches(msg, m.keys.nextHead):
		m.head = (m.head + 1) % m.heads
	case key.Matches(msg, m.keys.prevHead):
		m.head = (m.head + m.heads - 1) % m.heads
	case key.Matches(msg, m.keys.cellUp):
		m.moveCursor(-1, 0)
	case key.Matches(msg, m.keys.cellDown):
		m.moveCursor(1, 0)
	case key.Matches(msg, m.keys.cellLeft):
		m.moveCursor(0, -1)
	case key.Matches(msg, m.keys.cellRght):
		m.moveCursor(0, 1)
	case key.Matches(msg, m.keys.hideCell):
		m.cursor.visible = false
	case key.Matches(msg, m.keys.theme):
		m.setTheme(viz.NextTheme(m.theme.Name))
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// moveCursor shows the matrix cursor, or moves it with wrap-around if it is
// already visible.
func (m *model) moveCursor(dr, dc int) {
	n := len(m.tokens)
	if !m.cursor.visible {
		m.cursor.visible = true
		return
	}
	m.cursor.row = (m.cursor.row + dr + n) % n
	m.cursor.col = (m.cursor.col + dc + n) % n
}

func (m *model) setTheme(t viz.Theme) {
	m.theme = t
	m.styles = viz.NewStyles(t)
	m.progress = progress.New(
		progress.WithGradient(string(t.Secondary), string(t.Primary)),
		progress.WithoutPercentage(),
	)
}

// refresh re-lays out the flow for the current state and window.
func (m *model) refresh() {
	m.progress.Width = max(10, m.width-24)
	chrome := lipgloss.Height(m.header()) + lipgloss.Height(m.panel()) + 1 + lipgloss.Height(m.help.View(m.keys))
	m.viewport.Width = m.width
	m.viewport.Height = max(5, m.height-chrome)

	content, offsets := m.flow().render()
	m.viewport.SetContent(content)
	m.offsets = offsets
}

func (m model) flow() flow {
	return flow{
		state:  m.ctrl.State(),
		tokens: m.tokens,
		heads:  m.heads,
		head:   m.head,
		cursor: m.cursor,
		theme:  m.theme,
		styles: m.styles,
		width:  m.width,
	}
}

// scrollTo centres the section in the viewport, keeping its first line
// visible. Sections that are not rendered are ignored.
func (m *model) scrollTo(sec walkthrough.Section) {
	start, ok := m.offsets[sec]
	if !ok {
		m.log.Debug("scroll target not rendered", zap.Stringer("section", sec))
		return
	}
	end := m.viewport.TotalLineCount()
	for _, o := range m.offsets {
		if o > start && o < end {
			end = o
		}
	}
	y := min(start, (start+end)/2-m.viewport.Height/2)
	m.viewport.SetYOffset(max(0, y))
}

func (m model) header() string {
	title := viz.GradientText("GPT Architecture Walkthrough", m.theme.Primary, m.theme.Secondary)
	sub := m.styles.Subtitle.Render("Watch text flow through a transformer, one stage at a time")
	return lipgloss.JoinVertical(lipgloss.Left, " "+title, " "+sub)
}

func (m model) panel() string {
	s := m.ctrl.State()
	st := m.ctrl.Step()

	status := m.styles.Paused.Render("○ paused")
	if s.IsPlaying {
		status = m.styles.Playing.Render("● playing")
	}
	heading := fmt.Sprintf("%s  %s %s",
		status,
		m.styles.Label.Render(fmt.Sprintf("Step %d of %d:", s.ActiveStep+1, walkthrough.NumSteps)),
		m.styles.Value.Render(st.Name),
	)

	var bar strings.Builder
	for i := 0; i < walkthrough.NumSteps; i++ {
		switch {
		case i < s.ActiveStep:
			bar.WriteString(m.styles.Highlight.Render("━━━ "))
		case i == s.ActiveStep:
			bar.WriteString(m.styles.Value.Render("▰▰▰ "))
		default:
			bar.WriteString(m.styles.Muted.Render("─── "))
		}
	}

	pct := float64(s.ActiveStep) / float64(walkthrough.LastStep)
	desc := wordwrap.String(st.Description, max(20, m.width-8))

	body := lipgloss.JoinVertical(lipgloss.Left,
		heading,
		bar.String(),
		m.progress.ViewAs(pct),
		m.styles.Muted.Render(desc),
	)
	return m.styles.Panel.Render(body)
}

func (m model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		m.panel(),
		viz.Separator(m.width, m.styles.Muted),
		m.viewport.View(),
		m.help.View(m.keys),
	)
}

// Run starts the full-screen walkthrough and blocks until the user quits.
func Run(ctrl *walkthrough.Controller, opts Options) error {
	p := tea.NewProgram(NewApp(ctrl, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gptwalk/internal/scores"
	"github.com/san-kum/gptwalk/internal/walkthrough"
)

var fastTiming = walkthrough.Timing{
	StepDwell:     20 * time.Millisecond,
	PhaseInterval: 5 * time.Millisecond,
	ScrollDelay:   time.Millisecond,
}

func newTestApp(t *testing.T, opts Options, copts ...walkthrough.Option) model {
	t.Helper()
	copts = append([]walkthrough.Option{walkthrough.WithTiming(fastTiming)}, copts...)
	ctrl, err := walkthrough.NewController(walkthrough.DefaultCatalog(), copts...)
	require.NoError(t, err)
	m, _ := update(NewApp(ctrl, opts), tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func update(m model, msg tea.Msg) (model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m model, keys ...string) (model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = update(m, keyMsg(k))
	}
	return m, cmd
}

// run executes a command tree and returns every message it produces.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func expire(cmd tea.Cmd) []timerMsg {
	var out []timerMsg
	for _, msg := range run(cmd) {
		if tm, ok := msg.(timerMsg); ok {
			out = append(out, tm)
		}
	}
	return out
}

func find(msgs []timerMsg, t walkthrough.Timer) (timerMsg, bool) {
	for _, m := range msgs {
		if m.timer == t {
			return m, true
		}
	}
	return timerMsg{}, false
}

func TestInitialView(t *testing.T) {
	m := newTestApp(t, Options{})
	view := m.View()

	assert.Contains(t, view, "GPT Architecture Walkthrough")
	assert.Contains(t, view, "Step 1 of 8:")
	assert.Contains(t, view, "Input Tokenization")
	assert.Contains(t, view, "paused")
	for _, tok := range []string{"The", "cat", "mat"} {
		assert.Contains(t, view, tok)
	}
	assert.False(t, m.ctrl.State().IsPlaying)
}

func TestInitSchedulesInitialScroll(t *testing.T) {
	ctrl, err := walkthrough.NewController(walkthrough.DefaultCatalog(), walkthrough.WithTiming(fastTiming))
	require.NoError(t, err)
	m := NewApp(ctrl, Options{})

	msgs := expire(m.Init())
	scroll, ok := find(msgs, walkthrough.ScrollTimer)
	require.True(t, ok)
	assert.True(t, ctrl.Fire(scroll.timer, scroll.tag))
}

func TestAutoplayOption(t *testing.T) {
	m := newTestApp(t, Options{Autoplay: true})
	assert.True(t, m.ctrl.State().IsPlaying)
	assert.Contains(t, m.View(), "playing")
}

func TestToggleKey(t *testing.T) {
	m := newTestApp(t, Options{})

	m, cmd := press(m, " ")
	assert.True(t, m.ctrl.State().IsPlaying)
	assert.NotNil(t, cmd)

	m, _ = press(m, "p")
	assert.False(t, m.ctrl.State().IsPlaying)
}

func TestStepKeys(t *testing.T) {
	m := newTestApp(t, Options{})

	m, _ = press(m, "4")
	assert.Equal(t, walkthrough.PlaybackState{ActiveStep: 3}, m.ctrl.State())
	assert.Contains(t, m.View(), "Step 4 of 8:")

	m, _ = press(m, "right")
	assert.Equal(t, 4, m.ctrl.State().ActiveStep)

	m, _ = press(m, "left", "left", "left")
	assert.Equal(t, 1, m.ctrl.State().ActiveStep)

	m, _ = press(m, "left", "left", "left")
	assert.Equal(t, 0, m.ctrl.State().ActiveStep)

	m, _ = press(m, "8", "right")
	assert.Equal(t, 7, m.ctrl.State().ActiveStep)

	m, _ = press(m, " ")
	assert.False(t, m.ctrl.State().IsPlaying, "play is a no-op at the last step")

	m, _ = press(m, "r")
	assert.Equal(t, walkthrough.PlaybackState{}, m.ctrl.State())
}

func TestStepTimerAdvances(t *testing.T) {
	m := newTestApp(t, Options{})
	m, cmd := press(m, " ")

	step, ok := find(expire(cmd), walkthrough.StepTimer)
	require.True(t, ok)

	m, _ = update(m, step)
	assert.Equal(t, walkthrough.PlaybackState{ActiveStep: 1, IsPlaying: true}, m.ctrl.State())
	assert.Contains(t, m.View(), "Step 2 of 8:")
}

func TestStaleTimerIgnored(t *testing.T) {
	m := newTestApp(t, Options{})
	m, cmd := press(m, " ")
	step, ok := find(expire(cmd), walkthrough.StepTimer)
	require.True(t, ok)

	m, _ = press(m, " ")
	m, _ = update(m, step)
	assert.Equal(t, walkthrough.PlaybackState{}, m.ctrl.State())
}

func TestAttentionPhaseThroughUpdate(t *testing.T) {
	m := newTestApp(t, Options{}, walkthrough.WithState(walkthrough.PlaybackState{ActiveStep: 3}))
	m, cmd := press(m, " ")

	msgs := expire(cmd)
	phase, ok := find(msgs, walkthrough.PhaseTimer)
	require.True(t, ok)
	step, ok := find(msgs, walkthrough.StepTimer)
	require.True(t, ok)

	m, _ = update(m, phase)
	assert.Equal(t, walkthrough.PlaybackState{ActiveStep: 3, IsPlaying: true, AttentionPhase: 1}, m.ctrl.State())

	m, _ = update(m, step)
	assert.Equal(t, walkthrough.PlaybackState{ActiveStep: 4, IsPlaying: true}, m.ctrl.State())
}

func TestScrollCentresSection(t *testing.T) {
	m := newTestApp(t, Options{})

	m, cmd := press(m, "8")
	scroll, ok := find(expire(cmd), walkthrough.ScrollTimer)
	require.True(t, ok)
	assert.Zero(t, m.viewport.YOffset, "scroll waits for the debounce")

	m, _ = update(m, scroll)
	assert.Positive(t, m.viewport.YOffset)
	assert.Contains(t, m.viewport.View(), "Output Probability Distribution")

	m, cmd = press(m, "1")
	scroll, ok = find(expire(cmd), walkthrough.ScrollTimer)
	require.True(t, ok)
	m, _ = update(m, scroll)
	assert.Zero(t, m.viewport.YOffset)
}

func TestScrollDebounce(t *testing.T) {
	m := newTestApp(t, Options{})

	m, first := press(m, "8")
	m, second := press(m, "3")
	stale, _ := find(expire(first), walkthrough.ScrollTimer)
	live, _ := find(expire(second), walkthrough.ScrollTimer)

	m, _ = update(m, stale)
	assert.Zero(t, m.viewport.YOffset)

	m, _ = update(m, live)
	assert.Positive(t, m.viewport.YOffset)
	assert.Contains(t, m.viewport.View(), "Step 3: Adding Positional Information")
}

func TestUnrenderedSectionIgnored(t *testing.T) {
	m := newTestApp(t, Options{})
	m.viewport.SetYOffset(3)
	m.scrollTo(walkthrough.SectionAttention)
	assert.Equal(t, 3, m.viewport.YOffset)
}

func TestHeadSelection(t *testing.T) {
	m := newTestApp(t, Options{Heads: 4})
	m, _ = press(m, "4", "tab")
	assert.Equal(t, 1, m.head)

	m, _ = press(m, "shift+tab", "shift+tab")
	assert.Equal(t, 3, m.head)
	content, _ := m.flow().render()
	assert.Contains(t, content, "Head 4")
	assert.NotContains(t, content, "Head 5")

	m, _ = press(m, "r")
	assert.Zero(t, m.head)
}

func TestCellTooltip(t *testing.T) {
	m := newTestApp(t, Options{})
	m, _ = press(m, "4", "tab", "l")
	require.True(t, m.cursor.visible)

	m, _ = press(m, "l")
	want := fmt.Sprintf("Attention from %q to %q: %.0f%%", "The", "cat", scores.Score(1, 0, 1)*100)
	content, _ := m.flow().render()
	assert.Contains(t, content, want)

	m, _ = press(m, "k")
	assert.Equal(t, len(m.tokens)-1, m.cursor.row, "cursor wraps")

	m, _ = press(m, "esc")
	assert.False(t, m.cursor.visible)
}

func TestThemeKey(t *testing.T) {
	m := newTestApp(t, Options{Theme: "ocean"})
	assert.Equal(t, "ocean", m.theme.Name)

	m, _ = press(m, "t")
	assert.NotEqual(t, "ocean", m.theme.Name)
}

func TestHelpKey(t *testing.T) {
	m := newTestApp(t, Options{})
	short := m.View()
	m, _ = press(m, "?")
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, m.View(), "next head")
	assert.NotContains(t, short, "next head")
}

func TestQuitKey(t *testing.T) {
	m := newTestApp(t, Options{})
	_, cmd := press(m, "q")
	assert.Contains(t, run(cmd), tea.Msg(tea.QuitMsg{}))
}

func TestOptionsDefaults(t *testing.T) {
	m := newTestApp(t, Options{Heads: 42})
	assert.Equal(t, 8, m.heads)
	assert.Equal(t, "The cat sat on the mat", strings.Join(m.tokens, " "))
}

package walkthrough

import (
	"fmt"
	"strconv"
	"strings"
)

// IntentKind is a user action the rendering layer can send back.
type IntentKind int

const (
	IntentPlay IntentKind = iota
	IntentPause
	IntentToggle
	IntentReset
	IntentGoTo
)

// Intent is a user action; Step is only read for IntentGoTo.
type Intent struct {
	Kind IntentKind
	Step int
}

func Play() Intent         { return Intent{Kind: IntentPlay} }
func Pause() Intent        { return Intent{Kind: IntentPause} }
func Toggle() Intent       { return Intent{Kind: IntentToggle} }
func Reset() Intent        { return Intent{Kind: IntentReset} }
func GoTo(step int) Intent { return Intent{Kind: IntentGoTo, Step: step} }

func (i Intent) String() string {
	switch i.Kind {
	case IntentPlay:
		return "play"
	case IntentPause:
		return "pause"
	case IntentToggle:
		return "toggle"
	case IntentReset:
		return "reset"
	case IntentGoTo:
		return fmt.Sprintf("goto %d", i.Step)
	}
	return fmt.Sprintf("intent(%d)", int(i.Kind))
}

// ParseIntent reads the textual form produced by Intent.String. Step numbers
// are not range-checked; GoTo clamps them.
func ParseIntent(s string) (Intent, error) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return Intent{}, fmt.Errorf("empty intent")
	}
	switch fields[0] {
	case "play":
		return Play(), nil
	case "pause":
		return Pause(), nil
	case "toggle":
		return Toggle(), nil
	case "reset":
		return Reset(), nil
	case "goto", "go":
		if len(fields) != 2 {
			return Intent{}, fmt.Errorf("goto needs a step number")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Intent{}, fmt.Errorf("goto: %w", err)
		}
		return GoTo(n), nil
	}
	return Intent{}, fmt.Errorf("unknown intent %q", fields[0])
}

package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gptwalk/internal/walkthrough"
)

// DefaultHold is how long a scenario keeps the walkthrough open after its
// last step when it sets no hold of its own.
const DefaultHold = time.Second

var ErrInvalidScenario = errors.New("automation: invalid scenario")

// Scenario defines a scripted tour: intents sent at fixed delays.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Hold        time.Duration  `yaml:"hold"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep waits After, then sends Intent.
type ScenarioStep struct {
	After  time.Duration `yaml:"after"`
	Intent string        `yaml:"intent"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// Validate checks that every step has a known intent and a non-negative delay.
func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScenario)
	}
	if s.Hold < 0 {
		return fmt.Errorf("%w: negative hold", ErrInvalidScenario)
	}
	for i, step := range s.Steps {
		if step.After < 0 {
			return fmt.Errorf("%w: step %d has negative delay", ErrInvalidScenario, i+1)
		}
		if _, err := walkthrough.ParseIntent(step.Intent); err != nil {
			return fmt.Errorf("%w: step %d: %v", ErrInvalidScenario, i+1, err)
		}
	}
	return nil
}

// Intents returns the parsed intents in order.
func (s *Scenario) Intents() []walkthrough.Intent {
	out := make([]walkthrough.Intent, 0, len(s.Steps))
	for _, step := range s.Steps {
		in, err := walkthrough.ParseIntent(step.Intent)
		if err != nil {
			continue
		}
		out = append(out, in)
	}
	return out
}

// RunScenario sends each step's intent after its delay, then waits for the
// hold period. It returns ctx.Err() if cancelled part way.
func RunScenario(ctx context.Context, scenario *Scenario, send func(walkthrough.Intent)) error {
	if err := scenario.Validate(); err != nil {
		return err
	}
	intents := scenario.Intents()
	for i, step := range scenario.Steps {
		if err := sleep(ctx, step.After); err != nil {
			return err
		}
		send(intents[i])
	}

	hold := scenario.Hold
	if hold == 0 {
		hold = DefaultHold
	}
	return sleep(ctx, hold)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

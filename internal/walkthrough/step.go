package walkthrough

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// NumSteps is the fixed length of the walkthrough.
	NumSteps = 8
	// FirstStep and LastStep bound every valid step id.
	FirstStep = 0
	LastStep  = NumSteps - 1
	// AttentionStep is the only step that runs the attention sub-animation.
	AttentionStep = 3
	// AttentionPhases is the number of attention sub-phases (Q, K, V, mix).
	AttentionPhases = 4
)

// Step is one stage of the walkthrough.
type Step struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Section returns the part of the architecture flow this step belongs to.
func (s Step) Section() Section { return SectionFor(s.ID) }

// Catalog is the ordered list of steps. It is read-only once loaded.
type Catalog []Step

var defaultSteps = Catalog{
	{ID: 0, Name: "Input Tokenization", Description: "Text is split into tokens (words or subwords). Each token becomes the basic unit of processing."},
	{ID: 1, Name: "Token Embeddings", Description: "Each token is converted to a high-dimensional vector (typically 768 dimensions) that captures its semantic meaning."},
	{ID: 2, Name: "Positional Encoding", Description: "Position information is added to embeddings using sinusoidal patterns, giving the model awareness of word order."},
	{ID: 3, Name: "Multi-Head Attention", Description: "Tokens attend to each other through parallel attention heads, each capturing different types of relationships."},
	{ID: 4, Name: "Add & Normalize", Description: "Residual connection preserves original information while layer normalization stabilizes training."},
	{ID: 5, Name: "Feed Forward", Description: "Position-wise neural network applies non-linear transformations to refine each token's representation."},
	{ID: 6, Name: "Add & Normalize", Description: "Another residual connection and normalization to integrate the feed-forward transformations."},
	{ID: 7, Name: "Output Projection", Description: "Final linear transformation projects to vocabulary size, producing probability distribution over next tokens."},
}

// DefaultCatalog returns a copy of the built-in eight steps.
func DefaultCatalog() Catalog {
	c := make(Catalog, len(defaultSteps))
	copy(c, defaultSteps)
	return c
}

// Validate checks that the catalog holds exactly the eight steps in id order.
func (c Catalog) Validate() error {
	if len(c) != NumSteps {
		return fmt.Errorf("%w: want %d steps, got %d", ErrInvalidCatalog, NumSteps, len(c))
	}
	for i, s := range c {
		if s.ID != i {
			return fmt.Errorf("%w: step at position %d has id %d", ErrInvalidCatalog, i, s.ID)
		}
		if s.Name == "" {
			return fmt.Errorf("%w: step %d has no name", ErrInvalidCatalog, i)
		}
	}
	return nil
}

// Get returns the step with the given id, clamped into range.
func (c Catalog) Get(id int) Step {
	return c[ClampStep(id)]
}

// LoadCatalog reads a YAML list of steps and validates it.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ClampStep forces id into [FirstStep, LastStep].
func ClampStep(id int) int {
	if id < FirstStep {
		return FirstStep
	}
	if id > LastStep {
		return LastStep
	}
	return id
}

// Section is a logical region of the architecture flow that the view can
// scroll to.
type Section int

const (
	SectionInput Section = iota
	SectionEmbeddings
	SectionPositional
	SectionAttention
	SectionFeedForward
	SectionOutput
)

var sectionNames = map[Section]string{
	SectionInput:       "input",
	SectionEmbeddings:  "embeddings",
	SectionPositional:  "positional",
	SectionAttention:   "attention",
	SectionFeedForward: "feedforward",
	SectionOutput:      "output",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("section(%d)", int(s))
}

// Sections lists every section in flow order.
func Sections() []Section {
	return []Section{SectionInput, SectionEmbeddings, SectionPositional, SectionAttention, SectionFeedForward, SectionOutput}
}

// ParseSection is the inverse of Section.String.
func ParseSection(name string) (Section, error) {
	for s, n := range sectionNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSection, name)
}

// SectionFor maps a step id to the section that shows it. Out-of-range ids
// are clamped first.
func SectionFor(step int) Section {
	switch ClampStep(step) {
	case 0:
		return SectionInput
	case 1:
		return SectionEmbeddings
	case 2:
		return SectionPositional
	case 3, 4:
		return SectionAttention
	case 5, 6:
		return SectionFeedForward
	default:
		return SectionOutput
	}
}

package tui

import "github.com/san-kum/gptwalk/internal/walkthrough"

// Static copy shown alongside each section.

const (
	embeddingDims = 768
	ffnDims       = 4 * embeddingDims
)

var sectionTitles = map[walkthrough.Section]string{
	walkthrough.SectionInput:       "Step 1: Input Text Tokenization",
	walkthrough.SectionEmbeddings:  "Step 2: Token → Vector Embeddings",
	walkthrough.SectionPositional:  "Step 3: Adding Positional Information",
	walkthrough.SectionAttention:   "Multi-Head Self-Attention in Action",
	walkthrough.SectionFeedForward: "Feed-Forward Neural Network",
	walkthrough.SectionOutput:      "Final Step: Output Probability Distribution",
}

// stepNotes are shown while exactly that step is active.
var stepNotes = map[int]string{
	0: "Each word becomes a discrete token - the fundamental unit that flows through the neural network.",
	1: "Each token transforms into a 768-dimensional vector encoding its semantic meaning - similar words have similar vectors.",
	2: "Sinusoidal position encodings give the model awareness of word order - crucial since attention operates on all positions simultaneously.",
	7: "The model predicts \"sat\" with 89% confidence - it has learned that cats typically sit!",
}

const (
	blockTitle     = "Transformer Block (Repeated 12-96 times)"
	headPrompt     = "Each attention head learns different patterns. Select a head with tab:"
	matrixFootnote = "Brighter cells indicate stronger attention. Notice how tokens attend to themselves and nearby context."
	ffnNote        = "Position-wise transformations refine each token independently, adding non-linearity and capacity."
)

type projection struct {
	name, icon, desc string
}

// qkv is revealed one card per attention phase.
var qkv = []projection{
	{"Query (Q)", "🔍", "What am I looking for?"},
	{"Key (K)", "🔑", "What information do I have?"},
	{"Value (V)", "💎", "What content to pass forward?"},
}

type prediction struct {
	word string
	prob float64
}

var predictions = []prediction{
	{"sat", 0.89},
	{"slept", 0.05},
	{"jumped", 0.03},
	{"ran", 0.02},
	{"ate", 0.008},
	{"...", 0.002},
}

type insight struct {
	title, body string
}

var insights = []insight{
	{"Self-Attention Magic ✨", "Each token dynamically attends to all other tokens, learning complex relationships and long-range dependencies that RNNs struggle to capture."},
	{"Parallel Processing ⚡", "Unlike sequential models, transformers process all positions simultaneously, enabling massive parallelization on modern GPUs."},
	{"Deep Architecture 🏗️", "GPT stacks 12-96 transformer layers, with each layer refining representations to capture increasingly abstract linguistic patterns."},
}

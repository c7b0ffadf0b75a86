// Package scores generates the illustrative attention weights shown in the
// attention matrix. The values carry no meaning; they only need to look
// plausible and stay stable between frames.
package scores

import "math/rand/v2"

const (
	diagonalBonus  = 0.3
	adjacencyBonus = 0.2
	noiseRange     = 0.5
	maxScore       = 0.99
)

// Score returns a pseudo attention weight in [0, 0.99] from token i to token j
// for the given head. Tokens attend most to themselves and their neighbours.
func Score(head, i, j int) float64 {
	s := noise(head, i, j)
	if i == j {
		s += diagonalBonus
	}
	if i-j == 1 || j-i == 1 {
		s += adjacencyBonus
	}
	if s > maxScore {
		s = maxScore
	}
	return s
}

// Matrix returns the n×n grid of scores for one head.
func Matrix(head, n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = Score(head, i, j)
		}
	}
	return m
}

// Row returns the scores from token i to every token.
func Row(head, i, n int) []float64 {
	row := make([]float64, n)
	for j := range row {
		row[j] = Score(head, i, j)
	}
	return row
}

func noise(head, i, j int) float64 {
	r := rand.New(rand.NewPCG(uint64(head)<<32|uint64(uint32(i)), uint64(uint32(j))+0x9e3779b97f4a7c15))
	return r.Float64() * noiseRange
}

// Package viz provides the terminal drawing primitives for the walkthrough.
//
//   - [Theme]: named color schemes, with one highlight color per section
//   - [Styles]: lipgloss styles derived from a theme
//   - [Canvas]: Braille-based pixel canvas, used for embedding vector bars
//   - [GradientText] and [Blend]: color interpolation helpers
package viz

// Package similarity provides the string-similarity oracle used to fuzzy-match role
// titles and to coerce noisy classifier output onto the status enum.
package similarity

import (
	"context"
	"strings"
)

// DefaultThreshold is the score a role title must exceed to count as the same role.
const DefaultThreshold = 0.8

// Scorer scores how similar two strings are, in [0, 1].
type Scorer interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// Kind selects a Scorer implementation.
type Kind string

// Kind constants
const (
	KindLexical   Kind = "lexical"
	KindEmbedding Kind = "embedding"
)

// Normalize lower-cases and collapses whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Func adapts a Scorer into a plain scoring function. Errors score as zero.
func Func(ctx context.Context, s Scorer) func(a, b string) float64 {
	return func(a, b string) float64 {
		score, err := s.Similarity(ctx, a, b)
		if err != nil {
			return 0
		}
		return score
	}
}

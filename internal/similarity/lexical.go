package similarity

import "context"

// Lexical scores strings with the Sørensen–Dice coefficient over padded character
// bigrams of each word. "software engineer" vs "software engineer i" scores about
// 0.95; "acme" vs "acme corp" scores about 0.67.
type Lexical struct{}

// NewLexical returns the offline scorer.
func NewLexical() *Lexical {
	return &Lexical{}
}

// Similarity implements Scorer. It never fails.
func (Lexical) Similarity(_ context.Context, a, b string) (float64, error) {
	return Dice(a, b), nil
}

// Dice computes the bigram Dice coefficient of two strings after normalization.
func Dice(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}

	ba, bb := bigrams(a), bigrams(b)
	na, nb := total(ba), total(bb)
	if na == 0 || nb == 0 {
		return 0
	}

	shared := 0
	for gram, ca := range ba {
		shared += min(ca, bb[gram])
	}
	return 2 * float64(shared) / float64(na+nb)
}

func bigrams(s string) map[string]int {
	out := make(map[string]int)
	start := 0
	runes := []rune(s)
	for i := 0; i <= len(runes); i++ {
		if i < len(runes) && runes[i] != ' ' {
			continue
		}
		if i > start {
			word := append([]rune{' '}, runes[start:i]...)
			word = append(word, ' ')
			for j := 0; j+1 < len(word); j++ {
				out[string(word[j:j+2])]++
			}
		}
		start = i + 1
	}
	return out
}

func total(m map[string]int) int {
	n := 0
	for _, c := range m {
		n += c
	}
	return n
}

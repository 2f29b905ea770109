package similarity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDice_RoleVariants(t *testing.T) {
	assert.Greater(t, Dice("Software Engineer", "Software Engineer I"), DefaultThreshold)
	assert.Greater(t, Dice("software engineer", "  Software   ENGINEER "), DefaultThreshold)
	assert.Less(t, Dice("Acme", "Acme Corp"), DefaultThreshold)
	assert.Less(t, Dice("Software Engineer", "Product Manager"), 0.3)
}

func TestDice_Edges(t *testing.T) {
	assert.Equal(t, 0.0, Dice("", ""))
	assert.Equal(t, 0.0, Dice("engineer", ""))
	assert.Equal(t, 1.0, Dice("Engineer", "engineer"))
}

func TestDice_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Backend Engineer", "Senior Backend Engineer"},
		{"Data Scientist", "Data Science Intern"},
	}
	for _, p := range pairs {
		assert.InDelta(t, Dice(p[0], p[1]), Dice(p[1], p[0]), 1e-9)
	}
}

func TestLexicalImplementsScorer(t *testing.T) {
	var s Scorer = NewLexical()

	score, err := s.Similarity(context.Background(), "Engineer", "Engineer")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

type fakeEmbedder struct {
	vectors map[string][]float32
	calls   map[string]int
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[text]++
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors[text], nil
}

func TestEmbedding_CosineAndCache(t *testing.T) {
	fe := &fakeEmbedder{vectors: map[string][]float32{
		"software engineer":   {1, 0, 0},
		"software engineer i": {0.9, 0.1, 0},
		"product manager":     {0, 1, 0},
	}}
	s := NewEmbedding(fe)
	ctx := context.Background()

	score, err := s.Similarity(ctx, "Software Engineer", "Software Engineer I")
	require.NoError(t, err)
	assert.Greater(t, score, DefaultThreshold)

	score, err = s.Similarity(ctx, "Software Engineer", "Product Manager")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-9)

	assert.Equal(t, 1, fe.calls["software engineer"])
}

func TestEmbedding_Error(t *testing.T) {
	s := NewEmbedding(&fakeEmbedder{err: errors.New("quota")})

	_, err := s.Similarity(context.Background(), "a", "b")
	assert.ErrorContains(t, err, "quota")

	assert.Equal(t, 0.0, Func(context.Background(), s)("a", "b"))
}

func TestCosine(t *testing.T) {
	assert.Equal(t, 0.0, Cosine(nil, nil))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{-1, 0}))
	assert.InDelta(t, 1.0, Cosine([]float32{2, 2}, []float32{1, 1}), 1e-9)
}

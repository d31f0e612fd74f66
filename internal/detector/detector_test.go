package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		v := []float32{1, 2, 3}
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	})

	t.Run("dimension mismatch returns zero", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	})

	t.Run("zero norm returns zero", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
		assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
	})
}

func TestMatchTexts(t *testing.T) {
	sub := []TextUnit{
		{Text: "the quick brown fox", Vector: []float32{1, 0, 0}},
	}

	t.Run("best match above threshold is kept", func(t *testing.T) {
		ref := []TextUnit{
			{Text: "unrelated", Vector: []float32{0, 1, 0}},
			{Text: "the quick brown fox jumps", Vector: []float32{1, 0.1, 0}},
		}
		matches := MatchTexts(sub, ref, "doc-a")
		require.Len(t, matches, 1)
		assert.Equal(t, "text", matches[0].Kind)
		assert.Equal(t, "the quick brown fox", matches[0].Sentence)
		assert.Equal(t, "the quick brown fox jumps", matches[0].MatchedWith)
		assert.Equal(t, "doc-a", matches[0].RefDocID)
		assert.GreaterOrEqual(t, matches[0].Similarity, 0.75)
	})

	t.Run("below threshold produces no match", func(t *testing.T) {
		ref := []TextUnit{
			{Text: "unrelated", Vector: []float32{0, 1, 0}},
		}
		assert.Empty(t, MatchTexts(sub, ref, "doc-a"))
	})

	t.Run("only best match is kept per sentence", func(t *testing.T) {
		ref := []TextUnit{
			{Text: "close", Vector: []float32{1, 0.3, 0}},
			{Text: "closer", Vector: []float32{1, 0.1, 0}},
		}
		matches := MatchTexts(sub, ref, "doc-a")
		require.Len(t, matches, 1)
		assert.Equal(t, "closer", matches[0].MatchedWith)
	})

	t.Run("tie keeps first occurrence", func(t *testing.T) {
		ref := []TextUnit{
			{Text: "first", Vector: []float32{2, 0, 0}},
			{Text: "second", Vector: []float32{3, 0, 0}},
		}
		matches := MatchTexts(sub, ref, "doc-a")
		require.Len(t, matches, 1)
		assert.Equal(t, "first", matches[0].MatchedWith)
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Nil(t, MatchTexts(nil, []TextUnit{{Vector: []float32{1}}}, "doc-a"))
		assert.Nil(t, MatchTexts(sub, nil, "doc-a"))
	})

	t.Run("deterministic across repeated runs", func(t *testing.T) {
		ref := []TextUnit{
			{Text: "a", Vector: []float32{1, 0.2, 0}},
			{Text: "b", Vector: []float32{1, 0.2, 0}},
			{Text: "c", Vector: []float32{1, 0, 0}},
		}
		first := MatchTexts(sub, ref, "doc-a")
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, MatchTexts(sub, ref, "doc-a"))
		}
	})
}

func TestMatchImages(t *testing.T) {
	t.Run("all pairs above threshold are kept", func(t *testing.T) {
		sub := []ImageUnit{
			{Vector: []float32{1, 0}},
			{Vector: []float32{0, 1}},
		}
		ref := []ImageUnit{
			{Vector: []float32{1, 0.1}},
			{Vector: []float32{1, 0}},
		}
		matches := MatchImages(sub, ref, "doc-b")
		// 提交图片 0 命中两张参考图片，提交图片 1 都不命中
		require.Len(t, matches, 2)
		assert.Equal(t, 0, matches[0].ImageIndex)
		assert.Equal(t, 0, matches[0].MatchedWithIndex)
		assert.Equal(t, 0, matches[1].ImageIndex)
		assert.Equal(t, 1, matches[1].MatchedWithIndex)
		assert.Equal(t, "image", matches[0].Kind)
		assert.Equal(t, "doc-b", matches[0].RefDocID)
	})

	t.Run("one reference image can be hit by several submission images", func(t *testing.T) {
		sub := []ImageUnit{
			{Vector: []float32{1, 0}},
			{Vector: []float32{1, 0.05}},
		}
		ref := []ImageUnit{
			{Vector: []float32{1, 0}},
		}
		matches := MatchImages(sub, ref, "doc-b")
		require.Len(t, matches, 2)
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Nil(t, MatchImages(nil, []ImageUnit{{Vector: []float32{1}}}, "doc-b"))
		assert.Nil(t, MatchImages([]ImageUnit{{Vector: []float32{1}}}, nil, "doc-b"))
	})
}

package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func textMatch(sentence string, ref string) TextMatch {
	return TextMatch{Kind: "text", Sentence: sentence, MatchedWith: "ref sentence", Similarity: 0.9, RefDocID: ref}
}

func TestTextScore(t *testing.T) {
	t.Run("basic ratio", func(t *testing.T) {
		matches := []TextMatch{
			textMatch("a", "doc-1"),
			textMatch("b", "doc-1"),
			textMatch("c", "doc-2"),
		}
		assert.Equal(t, 30.0, TextScore(matches, 10))
	})

	t.Run("same sentence matched in two documents counts once", func(t *testing.T) {
		matches := []TextMatch{
			textMatch("a", "doc-1"),
			textMatch("a", "doc-2"),
		}
		assert.Equal(t, 10.0, TextScore(matches, 10))
	})

	t.Run("zero sentences yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, TextScore([]TextMatch{textMatch("a", "doc-1")}, 0))
		assert.Equal(t, 0.0, TextScore(nil, 0))
	})

	t.Run("no matches yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, TextScore(nil, 10))
	})

	t.Run("score is capped at 100", func(t *testing.T) {
		matches := []TextMatch{
			textMatch("a", "doc-1"),
			textMatch("b", "doc-1"),
		}
		assert.Equal(t, 100.0, TextScore(matches, 1))
	})

	t.Run("rounds to two decimals", func(t *testing.T) {
		matches := []TextMatch{textMatch("a", "doc-1")}
		// 1/3 * 100 = 33.333...
		assert.Equal(t, 33.33, TextScore(matches, 3))
	})

	t.Run("more matches never lower the score", func(t *testing.T) {
		matches := []TextMatch{
			textMatch("a", "doc-1"),
			textMatch("b", "doc-1"),
		}
		base := TextScore(matches, 10)
		withExtra := TextScore(append(matches, textMatch("c", "doc-2")), 10)
		assert.GreaterOrEqual(t, withExtra, base)

		// 重复句子不增加覆盖，得分保持不变
		withDup := TextScore(append(matches, textMatch("a", "doc-2")), 10)
		assert.GreaterOrEqual(t, withDup, base)
	})
}

func TestImageScore(t *testing.T) {
	pair := func(i, j int, ref string) ImageMatch {
		return ImageMatch{Kind: "image", ImageIndex: i, MatchedWithIndex: j, Similarity: 0.9, RefDocID: ref}
	}

	t.Run("distinct pairs accumulate", func(t *testing.T) {
		matches := []ImageMatch{
			pair(0, 0, "doc-1"),
			pair(0, 1, "doc-1"),
		}
		// 同一张提交图片命中两张参考图片算两个覆盖单位
		assert.Equal(t, 100.0, ImageScore(matches, 2))
	})

	t.Run("same pair from two documents counts once", func(t *testing.T) {
		matches := []ImageMatch{
			pair(0, 0, "doc-1"),
			pair(0, 0, "doc-2"),
		}
		assert.Equal(t, 50.0, ImageScore(matches, 2))
	})

	t.Run("zero images yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, ImageScore([]ImageMatch{pair(0, 0, "doc-1")}, 0))
	})

	t.Run("score is capped at 100", func(t *testing.T) {
		matches := []ImageMatch{
			pair(0, 0, "doc-1"),
			pair(0, 1, "doc-1"),
			pair(0, 2, "doc-1"),
		}
		assert.Equal(t, 100.0, ImageScore(matches, 1))
	})

	t.Run("more matches never lower the score", func(t *testing.T) {
		matches := []ImageMatch{pair(0, 0, "doc-1")}
		base := ImageScore(matches, 4)
		withExtra := ImageScore(append(matches, pair(1, 0, "doc-1")), 4)
		assert.GreaterOrEqual(t, withExtra, base)

		withDup := ImageScore(append(matches, pair(0, 0, "doc-2")), 4)
		assert.GreaterOrEqual(t, withDup, base)
	})
}

func TestCombinedScore(t *testing.T) {
	t.Run("weighted blend", func(t *testing.T) {
		assert.Equal(t, 24.0, CombinedScore(30.0, 0.0))
		assert.Equal(t, 44.0, CombinedScore(50.0, 20.0))
	})

	t.Run("both zero", func(t *testing.T) {
		assert.Equal(t, 0.0, CombinedScore(0, 0))
	})

	t.Run("both at ceiling", func(t *testing.T) {
		assert.Equal(t, 100.0, CombinedScore(100, 100))
	})

	t.Run("rounds to two decimals", func(t *testing.T) {
		assert.Equal(t, 26.67, CombinedScore(33.33, 0.03))
	})
}

// 完整的得分链路：10 条句子中 3 条命中，无图片。
func TestScoringEndToEnd(t *testing.T) {
	matches := []TextMatch{
		textMatch("a", "doc-1"),
		textMatch("b", "doc-1"),
		textMatch("c", "doc-2"),
	}
	textScore := TextScore(matches, 10)
	imageScore := ImageScore(nil, 0)
	combined := CombinedScore(textScore, imageScore)

	assert.Equal(t, 30.0, textScore)
	assert.Equal(t, 0.0, imageScore)
	assert.Equal(t, 24.0, combined)
	assert.Equal(t, RiskLow, ClassifyRisk(combined))
}

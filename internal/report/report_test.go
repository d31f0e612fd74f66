package report

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"plagia-detect-go/internal/detector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTextMatches(n int) []detector.TextMatch {
	out := make([]detector.TextMatch, n)
	for i := range out {
		out[i] = detector.TextMatch{
			Kind:        "text",
			Sentence:    fmt.Sprintf("sentence %d", i),
			MatchedWith: "ref",
			Similarity:  0.9,
			RefDocID:    "doc-1",
		}
	}
	return out
}

func TestAssembleScoresBeforeTruncation(t *testing.T) {
	// 50 条匹配 / 50 条句子：得分必须基于完整列表（100%），
	// 而响应里的匹配列表被裁剪到 20 条。
	matches := makeTextMatches(50)
	r := Assemble(context.Background(), matches, nil, 50, 0, 1, nil, "en")

	assert.Equal(t, 100.0, r.TextScore)
	assert.Equal(t, 80.0, r.CombinedScore)
	assert.Len(t, r.TextMatches, MaxMatchesPerModality)
	// key_findings 里的条数统计的是裁剪后的展示列表
	assert.Equal(t, MaxMatchesPerModality, r.KeyFindings.TextMatchesCount)
}

func TestAssembleBasic(t *testing.T) {
	matches := makeTextMatches(3)
	r := Assemble(context.Background(), matches, nil, 10, 0, 2, nil, "en")

	assert.Equal(t, 30.0, r.TextScore)
	assert.Equal(t, 0.0, r.ImageScore)
	assert.Equal(t, 24.0, r.CombinedScore)
	assert.Equal(t, detector.RiskLow, r.RiskLevel)
	assert.Equal(t, 10, r.TotalSentences)
	assert.Equal(t, 2, r.DocumentsCompared)
	assert.Len(t, r.TextMatches, 3)
	assert.NotEmpty(t, r.Summary)
	assert.NotEmpty(t, r.Recommendations)
}

func TestAssembleEmptyResults(t *testing.T) {
	r := Assemble(context.Background(), nil, nil, 10, 2, 3, nil, "en")

	assert.Equal(t, 0.0, r.CombinedScore)
	assert.Equal(t, detector.RiskNone, r.RiskLevel)
	assert.NotNil(t, r.TextMatches)
	assert.NotNil(t, r.ImageMatches)
	assert.Empty(t, r.TextMatches)
	assert.NotEmpty(t, r.Summary)
}

type failingSummarizer struct{}

func (failingSummarizer) Summarize(context.Context, *Report, string) (*Summary, error) {
	return nil, errors.New("model unavailable")
}

func TestAssembleFallsBackToTemplateOnSummarizerFailure(t *testing.T) {
	r := Assemble(context.Background(), makeTextMatches(3), nil, 10, 0, 1, failingSummarizer{}, "fr")

	// 模型失败后报告依然带有模板摘要
	require.NotEmpty(t, r.Summary)
	require.NotEmpty(t, r.Recommendations)
	assert.Contains(t, r.Summary, "24.00")
}

type fixedSummarizer struct{}

func (fixedSummarizer) Summarize(context.Context, *Report, string) (*Summary, error) {
	return &Summary{Summary: "model summary", Recommendations: []string{"do less copying"}}, nil
}

func TestAssembleUsesProvidedSummarizer(t *testing.T) {
	r := Assemble(context.Background(), nil, nil, 10, 0, 1, fixedSummarizer{}, "en")

	assert.Equal(t, "model summary", r.Summary)
	assert.Equal(t, []string{"do less copying"}, r.Recommendations)
}

func TestTemplateSummarizerBands(t *testing.T) {
	s := NewTemplateSummarizer()

	cases := []struct {
		score    float64
		language string
		contains string
	}{
		{0, "fr", "Aucun plagiat"},
		{5, "fr", "très faible"},
		{20, "fr", "faible"},
		{40, "fr", "modéré"},
		{60, "fr", "élevé"},
		{90, "fr", "critique"},
		{0, "en", "No plagiarism"},
		{40, "en", "Moderate"},
		{90, "en", "Critical"},
	}

	for _, tc := range cases {
		r := &Report{CombinedScore: tc.score}
		out, err := s.Summarize(context.Background(), r, tc.language)
		require.NoError(t, err)
		assert.Contains(t, out.Summary, tc.contains, "score=%v lang=%s", tc.score, tc.language)
		assert.NotEmpty(t, out.Recommendations)
	}
}

func TestTemplateSummarizerImageRecommendation(t *testing.T) {
	s := NewTemplateSummarizer()
	r := &Report{
		CombinedScore: 30,
		ImageMatches: []detector.ImageMatch{
			{Kind: "image", ImageIndex: 0, MatchedWithIndex: 0, Similarity: 0.9, RefDocID: "doc-1"},
		},
	}
	out, err := s.Summarize(context.Background(), r, "fr")
	require.NoError(t, err)

	found := false
	for _, rec := range out.Recommendations {
		if rec == "Images similaires détectées : vérifiez les droits d'utilisation." {
			found = true
		}
	}
	assert.True(t, found)
}

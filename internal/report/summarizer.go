package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"plagia-detect-go/pkg/llm"
	"plagia-detect-go/pkg/log"
)

// Summary 是摘要生成的结果。
type Summary struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// Summarizer 抽象了检测摘要的生成方式。
// 有两个实现：基于大模型的 ModelBackedSummarizer 与确定性的 TemplateSummarizer，
// 由构造时的模型可用性决定选用哪个。
type Summarizer interface {
	Summarize(ctx context.Context, r *Report, language string) (*Summary, error)
}

// NewSummarizer 根据 LLM 客户端是否可用选择摘要实现。
func NewSummarizer(llmClient llm.Client) Summarizer {
	if llmClient == nil {
		log.Warnf("[Summarizer] LLM 客户端不可用，使用模板摘要")
		return NewTemplateSummarizer()
	}
	return &ModelBackedSummarizer{llmClient: llmClient}
}

// ModelBackedSummarizer 通过 LLM 生成检测摘要与建议。
type ModelBackedSummarizer struct {
	llmClient llm.Client
}

// Summarize 将关键数字结论交给模型，要求返回 JSON 格式的摘要与建议。
func (s *ModelBackedSummarizer) Summarize(ctx context.Context, r *Report, language string) (*Summary, error) {
	prompt := fmt.Sprintf(
		"Plagiarism detection results:\n"+
			"Overall plagiarism score: %.2f%%\n"+
			"Text plagiarism: %.2f%% with %d text matches found.\n"+
			"Image plagiarism: %.2f%% with %d image matches found.\n"+
			"Total sentences analyzed: %d\n"+
			"Total images analyzed: %d\n"+
			"Risk level: %s\n"+
			"Documents compared: %d\n\n"+
			"Write a short summary of these results and practical recommendations "+
			"for the author, in language '%s'. Respond with JSON only: "+
			`{"summary": "...", "recommendations": ["...", "..."]}`,
		r.CombinedScore,
		r.TextScore, len(r.TextMatches),
		r.ImageScore, len(r.ImageMatches),
		r.TotalSentences,
		r.TotalImagesChecked,
		r.RiskLevel,
		r.DocumentsCompared,
		language,
	)

	content, err := s.llmClient.Complete(ctx, []llm.Message{
		{Role: "system", Content: "You summarize plagiarism detection reports. Respond with JSON only."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		log.Warnf("[Summarizer] 模型摘要生成失败, 将使用模板兜底: %v", err)
		return nil, fmt.Errorf("model summarization failed: %w", err)
	}

	// 容忍模型在 JSON 外包裹 markdown 代码块
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out Summary
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		log.Warnf("[Summarizer] 模型返回内容无法解析为 JSON: %v", err)
		return nil, fmt.Errorf("failed to decode model summary: %w", err)
	}
	if out.Summary == "" {
		return nil, fmt.Errorf("model returned empty summary")
	}
	return &out, nil
}

// TemplateSummarizer 按风险分段生成确定性的摘要文本，不依赖任何外部服务。
type TemplateSummarizer struct{}

// NewTemplateSummarizer 创建模板摘要实现。
func NewTemplateSummarizer() *TemplateSummarizer {
	return &TemplateSummarizer{}
}

// Summarize 生成模板摘要。分段边界与风险等级划分保持一致。
// 支持 "fr"（默认）与 "en" 两种语言。
func (s *TemplateSummarizer) Summarize(_ context.Context, r *Report, language string) (*Summary, error) {
	if language == "en" {
		return &Summary{
			Summary:         englishSummary(r),
			Recommendations: englishRecommendations(r),
		}, nil
	}
	return &Summary{
		Summary:         frenchSummary(r),
		Recommendations: frenchRecommendations(r),
	}, nil
}

func frenchSummary(r *Report) string {
	score := r.CombinedScore
	switch {
	case score == 0:
		return "Aucun plagiat détecté. Le document semble entièrement original."
	case score < 10:
		return fmt.Sprintf("Risque très faible de plagiat (%.2f%%). Similarités négligeables.", score)
	case score < 25:
		return fmt.Sprintf("Risque faible de plagiat (%.2f%%). %d similarités mineures détectées.", score, len(r.TextMatches))
	case score < 50:
		return fmt.Sprintf("Risque modéré de plagiat (%.2f%%). %d similarités textuelles nécessitent une révision.", score, len(r.TextMatches))
	case score < 75:
		return fmt.Sprintf("Risque élevé de plagiat (%.2f%%). %d similarités textuelles et %d similarités d'images détectées.", score, len(r.TextMatches), len(r.ImageMatches))
	default:
		return fmt.Sprintf("Risque critique de plagiat (%.2f%%). Révision complète requise.", score)
	}
}

func frenchRecommendations(r *Report) []string {
	var recs []string
	switch {
	case r.CombinedScore > 50:
		recs = append(recs, "Révision majeure nécessaire : le document présente un risque élevé de plagiat.")
	case r.CombinedScore > 25:
		recs = append(recs, "Révision modérée recommandée : certaines sections nécessitent une reformulation.")
	default:
		recs = append(recs, "Document généralement original : seules des similarités mineures détectées.")
	}

	if n := highSimilarityCount(r); n > 0 {
		recs = append(recs, fmt.Sprintf("%d phrases présentent une similarité très élevée.", n))
	}
	if len(r.ImageMatches) > 0 {
		recs = append(recs, "Images similaires détectées : vérifiez les droits d'utilisation.")
	}

	recs = append(recs,
		"Utilisez l'outil de reformulation pour réécrire les phrases problématiques.",
		"Citez vos sources lorsque vous utilisez le travail d'autres auteurs.",
	)
	return recs
}

func englishSummary(r *Report) string {
	score := r.CombinedScore
	switch {
	case score == 0:
		return "No plagiarism detected. The document appears entirely original."
	case score < 10:
		return fmt.Sprintf("Very low plagiarism risk (%.2f%%). Negligible similarities.", score)
	case score < 25:
		return fmt.Sprintf("Low plagiarism risk (%.2f%%). %d minor similarities detected.", score, len(r.TextMatches))
	case score < 50:
		return fmt.Sprintf("Moderate plagiarism risk (%.2f%%). %d text similarities need revision.", score, len(r.TextMatches))
	case score < 75:
		return fmt.Sprintf("High plagiarism risk (%.2f%%). %d text similarities and %d image similarities detected.", score, len(r.TextMatches), len(r.ImageMatches))
	default:
		return fmt.Sprintf("Critical plagiarism risk (%.2f%%). A full revision is required.", score)
	}
}

func englishRecommendations(r *Report) []string {
	var recs []string
	switch {
	case r.CombinedScore > 50:
		recs = append(recs, "Major revision needed: the document carries a high plagiarism risk.")
	case r.CombinedScore > 25:
		recs = append(recs, "Moderate revision recommended: some sections need rewording.")
	default:
		recs = append(recs, "Document mostly original: only minor similarities detected.")
	}

	if n := highSimilarityCount(r); n > 0 {
		recs = append(recs, fmt.Sprintf("%d sentences show very high similarity.", n))
	}
	if len(r.ImageMatches) > 0 {
		recs = append(recs, "Similar images detected: check usage rights.")
	}

	recs = append(recs,
		"Use the reformulation tool to rewrite problematic sentences.",
		"Cite your sources when building on other authors' work.",
	)
	return recs
}

// highSimilarityCount 统计相似度超过 0.8 的文本匹配条数。
func highSimilarityCount(r *Report) int {
	n := 0
	for _, m := range r.TextMatches {
		if m.Similarity > 0.8 {
			n++
		}
	}
	return n
}

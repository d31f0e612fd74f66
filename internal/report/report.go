// Package report 负责把一次检测的匹配结果组装为最终报告，
// 并生成（或兜底生成）自然语言摘要与建议。
package report

import (
	"context"

	"plagia-detect-go/internal/detector"
)

// MaxMatchesPerModality 是响应中每个模态保留的匹配条数上限。
// 这是控制响应体大小的展示层裁剪，必须在得分计算之后执行。
const MaxMatchesPerModality = 20

// KeyFindings 汇总报告的关键数字结论。
type KeyFindings struct {
	OverallScore      float64            `json:"overall_score"`
	TextScore         float64            `json:"text_score"`
	ImageScore        float64            `json:"image_score"`
	TextMatchesCount  int                `json:"text_matches_count"`
	ImageMatchesCount int                `json:"image_matches_count"`
	RiskLevel         detector.RiskLevel `json:"risk_level"`
	DocumentsCompared int                `json:"documents_compared"`
}

// Report 是 /detect 接口返回的完整检测报告。
type Report struct {
	TextScore          float64               `json:"plagiarism_score_text"`
	ImageScore         float64               `json:"plagiarism_score_image"`
	CombinedScore      float64               `json:"plagiarism_score_combined"`
	TotalSentences     int                   `json:"total_sentences"`
	TotalImagesChecked int                   `json:"total_images_checked"`
	TextMatches        []detector.TextMatch  `json:"text_matches"`
	ImageMatches       []detector.ImageMatch `json:"image_matches"`
	RiskLevel          detector.RiskLevel    `json:"risk_level"`
	DocumentsCompared  int                   `json:"documents_compared"`
	Summary            string                `json:"summary"`
	Recommendations    []string              `json:"recommendations"`
	KeyFindings        KeyFindings           `json:"key_findings"`
}

// Assemble 根据完整匹配列表计算得分、划分风险等级并裁剪匹配列表。
// 得分永远基于完整列表计算；裁剪只影响响应中展示的匹配条目。
// summarizer 失败时自动退回确定性的模板摘要，报告不会缺少 summary 字段。
func Assemble(
	ctx context.Context,
	textMatches []detector.TextMatch,
	imageMatches []detector.ImageMatch,
	totalSentences, totalImages, documentsCompared int,
	summarizer Summarizer,
	language string,
) *Report {
	textScore := detector.TextScore(textMatches, totalSentences)
	imageScore := detector.ImageScore(imageMatches, totalImages)
	combined := detector.CombinedScore(textScore, imageScore)
	risk := detector.ClassifyRisk(combined)

	r := &Report{
		TextScore:          textScore,
		ImageScore:         imageScore,
		CombinedScore:      combined,
		TotalSentences:     totalSentences,
		TotalImagesChecked: totalImages,
		TextMatches:        truncateText(textMatches),
		ImageMatches:       truncateImage(imageMatches),
		RiskLevel:          risk,
		DocumentsCompared:  documentsCompared,
	}
	r.KeyFindings = KeyFindings{
		OverallScore:      combined,
		TextScore:         textScore,
		ImageScore:        imageScore,
		TextMatchesCount:  len(r.TextMatches),
		ImageMatchesCount: len(r.ImageMatches),
		RiskLevel:         risk,
		DocumentsCompared: documentsCompared,
	}

	attachSummary(ctx, r, summarizer, language)
	return r
}

// attachSummary 填充摘要与建议；模型摘要失败时使用模板兜底。
func attachSummary(ctx context.Context, r *Report, summarizer Summarizer, language string) {
	fallback := NewTemplateSummarizer()

	if summarizer != nil {
		if s, err := summarizer.Summarize(ctx, r, language); err == nil {
			r.Summary = s.Summary
			r.Recommendations = s.Recommendations
			return
		}
	}

	s, _ := fallback.Summarize(ctx, r, language)
	r.Summary = s.Summary
	r.Recommendations = s.Recommendations
}

func truncateText(matches []detector.TextMatch) []detector.TextMatch {
	out := make([]detector.TextMatch, 0, MaxMatchesPerModality)
	for i, m := range matches {
		if i >= MaxMatchesPerModality {
			break
		}
		out = append(out, m)
	}
	return out
}

func truncateImage(matches []detector.ImageMatch) []detector.ImageMatch {
	out := make([]detector.ImageMatch, 0, MaxMatchesPerModality)
	for i, m := range matches {
		if i >= MaxMatchesPerModality {
			break
		}
		out = append(out, m)
	}
	return out
}

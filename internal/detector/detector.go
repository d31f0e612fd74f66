// Package detector 实现了检测流程的算法核心：
// 句子/图片的相似度匹配、各模态得分聚合与风险等级划分。
package detector

import "math"

// 算法常量。阈值与权重是检测语义的一部分，刻意不做成配置项。
const (
	// TextSimilarityThreshold 是文本匹配的余弦相似度下限。
	TextSimilarityThreshold = 0.75
	// ImageSimilarityThreshold 是图片匹配的余弦相似度下限。
	ImageSimilarityThreshold = 0.75
	// TextWeight 与 ImageWeight 是综合得分的线性权重。
	// 文本是主要的抄袭信号，图片仅作辅助证据。
	TextWeight  = 0.8
	ImageWeight = 0.2
)

// TextUnit 是一条已清洗的句子及其向量，归属于某个文献中的固定位置。
type TextUnit struct {
	Text   string
	Vector []float32
}

// ImageUnit 是一张图片的特征向量，归属于某个文献中的固定位置。
type ImageUnit struct {
	Vector []float32
}

// TextMatch 记录一条提交句子与参考句子的匹配。
type TextMatch struct {
	Kind        string  `json:"type"`
	Sentence    string  `json:"sentence"`
	MatchedWith string  `json:"matched_with"`
	Similarity  float64 `json:"similarity"`
	RefDocID    string  `json:"ref_doc"`
}

// ImageMatch 记录一对超过阈值的提交图片与参考图片。
type ImageMatch struct {
	Kind             string  `json:"type"`
	ImageIndex       int     `json:"image_index"`
	MatchedWithIndex int     `json:"matched_with_index"`
	Similarity       float64 `json:"similarity"`
	RefDocID         string  `json:"ref_doc"`
}

// CosineSimilarity 计算两个向量的余弦相似度。
// 维度不一致或任一向量范数为零时返回 0。
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Round2 保留两位小数。
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MatchTexts 对每条提交句子在一个参考文献内做最优匹配。
// 只有最大相似度达到阈值时才产生一条匹配；并列最大值取参考文献中先出现的
// 那一条（稳定 argmax），保证结果可复现。
func MatchTexts(sub, ref []TextUnit, refDocID string) []TextMatch {
	if len(sub) == 0 || len(ref) == 0 {
		return nil
	}

	var matches []TextMatch
	for _, s := range sub {
		bestScore := -1.0
		bestIdx := -1
		for j, r := range ref {
			sim := CosineSimilarity(s.Vector, r.Vector)
			if sim > bestScore {
				bestScore = sim
				bestIdx = j
			}
		}
		if bestIdx >= 0 && bestScore >= TextSimilarityThreshold {
			matches = append(matches, TextMatch{
				Kind:        "text",
				Sentence:    s.Text,
				MatchedWith: ref[bestIdx].Text,
				Similarity:  Round2(bestScore),
				RefDocID:    refDocID,
			})
		}
	}
	return matches
}

// MatchImages 对提交图片与参考图片做全对比对。
// 与文本不同，这里保留所有达到阈值的配对：一张提交图片可以产生多条匹配，
// 一张参考图片也可以被多张提交图片命中。
func MatchImages(sub, ref []ImageUnit, refDocID string) []ImageMatch {
	if len(sub) == 0 || len(ref) == 0 {
		return nil
	}

	var matches []ImageMatch
	for i, s := range sub {
		for j, r := range ref {
			sim := CosineSimilarity(s.Vector, r.Vector)
			if sim >= ImageSimilarityThreshold {
				matches = append(matches, ImageMatch{
					Kind:             "image",
					ImageIndex:       i,
					MatchedWithIndex: j,
					Similarity:       Round2(sim),
					RefDocID:         refDocID,
				})
			}
		}
	}
	return matches
}

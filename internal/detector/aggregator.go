package detector

import "fmt"

// TextScore 计算文本覆盖得分。
// 按句子文本去重：同一条句子即使命中多个参考文献也只计一次。
// 返回值在 [0,100] 内；没有提交句子时得分为 0。
func TextScore(matches []TextMatch, totalSentences int) float64 {
	if totalSentences <= 0 {
		return 0
	}

	distinct := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		distinct[m.Sentence] = struct{}{}
	}

	score := Round2(float64(len(distinct)) / float64(totalSentences) * 100)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// ImageScore 计算图片覆盖得分。
// 去重键是 (提交图片索引, 参考图片索引)：同一张提交图片命中两张不同的参考
// 图片计作两个覆盖单位，因此得分可能超过"被使用的原始图片数"这一直觉。
// 返回值在 [0,100] 内；没有提交图片时得分为 0。
func ImageScore(matches []ImageMatch, totalImages int) float64 {
	if totalImages <= 0 {
		return 0
	}

	distinct := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		distinct[fmt.Sprintf("%d_%d", m.ImageIndex, m.MatchedWithIndex)] = struct{}{}
	}

	score := Round2(float64(len(distinct)) / float64(totalImages) * 100)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// CombinedScore 按固定权重线性混合两个模态的得分，保留两位小数并钳制在 [0,100]。
func CombinedScore(textScore, imageScore float64) float64 {
	combined := Round2(textScore*TextWeight + imageScore*ImageWeight)
	if combined > 100 {
		combined = 100
	}
	if combined < 0 {
		combined = 0
	}
	return combined
}

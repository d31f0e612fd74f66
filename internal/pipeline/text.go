package pipeline

import (
	"regexp"
	"strings"
)

var (
	sentenceBoundary = regexp.MustCompile(`[.!?。！？\n]+`)
	nonLetter        = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// CleanText 对文本做轻量归一化：小写化、去掉字母数字之外的符号、压缩空白。
func CleanText(text string) string {
	text = strings.ToLower(text)
	text = nonLetter.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// SplitSentences 先按句子边界切分，再对每条句子做归一化，丢弃空句。
// 返回的句子保持原文顺序。
func SplitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	parts := sentenceBoundary.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		cleaned := CleanText(p)
		if cleaned == "" {
			continue
		}
		sentences = append(sentences, cleaned)
	}
	return sentences
}

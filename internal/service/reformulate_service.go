package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"plagia-detect-go/pkg/llm"
	"plagia-detect-go/pkg/log"
)

// ErrEmptySentence 表示待改写的句子为空。
var ErrEmptySentence = errors.New("待改写句子不能为空")

// ReformulateService 接口定义了句子改写操作。
type ReformulateService interface {
	Reformulate(ctx context.Context, sentence string) ([]string, error)
}

type reformulateService struct {
	llmClient llm.Client
}

// NewReformulateService 创建一个新的 ReformulateService 实例。
func NewReformulateService(llmClient llm.Client) ReformulateService {
	return &reformulateService{llmClient: llmClient}
}

const reformulateSystemPrompt = `You are a writing assistant. Rewrite the sentence provided by the user in three different ways, keeping the original meaning and the original language. Respond with a JSON array of exactly 3 strings and nothing else.`

// Reformulate 调用大模型生成 3 条同义改写。
func (s *reformulateService) Reformulate(ctx context.Context, sentence string) ([]string, error) {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return nil, ErrEmptySentence
	}

	messages := []llm.Message{
		{Role: "system", Content: reformulateSystemPrompt},
		{Role: "user", Content: sentence},
	}
	raw, err := s.llmClient.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("调用改写模型失败: %w", err)
	}

	variants, err := parseVariants(raw)
	if err != nil {
		log.Warnf("[ReformulateService] 模型输出解析失败: %v, 原始输出: %s", err, raw)
		return nil, fmt.Errorf("解析改写结果失败: %w", err)
	}
	return variants, nil
}

// parseVariants 从模型输出中解析 JSON 字符串数组，容忍 markdown 代码块包裹。
func parseVariants(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var variants []string
	if err := json.Unmarshal([]byte(raw), &variants); err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, errors.New("模型未返回任何改写结果")
	}
	// 清理空白条目
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("模型返回的改写结果全部为空")
	}
	return out, nil
}

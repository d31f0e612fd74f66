// Package vision provides a client for an image feature extraction service.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"plagia-detect-go/internal/config"
	"plagia-detect-go/pkg/log"
)

// Client defines the interface for an image feature client.
type Client interface {
	// ExtractFeatures 提取单张图片的特征向量。
	ExtractFeatures(ctx context.Context, image []byte) ([]float32, error)
}

type httpClient struct {
	cfg    config.VisionConfig
	client *http.Client
}

// NewClient creates a new vision client.
func NewClient(cfg config.VisionConfig) Client {
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type featureRequest struct {
	Model string `json:"model"`
	Image string `json:"image"` // base64
}

type featureResponse struct {
	Features []float32 `json:"features"`
}

// ExtractFeatures 将图片以 base64 形式提交给特征服务，返回定长特征向量。
func (c *httpClient) ExtractFeatures(ctx context.Context, image []byte) ([]float32, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}

	reqBody := featureRequest{
		Model: c.cfg.Model,
		Image: base64.StdEncoding.EncodeToString(image),
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feature request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/features", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create feature request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[VisionClient] 调用图像特征服务失败, error: %v", err)
		return nil, fmt.Errorf("failed to call vision api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[VisionClient] 图像特征服务返回非 200 状态码: %s", resp.Status)
		return nil, fmt.Errorf("vision api returned non-200 status: %s", resp.Status)
	}

	var featureResp featureResponse
	if err := json.NewDecoder(resp.Body).Decode(&featureResp); err != nil {
		return nil, fmt.Errorf("failed to decode vision response: %w", err)
	}

	if len(featureResp.Features) == 0 {
		return nil, fmt.Errorf("received empty feature vector from api")
	}

	return featureResp.Features, nil
}

package handler

import (
	"net/http"

	"plagia-detect-go/internal/service"
	"plagia-detect-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// HealthHandler 负责处理服务健康检查请求。
type HealthHandler struct {
	referenceService service.ReferenceService
}

// NewHealthHandler 创建一个新的 HealthHandler 实例。
func NewHealthHandler(referenceService service.ReferenceService) *HealthHandler {
	return &HealthHandler{referenceService: referenceService}
}

// Health 返回服务状态及可用参考文献数量。
func (h *HealthHandler) Health(c *gin.Context) {
	count, err := h.referenceService.CountReady()
	if err != nil {
		log.Warnf("Health: failed to count reference documents: %v", err)
		c.JSON(http.StatusOK, gin.H{
			"status":               "degraded",
			"reference_docs_count": 0,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"reference_docs_count": count,
	})
}

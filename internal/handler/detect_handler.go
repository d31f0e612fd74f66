package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"plagia-detect-go/internal/service"
	"plagia-detect-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DetectHandler 负责处理抄袭检测相关的 API 请求。
type DetectHandler struct {
	detectService service.DetectService
}

// NewDetectHandler 创建一个新的 DetectHandler 实例。
func NewDetectHandler(detectService service.DetectService) *DetectHandler {
	return &DetectHandler{detectService: detectService}
}

// Detect 处理文档检测请求。
// 请求为 multipart 表单，"file" 字段携带待检测文档；响应为完整的检测报告。
func (h *DetectHandler) Detect(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少待检测文件",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("Detect: failed to open uploaded file", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("Detect: failed to read uploaded file", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "待检测文件内容为空",
		})
		return
	}

	result, err := h.detectService.Detect(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCorpus) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "参考语料库为空，请先上传参考文献",
			})
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"code":    http.StatusGatewayTimeout,
				"message": "检测超时，请稍后重试",
			})
			return
		}
		log.Error("Detect: detection failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "检测失败"})
		return
	}

	c.JSON(http.StatusOK, result)
}

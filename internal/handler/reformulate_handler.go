package handler

import (
	"errors"
	"net/http"

	"plagia-detect-go/internal/service"
	"plagia-detect-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ReformulateHandler 负责处理句子改写相关的 API 请求。
type ReformulateHandler struct {
	reformulateService service.ReformulateService
}

// NewReformulateHandler 创建一个新的 ReformulateHandler 实例。
func NewReformulateHandler(reformulateService service.ReformulateService) *ReformulateHandler {
	return &ReformulateHandler{reformulateService: reformulateService}
}

// ReformulateRequest 定义了句子改写 API 的请求体结构。
type ReformulateRequest struct {
	Sentence string `json:"sentence" binding:"required"`
}

// Reformulate 处理句子改写请求，返回若干条同义改写。
func (h *ReformulateHandler) Reformulate(c *gin.Context) {
	var req ReformulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "无效的请求负载：句子不能为空",
		})
		return
	}

	variants, err := h.reformulateService.Reformulate(c.Request.Context(), req.Sentence)
	if err != nil {
		if errors.Is(err, service.ErrEmptySentence) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "句子不能为空",
			})
			return
		}
		log.Error("Reformulate: failed to reformulate sentence", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "改写失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"original":       req.Sentence,
		"reformulations": variants,
	})
}

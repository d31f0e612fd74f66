package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"plagia-detect-go/internal/model"
	"plagia-detect-go/internal/service"
	"plagia-detect-go/pkg/log"
	"plagia-detect-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// ReferenceHandler 负责处理参考语料库管理相关的 API 请求。
type ReferenceHandler struct {
	referenceService service.ReferenceService
}

// NewReferenceHandler 创建一个新的 ReferenceHandler 实例。
func NewReferenceHandler(referenceService service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{referenceService: referenceService}
}

// Upload 处理参考文献上传请求。
// 文件落盘后异步解析，接口立即返回 processing 状态的记录。
func (h *ReferenceHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "缺少参考文献文件",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("Upload: failed to open uploaded file", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("Upload: failed to read uploaded file", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "参考文献文件内容为空",
		})
		return
	}

	// 上传者信息由 AuthMiddleware 注入
	var uploadedBy uint
	if claimsValue, ok := c.Get("claims"); ok {
		if claims, ok := claimsValue.(*token.CustomClaims); ok {
			uploadedBy = claims.UserID
		}
	}

	doc, err := h.referenceService.Upload(c.Request.Context(), fileHeader.Filename, data, uploadedBy)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateReference) {
			c.JSON(http.StatusConflict, gin.H{
				"code":    http.StatusConflict,
				"message": "该参考文献已存在",
			})
			return
		}
		log.Error("Upload: failed to upload reference", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "上传失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "参考文献已接收，正在后台解析",
		"data": gin.H{
			"fileMd5":  doc.FileMD5,
			"fileName": doc.FileName,
			"status":   doc.Status,
		},
	})
}

// List 返回语料库中的全部参考文献。
func (h *ReferenceHandler) List(c *gin.Context) {
	docs, err := h.referenceService.List()
	if err != nil {
		log.Error("List: failed to list references", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
		return
	}
	if docs == nil {
		docs = []model.ReferenceDocument{}
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": docs, "message": "success"})
}

// Delete 删除指定 MD5 的参考文献及其全部派生数据。
func (h *ReferenceHandler) Delete(c *gin.Context) {
	fileMD5 := c.Param("fileMd5")
	if fileMD5 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少文件 MD5"})
		return
	}

	if err := h.referenceService.Delete(c.Request.Context(), fileMD5); err != nil {
		if errors.Is(err, service.ErrReferenceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    http.StatusNotFound,
				"message": "参考文献不存在",
			})
			return
		}
		log.Error("Delete: failed to delete reference", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "删除成功"})
}

// Search 按关键词检索语料库中的参考句子。
func (h *ReferenceHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少查询关键词"})
		return
	}

	size := 10
	if sizeStr := c.Query("size"); sizeStr != "" {
		if n, err := strconv.Atoi(sizeStr); err == nil && n > 0 && n <= 100 {
			size = n
		}
	}

	hits, err := h.referenceService.SearchSentences(c.Request.Context(), query, size)
	if err != nil {
		log.Error("Search: failed to search sentences", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "检索失败"})
		return
	}
	if hits == nil {
		hits = []model.SentenceHit{}
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": hits, "message": "success"})
}

// Package pdf 提供从 PDF 文件中提取内嵌图片的功能。
package pdf

import (
	"bytes"
	"fmt"
	"image/png"

	"plagia-detect-go/pkg/log"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// ExtractImages 解析 PDF 内容并逐页提取内嵌图片，返回 PNG 编码后的字节列表。
// 单页或单图提取失败只记录日志并跳过，不中断整个文件的处理。
func ExtractImages(pdfBytes []byte) ([][]byte, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(pdfBytes))
	if err != nil {
		return nil, fmt.Errorf("解析PDF失败: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("获取PDF页数失败: %w", err)
	}

	var images [][]byte
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			log.Warnf("[PDF] 读取第 %d 页失败: %v", i, err)
			continue
		}

		ex, err := extractor.New(page)
		if err != nil {
			log.Warnf("[PDF] 创建第 %d 页提取器失败: %v", i, err)
			continue
		}

		pageImages, err := ex.ExtractPageImages(nil)
		if err != nil {
			log.Warnf("[PDF] 提取第 %d 页图片失败: %v", i, err)
			continue
		}

		for j, img := range pageImages.Images {
			goImg, err := img.Image.ToGoImage()
			if err != nil {
				log.Warnf("[PDF] 第 %d 页图片 %d 转换失败: %v", i, j, err)
				continue
			}
			var buf bytes.Buffer
			if err := png.Encode(&buf, goImg); err != nil {
				log.Warnf("[PDF] 第 %d 页图片 %d 编码失败: %v", i, j, err)
				continue
			}
			images = append(images, buf.Bytes())
		}
	}

	return images, nil
}

// IsPDF 根据文件魔数判断内容是否为 PDF。
func IsPDF(data []byte) bool {
	return len(data) >= 5 && bytes.Equal(data[:5], []byte("%PDF-"))
}

// Package pipeline 定义了参考文献入库的核心流程。
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"plagia-detect-go/internal/config"
	"plagia-detect-go/internal/model"
	"plagia-detect-go/internal/repository"
	"plagia-detect-go/pkg/embedding"
	"plagia-detect-go/pkg/es"
	"plagia-detect-go/pkg/log"
	"plagia-detect-go/pkg/pdf"
	"plagia-detect-go/pkg/storage"
	"plagia-detect-go/pkg/tasks"
	"plagia-detect-go/pkg/tika"
	"plagia-detect-go/pkg/vision"
)

// Processor 封装了参考文献入库的所有依赖和逻辑。
type Processor struct {
	tikaClient      *tika.Client
	embeddingClient embedding.Client
	visionClient    vision.Client
	esCfg           config.ElasticsearchConfig
	minioCfg        config.MinIOConfig
	embeddingCfg    config.EmbeddingConfig
	refRepo         repository.ReferenceRepository
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	tikaClient *tika.Client,
	embeddingClient embedding.Client,
	visionClient vision.Client,
	esCfg config.ElasticsearchConfig,
	minioCfg config.MinIOConfig,
	embeddingCfg config.EmbeddingConfig,
	refRepo repository.ReferenceRepository,
) *Processor {
	return &Processor{
		tikaClient:      tikaClient,
		embeddingClient: embeddingClient,
		visionClient:    visionClient,
		esCfg:           esCfg,
		minioCfg:        minioCfg,
		embeddingCfg:    embeddingCfg,
		refRepo:         refRepo,
	}
}

// Process 是参考文献入库的主函数：下载、抽取、向量化、落库、索引。
func (p *Processor) Process(ctx context.Context, task tasks.ReferenceIngestTask) error {
	log.Infof("[Processor] 开始入库参考文献, FileMD5: %s, FileName: %s", task.FileMD5, task.FileName)

	err := p.process(ctx, task)
	if err != nil {
		p.markFailed(task.FileMD5)
		return err
	}
	return nil
}

func (p *Processor) process(ctx context.Context, task tasks.ReferenceIngestTask) error {
	// 1. 从 MinIO 下载文件
	log.Infof("[Processor] 步骤1: 从MinIO下载文件, Bucket: %s, Object: %s", p.minioCfg.BucketName, task.ObjectName)
	data, err := storage.GetObjectBytes(ctx, p.minioCfg.BucketName, task.ObjectName)
	if err != nil {
		log.Errorf("[Processor] 从MinIO下载文件失败, Object: %s, Error: %v", task.ObjectName, err)
		return fmt.Errorf("从 MinIO 下载文件失败: %w", err)
	}
	log.Infof("[Processor] 步骤1: 文件下载成功, 大小: %d字节", len(data))
	if len(data) == 0 {
		log.Warnf("[Processor] 文件 '%s' 内容为空, 处理中止", task.FileName)
		return errors.New("文件内容为空")
	}

	// 2. 使用 Tika 提取文本
	log.Info("[Processor] 步骤2: 使用Tika提取文本内容")
	textContent, err := p.tikaClient.ExtractText(ctx, bytes.NewReader(data), task.FileName)
	if err != nil {
		log.Errorf("[Processor] 使用Tika提取文本失败, FileName: %s, Error: %v", task.FileName, err)
		return fmt.Errorf("使用 Tika 提取文本失败: %w", err)
	}
	log.Infof("[Processor] 步骤2: 文本提取成功, 内容长度: %d 字符", utf8.RuneCountInString(textContent))

	// 3. 清洗并切分句子
	sentences := SplitSentences(textContent)
	log.Infof("[Processor] 步骤3: 句子切分完成, 共 %d 条", len(sentences))

	units := make([]*model.ReferenceUnit, 0, len(sentences))

	// 4. 批量向量化句子
	if len(sentences) > 0 {
		log.Info("[Processor] 步骤4: 开始批量向量化句子")
		vectors, err := p.embeddingClient.CreateEmbeddings(ctx, sentences)
		if err != nil {
			log.Errorf("[Processor] 句子向量化失败, Error: %v", err)
			return fmt.Errorf("句子向量化失败: %w", err)
		}
		for i, s := range sentences {
			unit := &model.ReferenceUnit{
				FileMD5:      task.FileMD5,
				Kind:         model.UnitKindText,
				Position:     i,
				Content:      s,
				ModelVersion: p.embeddingCfg.Model,
			}
			if err := unit.SetVector(vectors[i]); err != nil {
				return fmt.Errorf("序列化句子向量失败: %w", err)
			}
			units = append(units, unit)
		}
		log.Infof("[Processor] 步骤4: 向量化完成, 共 %d 个文本单元", len(units))
	} else {
		log.Warnf("[Processor] 未切分出任何句子, FileName: %s", task.FileName)
	}

	// 5. PDF 文件额外提取图片并提取特征
	imageCount := 0
	if pdf.IsPDF(data) {
		log.Info("[Processor] 步骤5: PDF 文件, 开始提取内嵌图片")
		images, err := pdf.ExtractImages(data)
		if err != nil {
			// 图片提取失败只降级, 不阻塞文本入库
			log.Warnf("[Processor] 提取PDF图片失败, 跳过图片单元: %v", err)
		} else {
			for i, img := range images {
				vec, err := p.visionClient.ExtractFeatures(ctx, img)
				if err != nil {
					log.Warnf("[Processor] 图片 %d 特征提取失败, 跳过: %v", i, err)
					continue
				}
				unit := &model.ReferenceUnit{
					FileMD5:  task.FileMD5,
					Kind:     model.UnitKindImage,
					Position: i,
				}
				if err := unit.SetVector(vec); err != nil {
					return fmt.Errorf("序列化图片向量失败: %w", err)
				}
				units = append(units, unit)
				imageCount++
			}
			log.Infof("[Processor] 步骤5: 图片处理完成, 共 %d 个图片单元", imageCount)
		}
	}

	if len(units) == 0 {
		log.Warnf("[Processor] 未产生任何比对单元, 处理中止, FileName: %s", task.FileName)
		return errors.New("未产生任何比对单元")
	}

	// 6. 落库（幂等：先清理旧单元）
	log.Info("[Processor] 步骤6: 写入比对单元到数据库")
	if err := p.refRepo.ReplaceUnits(task.FileMD5, units); err != nil {
		log.Errorf("[Processor] 批量保存比对单元失败, Error: %v", err)
		return fmt.Errorf("批量保存比对单元失败: %w", err)
	}

	// 7. 索引句子到 Elasticsearch（供语料关键词检索）
	log.Info("[Processor] 步骤7: 索引句子到 Elasticsearch")
	for i, s := range sentences {
		esDoc := model.EsSentence{
			SentenceID:   fmt.Sprintf("%s_%d", task.FileMD5, i),
			FileMD5:      task.FileMD5,
			Position:     i,
			TextContent:  s,
			ModelVersion: p.embeddingCfg.Model,
		}
		if err := es.IndexSentence(ctx, p.esCfg.IndexName, esDoc); err != nil {
			log.Errorf("[Processor] 索引句子 %d 到Elasticsearch失败, Error: %v", i, err)
			return fmt.Errorf("索引句子 %d 到 Elasticsearch 失败: %w", i, err)
		}
	}

	// 8. 更新文献状态为就绪
	doc, err := p.refRepo.GetDocumentByMD5(task.FileMD5)
	if err != nil {
		log.Errorf("[Processor] 查询参考文献记录失败, FileMD5: %s, Error: %v", task.FileMD5, err)
		return fmt.Errorf("查询参考文献记录失败: %w", err)
	}
	now := time.Now()
	doc.Status = model.RefStatusReady
	doc.SentenceCount = len(sentences)
	doc.ImageCount = imageCount
	doc.ProcessedAt = &now
	if err := p.refRepo.UpdateDocument(doc); err != nil {
		return fmt.Errorf("更新参考文献状态失败: %w", err)
	}

	log.Infof("[Processor] 参考文献入库成功, FileMD5: %s, 句子: %d, 图片: %d", task.FileMD5, len(sentences), imageCount)
	return nil
}

// markFailed 将文献标记为入库失败；标记本身失败只记录日志。
func (p *Processor) markFailed(fileMD5 string) {
	doc, err := p.refRepo.GetDocumentByMD5(fileMD5)
	if err != nil {
		log.Warnf("[Processor] 标记失败状态时查询记录失败, FileMD5: %s, err=%v", fileMD5, err)
		return
	}
	doc.Status = model.RefStatusFailed
	if err := p.refRepo.UpdateDocument(doc); err != nil {
		log.Warnf("[Processor] 更新失败状态失败, FileMD5: %s, err=%v", fileMD5, err)
	}
}

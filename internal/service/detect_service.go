package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"plagia-detect-go/internal/config"
	"plagia-detect-go/internal/detector"
	"plagia-detect-go/internal/model"
	"plagia-detect-go/internal/pipeline"
	"plagia-detect-go/internal/report"
	"plagia-detect-go/internal/repository"
	"plagia-detect-go/pkg/embedding"
	"plagia-detect-go/pkg/log"
	"plagia-detect-go/pkg/pdf"
	"plagia-detect-go/pkg/storage"
	"plagia-detect-go/pkg/tika"
	"plagia-detect-go/pkg/vision"

	"github.com/go-redis/redis/v8"
)

// ErrEmptyCorpus 表示参考语料库中没有可用的文献。
var ErrEmptyCorpus = errors.New("参考语料库为空")

// DetectService 接口定义了抄袭检测操作。
type DetectService interface {
	Detect(ctx context.Context, fileName string, data []byte) (*report.Report, error)
}

// documentOutcome 是一次检测中单个参考文献的比对结果。
// 失败被显式记录在 Err 上而不是中断整个扫描：单个文献的故障只影响它自己。
type documentOutcome struct {
	FileMD5      string
	TextMatches  []detector.TextMatch
	ImageMatches []detector.ImageMatch
	Err          error
}

type detectService struct {
	tikaClient      *tika.Client
	embeddingClient embedding.Client
	visionClient    vision.Client
	summarizer      report.Summarizer
	refRepo         repository.ReferenceRepository
	redisClient     *redis.Client
	minioCfg        config.MinIOConfig
	detectionCfg    config.DetectionConfig
}

// NewDetectService 创建一个新的 DetectService 实例。
func NewDetectService(
	tikaClient *tika.Client,
	embeddingClient embedding.Client,
	visionClient vision.Client,
	summarizer report.Summarizer,
	refRepo repository.ReferenceRepository,
	redisClient *redis.Client,
	minioCfg config.MinIOConfig,
	detectionCfg config.DetectionConfig,
) DetectService {
	return &detectService{
		tikaClient:      tikaClient,
		embeddingClient: embeddingClient,
		visionClient:    visionClient,
		summarizer:      summarizer,
		refRepo:         refRepo,
		redisClient:     redisClient,
		minioCfg:        minioCfg,
		detectionCfg:    detectionCfg,
	}
}

// Detect 对提交文档执行一次完整的抄袭检测。
// 参考文献按入库顺序顺序扫描；单个文献的比对失败被隔离，不中断整个扫描。
func (s *detectService) Detect(ctx context.Context, fileName string, data []byte) (*report.Report, error) {
	// 整个语料扫描受统一的请求级超时约束
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.detectionCfg.TimeoutSeconds)*time.Second)
	defer cancel()

	log.Infof("[DetectService] 开始检测, FileName: %s, 大小: %d字节", fileName, len(data))

	// 提交文档临时落盘到 MinIO，便于排查；检测结束后无论成败都删除
	fileMD5 := fmt.Sprintf("%x", md5.Sum(data))
	objectName := "uploads/" + fileMD5 + "/" + fileName
	if err := storage.PutObject(ctx, s.minioCfg.BucketName, objectName, data, "application/octet-stream"); err != nil {
		log.Warnf("[DetectService] 提交文档暂存失败, 继续检测: %v", err)
	} else {
		defer func() {
			if err := storage.RemoveObject(context.Background(), s.minioCfg.BucketName, objectName); err != nil {
				log.Warnf("[DetectService] 清理暂存对象失败: %v", err)
			}
		}()
	}

	// 1. 语料库必须非空，否则直接拒绝
	refDocs, err := s.refRepo.ListReadyDocuments()
	if err != nil {
		return nil, fmt.Errorf("查询参考语料库失败: %w", err)
	}
	if len(refDocs) == 0 {
		return nil, ErrEmptyCorpus
	}
	log.Infof("[DetectService] 参考语料库共 %d 个文献", len(refDocs))

	// 2. 提取并向量化提交文档的句子
	subText, err := s.extractSubmissionUnits(ctx, fileMD5, fileName, data)
	if err != nil {
		return nil, err
	}

	// 3. 提取并向量化提交文档的图片；失败降级为 0 张图片而不是报错
	subImages := s.extractSubmissionImages(ctx, data)

	// 4. 顺序扫描语料库，逐文献比对
	var allTextMatches []detector.TextMatch
	var allImageMatches []detector.ImageMatch
	documentsCompared := 0

	for _, refDoc := range refDocs {
		outcome := s.compareAgainst(ctx, refDoc, subText, subImages)
		// 失败文献已产出的匹配仍参与得分，但不计入 documents_compared
		allTextMatches = append(allTextMatches, outcome.TextMatches...)
		allImageMatches = append(allImageMatches, outcome.ImageMatches...)
		if outcome.Err != nil {
			log.Warnf("[DetectService] 参考文献 '%s' 比对失败, 不计入比对数: %v", refDoc.FileName, outcome.Err)
			continue
		}
		documentsCompared++
	}
	// 截止时间在扫描途中耗尽时不返回部分得分的报告
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("检测在扫描完语料库之前超时: %w", err)
	}
	log.Infof("[DetectService] 扫描完成, 比对文献: %d, 文本匹配: %d, 图片匹配: %d",
		documentsCompared, len(allTextMatches), len(allImageMatches))

	// 5. 聚合得分并组装报告
	result := report.Assemble(
		ctx,
		allTextMatches,
		allImageMatches,
		len(subText),
		len(subImages),
		documentsCompared,
		s.summarizer,
		s.detectionCfg.SummaryLanguage,
	)

	log.Infof("[DetectService] 检测完成, combined=%.2f, risk=%s", result.CombinedScore, result.RiskLevel)
	return result, nil
}

// extractSubmissionUnits 提取提交文档的句子并批量向量化。
// 向量结果以文件 MD5 为键缓存在 Redis 中，重复检测同一文件时跳过向量化。
func (s *detectService) extractSubmissionUnits(ctx context.Context, fileMD5, fileName string, data []byte) ([]detector.TextUnit, error) {
	textContent, err := s.tikaClient.ExtractText(ctx, bytes.NewReader(data), fileName)
	if err != nil {
		return nil, fmt.Errorf("提取提交文档文本失败: %w", err)
	}

	sentences := pipeline.SplitSentences(textContent)
	log.Infof("[DetectService] 提交文档切分出 %d 条句子", len(sentences))
	if len(sentences) == 0 {
		return nil, nil
	}

	vectors := s.cachedEmbeddings(ctx, fileMD5, len(sentences))
	if vectors == nil {
		vectors, err = s.embeddingClient.CreateEmbeddings(ctx, sentences)
		if err != nil {
			return nil, fmt.Errorf("提交文档向量化失败: %w", err)
		}
		s.storeEmbeddings(ctx, fileMD5, vectors)
	}

	units := make([]detector.TextUnit, len(sentences))
	for i := range sentences {
		units[i] = detector.TextUnit{Text: sentences[i], Vector: vectors[i]}
	}
	return units, nil
}

// extractSubmissionImages 提取提交文档的图片特征。
// 任何失败都只记录日志并返回空列表：图片得分记为 0，而不是让检测失败。
func (s *detectService) extractSubmissionImages(ctx context.Context, data []byte) []detector.ImageUnit {
	if !pdf.IsPDF(data) {
		return nil
	}

	images, err := pdf.ExtractImages(data)
	if err != nil {
		log.Warnf("[DetectService] 提取提交文档图片失败, 图片得分记为 0: %v", err)
		return nil
	}

	var units []detector.ImageUnit
	for i, img := range images {
		vec, err := s.visionClient.ExtractFeatures(ctx, img)
		if err != nil {
			log.Warnf("[DetectService] 提交文档图片 %d 特征提取失败, 跳过: %v", i, err)
			continue
		}
		units = append(units, detector.ImageUnit{Vector: vec})
	}
	log.Infof("[DetectService] 提交文档共 %d 张有效图片", len(units))
	return units
}

// compareAgainst 对单个参考文献执行文本与图片比对。
// 所有失败都收敛到返回值的 Err 字段上，由调用方决定隔离策略。
func (s *detectService) compareAgainst(
	ctx context.Context,
	refDoc model.ReferenceDocument,
	subText []detector.TextUnit,
	subImages []detector.ImageUnit,
) documentOutcome {
	outcome := documentOutcome{FileMD5: refDoc.FileMD5}

	if err := ctx.Err(); err != nil {
		outcome.Err = err
		return outcome
	}

	refText, err := s.loadUnits(refDoc.FileMD5, model.UnitKindText)
	if err != nil {
		outcome.Err = fmt.Errorf("加载文本单元失败: %w", err)
		return outcome
	}
	refUnits := make([]detector.TextUnit, len(refText))
	for i, u := range refText {
		vec, err := u.GetVector()
		if err != nil {
			outcome.Err = fmt.Errorf("解析句子向量失败 (position=%d): %w", u.Position, err)
			return outcome
		}
		refUnits[i] = detector.TextUnit{Text: u.Content, Vector: vec}
	}
	outcome.TextMatches = detector.MatchTexts(subText, refUnits, refDoc.FileMD5)

	// 图片单元加载失败使该文献整体记为失败（不计入 documents_compared），
	// 但此前已产出的文本匹配保留，照常参与得分计算
	if len(subImages) > 0 && refDoc.ImageCount > 0 {
		refImages, err := s.loadUnits(refDoc.FileMD5, model.UnitKindImage)
		if err != nil {
			outcome.Err = fmt.Errorf("加载图片单元失败: %w", err)
			return outcome
		}
		imageUnits := make([]detector.ImageUnit, 0, len(refImages))
		for _, u := range refImages {
			vec, err := u.GetVector()
			if err != nil {
				log.Warnf("[DetectService] 参考文献 '%s' 图片向量解析失败, 跳过该图片: %v", refDoc.FileName, err)
				continue
			}
			imageUnits = append(imageUnits, detector.ImageUnit{Vector: vec})
		}
		outcome.ImageMatches = detector.MatchImages(subImages, imageUnits, refDoc.FileMD5)
	}

	return outcome
}

func (s *detectService) loadUnits(fileMD5, kind string) ([]model.ReferenceUnit, error) {
	return s.refRepo.FindUnits(fileMD5, kind)
}

// cachedEmbeddings 尝试从 Redis 读取该文件的句子向量缓存。
// 缓存缺失、解析失败或句子数不匹配都按未命中处理。
func (s *detectService) cachedEmbeddings(ctx context.Context, fileMD5 string, expected int) [][]float32 {
	key := embeddingCacheKey(fileMD5)
	raw, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warnf("[DetectService] 读取向量缓存失败: %v", err)
		}
		return nil
	}

	var vectors [][]float32
	if err := json.Unmarshal(raw, &vectors); err != nil || len(vectors) != expected {
		return nil
	}
	log.Infof("[DetectService] 命中向量缓存, FileMD5: %s", fileMD5)
	return vectors
}

// storeEmbeddings 将句子向量写入 Redis 缓存；写入失败只记录日志。
func (s *detectService) storeEmbeddings(ctx context.Context, fileMD5 string, vectors [][]float32) {
	raw, err := json.Marshal(vectors)
	if err != nil {
		return
	}
	ttl := time.Duration(s.detectionCfg.CacheTTLMinutes) * time.Minute
	if err := s.redisClient.Set(ctx, embeddingCacheKey(fileMD5), raw, ttl).Err(); err != nil {
		log.Warnf("[DetectService] 写入向量缓存失败: %v", err)
	}
}

func embeddingCacheKey(fileMD5 string) string {
	return "detect:embeddings:" + fileMD5
}

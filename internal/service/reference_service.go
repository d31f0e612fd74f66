package service

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"

	"plagia-detect-go/internal/config"
	"plagia-detect-go/internal/model"
	"plagia-detect-go/internal/repository"
	"plagia-detect-go/pkg/es"
	"plagia-detect-go/pkg/kafka"
	"plagia-detect-go/pkg/log"
	"plagia-detect-go/pkg/storage"
	"plagia-detect-go/pkg/tasks"

	"gorm.io/gorm"
)

// ErrDuplicateReference 表示同一文件已经入库过（按 MD5 去重）。
var ErrDuplicateReference = errors.New("该参考文献已存在")

// ErrReferenceNotFound 表示指定的参考文献不存在。
var ErrReferenceNotFound = errors.New("参考文献不存在")

// ReferenceService 接口定义了参考语料库的管理操作。
type ReferenceService interface {
	Upload(ctx context.Context, fileName string, data []byte, uploadedBy uint) (*model.ReferenceDocument, error)
	List() ([]model.ReferenceDocument, error)
	Delete(ctx context.Context, fileMD5 string) error
	SearchSentences(ctx context.Context, query string, size int) ([]model.SentenceHit, error)
	CountReady() (int64, error)
}

type referenceService struct {
	refRepo  repository.ReferenceRepository
	minioCfg config.MinIOConfig
	esCfg    config.ElasticsearchConfig
}

// NewReferenceService 创建一个新的 ReferenceService 实例。
func NewReferenceService(refRepo repository.ReferenceRepository, minioCfg config.MinIOConfig, esCfg config.ElasticsearchConfig) ReferenceService {
	return &referenceService{
		refRepo:  refRepo,
		minioCfg: minioCfg,
		esCfg:    esCfg,
	}
}

// Upload 接收参考文献原始文件，落盘到 MinIO 后投递异步解析任务。
// 解析、向量化、索引都由 Kafka 消费者完成，本方法只负责入队。
func (s *referenceService) Upload(ctx context.Context, fileName string, data []byte, uploadedBy uint) (*model.ReferenceDocument, error) {
	fileMD5 := fmt.Sprintf("%x", md5.Sum(data))

	existing, err := s.refRepo.GetDocumentByMD5(fileMD5)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询参考文献失败: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateReference
	}

	objectName := "references/" + fileMD5 + "/" + fileName
	if err := storage.PutObject(ctx, s.minioCfg.BucketName, objectName, data, "application/octet-stream"); err != nil {
		return nil, fmt.Errorf("上传文件到存储失败: %w", err)
	}

	doc := &model.ReferenceDocument{
		FileMD5:    fileMD5,
		FileName:   fileName,
		TotalSize:  int64(len(data)),
		Status:     model.RefStatusProcessing,
		UploadedBy: uploadedBy,
	}
	if err := s.refRepo.CreateDocument(doc); err != nil {
		// 回收已写入的对象，避免产生孤儿文件
		if rmErr := storage.RemoveObject(ctx, s.minioCfg.BucketName, objectName); rmErr != nil {
			log.Warnf("[ReferenceService] 回收存储对象失败: %v", rmErr)
		}
		return nil, fmt.Errorf("创建参考文献记录失败: %w", err)
	}

	task := tasks.ReferenceIngestTask{
		FileMD5:    fileMD5,
		ObjectName: objectName,
		FileName:   fileName,
		UploadedBy: uploadedBy,
	}
	if err := kafka.ProduceIngestTask(task); err != nil {
		return nil, fmt.Errorf("投递解析任务失败: %w", err)
	}

	log.Infof("[ReferenceService] 参考文献已入队, FileMD5: %s, FileName: %s", fileMD5, fileName)
	return doc, nil
}

// List 返回语料库中的全部参考文献（含处理中与失败的）。
func (s *referenceService) List() ([]model.ReferenceDocument, error) {
	return s.refRepo.ListDocuments()
}

// Delete 删除一个参考文献及其全部派生数据：MySQL 记录、ES 索引、MinIO 对象。
func (s *referenceService) Delete(ctx context.Context, fileMD5 string) error {
	doc, err := s.refRepo.GetDocumentByMD5(fileMD5)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReferenceNotFound
		}
		return fmt.Errorf("查询参考文献失败: %w", err)
	}

	if err := s.refRepo.DeleteDocument(fileMD5); err != nil {
		return fmt.Errorf("删除参考文献记录失败: %w", err)
	}

	// ES 与 MinIO 的清理失败不回滚数据库删除，只记录日志
	if err := es.DeleteByFileMD5(ctx, s.esCfg.IndexName, fileMD5); err != nil {
		log.Warnf("[ReferenceService] 清理 ES 索引失败, FileMD5: %s: %v", fileMD5, err)
	}
	objectName := "references/" + fileMD5 + "/" + doc.FileName
	if err := storage.RemoveObject(ctx, s.minioCfg.BucketName, objectName); err != nil {
		log.Warnf("[ReferenceService] 清理存储对象失败, FileMD5: %s: %v", fileMD5, err)
	}

	log.Infof("[ReferenceService] 参考文献已删除, FileMD5: %s", fileMD5)
	return nil
}

// SearchSentences 按关键词在 ES 中检索参考句子，并补全所属文献的文件名。
func (s *referenceService) SearchSentences(ctx context.Context, query string, size int) ([]model.SentenceHit, error) {
	hits, err := es.SearchSentences(ctx, s.esCfg.IndexName, query, size)
	if err != nil {
		return nil, fmt.Errorf("检索参考句子失败: %w", err)
	}

	// ES 文档不存文件名，按 MD5 从 MySQL 补全
	nameByMD5 := make(map[string]string)
	for i := range hits {
		name, ok := nameByMD5[hits[i].FileMD5]
		if !ok {
			doc, err := s.refRepo.GetDocumentByMD5(hits[i].FileMD5)
			if err == nil {
				name = doc.FileName
			}
			nameByMD5[hits[i].FileMD5] = name
		}
		hits[i].FileName = name
	}
	return hits, nil
}

// CountReady 返回可参与检测的参考文献数量。
func (s *referenceService) CountReady() (int64, error) {
	return s.refRepo.CountReadyDocuments()
}

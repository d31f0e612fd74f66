package repository

import (
	"errors"
	"fmt"

	"plagia-detect-go/internal/model"

	"gorm.io/gorm"
)

// ReferenceRepository 接口定义了参考语料库的数据持久化操作。
type ReferenceRepository interface {
	// 文献元数据
	CreateDocument(doc *model.ReferenceDocument) error
	GetDocumentByMD5(fileMD5 string) (*model.ReferenceDocument, error)
	UpdateDocument(doc *model.ReferenceDocument) error
	ListDocuments() ([]model.ReferenceDocument, error)
	ListReadyDocuments() ([]model.ReferenceDocument, error)
	CountReadyDocuments() (int64, error)
	DeleteDocument(fileMD5 string) error

	// 比对单元
	ReplaceUnits(fileMD5 string, units []*model.ReferenceUnit) error
	FindUnits(fileMD5, kind string) ([]model.ReferenceUnit, error)
}

// referenceRepository 是 ReferenceRepository 接口的 GORM 实现。
type referenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository 创建一个新的 ReferenceRepository 实例。
func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

// CreateDocument 在数据库中创建一条参考文献记录。
func (r *referenceRepository) CreateDocument(doc *model.ReferenceDocument) error {
	return r.db.Create(doc).Error
}

// GetDocumentByMD5 按文件 MD5 查找参考文献记录。
func (r *referenceRepository) GetDocumentByMD5(fileMD5 string) (*model.ReferenceDocument, error) {
	var doc model.ReferenceDocument
	err := r.db.Where("file_md5 = ?", fileMD5).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument 更新一条参考文献记录。
func (r *referenceRepository) UpdateDocument(doc *model.ReferenceDocument) error {
	return r.db.Save(doc).Error
}

// ListDocuments 按入库顺序列出全部参考文献。
func (r *referenceRepository) ListDocuments() ([]model.ReferenceDocument, error) {
	var docs []model.ReferenceDocument
	err := r.db.Order("id asc").Find(&docs).Error
	return docs, err
}

// ListReadyDocuments 按入库顺序列出已就绪的参考文献。
// 检测扫描依赖这里的稳定枚举顺序（id 升序）保证结果可复现。
func (r *referenceRepository) ListReadyDocuments() ([]model.ReferenceDocument, error) {
	var docs []model.ReferenceDocument
	err := r.db.Where("status = ?", model.RefStatusReady).Order("id asc").Find(&docs).Error
	return docs, err
}

// CountReadyDocuments 统计已就绪的参考文献数量。
func (r *referenceRepository) CountReadyDocuments() (int64, error) {
	var count int64
	err := r.db.Model(&model.ReferenceDocument{}).Where("status = ?", model.RefStatusReady).Count(&count).Error
	return count, err
}

// DeleteDocument 删除一条参考文献及其全部比对单元。
func (r *referenceRepository) DeleteDocument(fileMD5 string) error {
	var errs []error

	if err := r.db.Where("file_md5 = ?", fileMD5).Delete(&model.ReferenceUnit{}).Error; err != nil {
		errs = append(errs, err)
	}
	if err := r.db.Where("file_md5 = ?", fileMD5).Delete(&model.ReferenceDocument{}).Error; err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("删除参考文献部分失败（fileMD5=%s）: %v", fileMD5, errors.Join(errs...))
	}
	return nil
}

// ReplaceUnits 先清空该文献既有的比对单元再批量写入，保证重复入库幂等。
func (r *referenceRepository) ReplaceUnits(fileMD5 string, units []*model.ReferenceUnit) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_md5 = ?", fileMD5).Delete(&model.ReferenceUnit{}).Error; err != nil {
			return err
		}
		if len(units) == 0 {
			return nil
		}
		return tx.CreateInBatches(units, 200).Error
	})
}

// FindUnits 按位置顺序返回某个文献的比对单元；kind 为空时返回全部。
func (r *referenceRepository) FindUnits(fileMD5, kind string) ([]model.ReferenceUnit, error) {
	var units []model.ReferenceUnit
	q := r.db.Where("file_md5 = ?", fileMD5)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Order("position asc").Find(&units).Error
	return units, err
}

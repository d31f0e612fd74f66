package model

import (
	"encoding/json"
	"time"
)

// 参考文献处理状态。
const (
	RefStatusProcessing = 0
	RefStatusReady      = 1
	RefStatusFailed     = 2
)

// 比对单元类型。
const (
	UnitKindText  = "text"
	UnitKindImage = "image"
)

// ReferenceDocument 对应于数据库中的 'reference_documents' 表。
// 它记录了参考语料库中每个文献的元数据和入库状态。
type ReferenceDocument struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	FileMD5       string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"fileMd5"`
	FileName      string     `gorm:"type:varchar(255);not null" json:"fileName"`
	TotalSize     int64      `gorm:"not null" json:"totalSize"`
	Status        int        `gorm:"type:tinyint;not null;default:0" json:"status"` // 0: processing, 1: ready, 2: failed
	SentenceCount int        `gorm:"not null;default:0" json:"sentenceCount"`
	ImageCount    int        `gorm:"not null;default:0" json:"imageCount"`
	UploadedBy    uint       `gorm:"not null" json:"uploadedBy"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	ProcessedAt   *time.Time `gorm:"default:null" json:"processedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ReferenceDocument) TableName() string {
	return "reference_documents"
}

// ReferenceUnit 对应于数据库中的 'reference_units' 表。
// 一行是一个可比对单元：一条句子或一张图片，连同其向量。
type ReferenceUnit struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FileMD5      string `gorm:"type:varchar(32);not null;index" json:"fileMd5"`
	Kind         string `gorm:"type:varchar(10);not null" json:"kind"` // text | image
	Position     int    `gorm:"not null" json:"position"`
	Content      string `gorm:"type:text" json:"content"` // 句子文本；图片单元为空
	Vector       string `gorm:"type:mediumtext;not null" json:"-"`
	ModelVersion string `gorm:"type:varchar(50)" json:"modelVersion"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ReferenceUnit) TableName() string {
	return "reference_units"
}

// SetVector 将向量序列化为 JSON 存入 Vector 字段。
func (u *ReferenceUnit) SetVector(vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	u.Vector = string(data)
	return nil
}

// GetVector 将 Vector 字段反序列化为向量。
func (u *ReferenceUnit) GetVector() ([]float32, error) {
	var vec []float32
	if err := json.Unmarshal([]byte(u.Vector), &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

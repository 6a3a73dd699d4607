package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TemplateStatusInactive = 0
	TemplateStatusActive   = 1
)

type ReportTemplate struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string         `gorm:"column:name;not null;index" json:"name"`
	Description     string         `gorm:"column:description" json:"description"`
	FileName        string         `gorm:"column:file_name" json:"file_name"`
	FileSize        int64          `gorm:"column:file_size" json:"file_size"`
	FileType        string         `gorm:"column:file_type" json:"file_type"`
	StorageKey      string         `gorm:"column:storage_key" json:"storage_key"`
	APIURL          string         `gorm:"column:api_url" json:"api_url"`
	TransformScript string         `gorm:"column:transform_script;type:text" json:"transform_script"`
	Status          int            `gorm:"column:status;not null;default:1" json:"status"`
	CreatedBy       string         `gorm:"column:created_by" json:"created_by"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ReportTemplate) TableName() string { return "report_template" }

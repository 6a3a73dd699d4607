package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Generation record status. A record is created PENDING before any risky
// I/O and moves to exactly one terminal state at the end of the run.
const (
	GenerationStatusPending = 0
	GenerationStatusSuccess = 1
	GenerationStatusFailed  = 2
)

// Data source tags for a generation run.
const (
	DataSourceAPI    = "API"
	DataSourceManual = "MANUAL"
)

type ReportGeneration struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"template_id"`
	TemplateName string         `gorm:"column:template_name" json:"template_name"`
	RequestData  datatypes.JSON `gorm:"column:request_data;type:jsonb" json:"request_data"`
	ResponseData string         `gorm:"column:response_data;type:text" json:"response_data"`
	DataSource   string         `gorm:"column:data_source" json:"data_source"`
	FileName     string         `gorm:"column:file_name" json:"file_name"`
	FileSize     int64          `gorm:"column:file_size" json:"file_size"`
	StorageKey   string         `gorm:"column:storage_key" json:"storage_key"`
	Status       int            `gorm:"column:status;not null;default:0;index" json:"status"`
	ErrorMessage string         `gorm:"column:error_message;type:text" json:"error_message"`
	ExecutionLog string         `gorm:"column:execution_log;type:text" json:"execution_log"`
	CreatedBy    string         `gorm:"column:created_by" json:"created_by"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ReportGeneration) TableName() string { return "report_generation" }

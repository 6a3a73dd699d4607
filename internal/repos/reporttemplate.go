package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docforge/docforge-backend/internal/logger"
	"github.com/docforge/docforge-backend/internal/types"
)

type ReportTemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, templates []*types.ReportTemplate) ([]*types.ReportTemplate, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ReportTemplate, error)
	List(ctx context.Context, tx *gorm.DB, page, pageSize int, keyword string) ([]*types.ReportTemplate, int64, error)
	Update(ctx context.Context, tx *gorm.DB, template *types.ReportTemplate) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type reportTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportTemplateRepo(db *gorm.DB, baseLog *logger.Logger) ReportTemplateRepo {
	repoLog := baseLog.With("repo", "ReportTemplateRepo")
	return &reportTemplateRepo{db: db, log: repoLog}
}

func (r *reportTemplateRepo) Create(ctx context.Context, tx *gorm.DB, templates []*types.ReportTemplate) ([]*types.ReportTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(templates) == 0 {
		return []*types.ReportTemplate{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *reportTemplateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ReportTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var template types.ReportTemplate
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *reportTemplateRepo) List(ctx context.Context, tx *gorm.DB, page, pageSize int, keyword string) ([]*types.ReportTemplate, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	q := transaction.WithContext(ctx).Model(&types.ReportTemplate{})
	if keyword != "" {
		like := "%" + keyword + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.ReportTemplate
	if err := q.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *reportTemplateRepo) Update(ctx context.Context, tx *gorm.DB, template *types.ReportTemplate) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if template == nil {
		return nil
	}
	return transaction.WithContext(ctx).Save(template).Error
}

func (r *reportTemplateRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.ReportTemplate{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *reportTemplateRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.ReportTemplate{}).Error
}

package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docforge/docforge-backend/internal/logger"
	"github.com/docforge/docforge-backend/internal/types"
)

type ReportGenerationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, generations []*types.ReportGeneration) ([]*types.ReportGeneration, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ReportGeneration, error)
	List(ctx context.Context, tx *gorm.DB, page, pageSize int, templateID *uuid.UUID) ([]*types.ReportGeneration, int64, error)
	Update(ctx context.Context, tx *gorm.DB, generation *types.ReportGeneration) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type reportGenerationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportGenerationRepo(db *gorm.DB, baseLog *logger.Logger) ReportGenerationRepo {
	repoLog := baseLog.With("repo", "ReportGenerationRepo")
	return &reportGenerationRepo{db: db, log: repoLog}
}

func (r *reportGenerationRepo) Create(ctx context.Context, tx *gorm.DB, generations []*types.ReportGeneration) ([]*types.ReportGeneration, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(generations) == 0 {
		return []*types.ReportGeneration{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&generations).Error; err != nil {
		return nil, err
	}
	return generations, nil
}

func (r *reportGenerationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ReportGeneration, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var generation types.ReportGeneration
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&generation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &generation, nil
}

func (r *reportGenerationRepo) List(ctx context.Context, tx *gorm.DB, page, pageSize int, templateID *uuid.UUID) ([]*types.ReportGeneration, int64, error) {
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

	q := transaction.WithContext(ctx).Model(&types.ReportGeneration{})
	if templateID != nil && *templateID != uuid.Nil {
		q = q.Where("template_id = ?", *templateID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.ReportGeneration
	if err := q.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *reportGenerationRepo) Update(ctx context.Context, tx *gorm.DB, generation *types.ReportGeneration) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if generation == nil {
		return nil
	}
	return transaction.WithContext(ctx).Save(generation).Error
}

func (r *reportGenerationRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.ReportGeneration{}).Error
}

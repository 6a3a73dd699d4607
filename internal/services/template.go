package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docforge/docforge-backend/internal/logger"
	"github.com/docforge/docforge-backend/internal/repos"
	"github.com/docforge/docforge-backend/internal/types"
)

type TemplateUpload struct {
	Name            string
	Description     string
	APIURL          string
	TransformScript string
	CreatedBy       string
	FileName        string
	ContentType     string
	FileSize        int64
	File            io.Reader
}

type TemplateService interface {
	Upload(ctx context.Context, in TemplateUpload) (*types.ReportTemplate, error)
	Get(ctx context.Context, id uuid.UUID) (*types.ReportTemplate, error)
	List(ctx context.Context, page, pageSize int, keyword string) ([]*types.ReportTemplate, int64, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, name, description, apiURL, transformScript string) (*types.ReportTemplate, error)
	ReplaceFile(ctx context.Context, id uuid.UUID, fileName, contentType string, fileSize int64, file io.Reader) (*types.ReportTemplate, error)
	Download(ctx context.Context, id uuid.UUID) (*types.ReportTemplate, io.ReadCloser, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type templateService struct {
	db           *gorm.DB
	log          *logger.Logger
	templateRepo repos.ReportTemplateRepo
	bucket       BucketService
}

func NewTemplateService(db *gorm.DB, baseLog *logger.Logger, templateRepo repos.ReportTemplateRepo, bucket BucketService) TemplateService {
	serviceLog := baseLog.With("service", "TemplateService")
	return &templateService{
		db:           db,
		log:          serviceLog,
		templateRepo: templateRepo,
		bucket:       bucket,
	}
}

func templateObjectKey(fileName string) (key, storedName string) {
	storedName = fmt.Sprintf("%d_%s", time.Now().UnixMilli(), fileName)
	return "templates/" + storedName, storedName
}

func (s *templateService) Upload(ctx context.Context, in TemplateUpload) (*types.ReportTemplate, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("template name is required")
	}
	if in.File == nil || in.FileName == "" {
		return nil, fmt.Errorf("template file is required")
	}

	key, storedName := templateObjectKey(in.FileName)
	if err := s.bucket.UploadFile(ctx, BucketCategoryTemplate, key, in.File, in.ContentType); err != nil {
		s.log.Error("template upload to bucket failed", "key", key, "error", err)
		return nil, fmt.Errorf("upload template file: %w", err)
	}

	now := time.Now()
	template := &types.ReportTemplate{
		ID:              uuid.New(),
		Name:            in.Name,
		Description:     in.Description,
		FileName:        storedName,
		FileSize:        in.FileSize,
		FileType:        strings.TrimPrefix(filepath.Ext(in.FileName), "."),
		StorageKey:      key,
		APIURL:          in.APIURL,
		TransformScript: in.TransformScript,
		Status:          types.TemplateStatusActive,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := s.templateRepo.Create(ctx, nil, []*types.ReportTemplate{template}); err != nil {
		s.log.Error("template create failed", "error", err)
		return nil, fmt.Errorf("create template: %w", err)
	}
	s.log.Info("template uploaded", "template_id", template.ID, "key", key)
	return template, nil
}

func (s *templateService) Get(ctx context.Context, id uuid.UUID) (*types.ReportTemplate, error) {
	template, err := s.templateRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}
	return template, nil
}

func (s *templateService) List(ctx context.Context, page, pageSize int, keyword string) ([]*types.ReportTemplate, int64, error) {
	templates, total, err := s.templateRepo.List(ctx, nil, page, pageSize, keyword)
	if err != nil {
		return nil, 0, fmt.Errorf("list templates: %w", err)
	}
	return templates, total, nil
}

func (s *templateService) UpdateMetadata(ctx context.Context, id uuid.UUID, name, description, apiURL, transformScript string) (*types.ReportTemplate, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	template.Name = name
	template.Description = description
	template.APIURL = apiURL
	template.TransformScript = transformScript
	template.UpdatedAt = time.Now()
	if err := s.templateRepo.Update(ctx, nil, template); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return template, nil
}

func (s *templateService) ReplaceFile(ctx context.Context, id uuid.UUID, fileName, contentType string, fileSize int64, file io.Reader) (*types.ReportTemplate, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if file == nil || fileName == "" {
		return nil, fmt.Errorf("template file is required")
	}

	key, storedName := templateObjectKey(fileName)
	if err := s.bucket.UploadFile(ctx, BucketCategoryTemplate, key, file, contentType); err != nil {
		s.log.Error("template file upload failed", "key", key, "error", err)
		return nil, fmt.Errorf("upload template file: %w", err)
	}

	template.FileName = storedName
	template.FileSize = fileSize
	template.FileType = strings.TrimPrefix(filepath.Ext(fileName), ".")
	template.StorageKey = key
	template.UpdatedAt = time.Now()
	if err := s.templateRepo.Update(ctx, nil, template); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return template, nil
}

func (s *templateService) Download(ctx context.Context, id uuid.UUID) (*types.ReportTemplate, io.ReadCloser, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if template.StorageKey == "" {
		return nil, nil, ErrObjectNotFound
	}
	r, err := s.bucket.DownloadFile(ctx, BucketCategoryTemplate, template.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return template, r, nil
}

// Delete removes the stored file best-effort; the metadata row is
// authoritative and is removed regardless of the blob outcome.
func (s *templateService) Delete(ctx context.Context, id uuid.UUID) error {
	template, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if template.StorageKey != "" {
		if err := s.bucket.DeleteFile(ctx, BucketCategoryTemplate, template.StorageKey); err != nil {
			s.log.Warn("template blob delete failed, removing metadata anyway", "key", template.StorageKey, "error", err)
		}
	}
	if err := s.templateRepo.SoftDeleteByID(ctx, nil, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

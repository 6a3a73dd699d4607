package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docforge/docforge-backend/internal/logger"
	"github.com/docforge/docforge-backend/internal/render"
	"github.com/docforge/docforge-backend/internal/repos"
	"github.com/docforge/docforge-backend/internal/trace"
	"github.com/docforge/docforge-backend/internal/types"
)

const generatedContentType = "application/octet-stream"

type GenerationService interface {
	// Generate runs the full pipeline for one template and returns the
	// terminal generation record. The record is persisted PENDING before any
	// risky I/O; a fatal phase failure leaves it FAILED with the trace
	// attached and the error is surfaced to the caller.
	Generate(ctx context.Context, templateID uuid.UUID, params map[string]interface{}, createdBy string) (*types.ReportGeneration, error)
	Get(ctx context.Context, id uuid.UUID) (*types.ReportGeneration, error)
	List(ctx context.Context, page, pageSize int, templateID *uuid.UUID) ([]*types.ReportGeneration, int64, error)
	Download(ctx context.Context, id uuid.UUID) (*types.ReportGeneration, io.ReadCloser, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type generationService struct {
	db                 *gorm.DB
	log                *logger.Logger
	templateRepo       repos.ReportTemplateRepo
	generationRepo     repos.ReportGenerationRepo
	bucket             BucketService
	resolver           DataSourceResolver
	engine             ScriptEngine
	scriptFailureFatal bool
}

func NewGenerationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	templateRepo repos.ReportTemplateRepo,
	generationRepo repos.ReportGenerationRepo,
	bucket BucketService,
	resolver DataSourceResolver,
	engine ScriptEngine,
	scriptFailureFatal bool,
) GenerationService {
	serviceLog := baseLog.With("service", "GenerationService")
	return &generationService{
		db:                 db,
		log:                serviceLog,
		templateRepo:       templateRepo,
		generationRepo:     generationRepo,
		bucket:             bucket,
		resolver:           resolver,
		engine:             engine,
		scriptFailureFatal: scriptFailureFatal,
	}
}

func (s *generationService) Generate(ctx context.Context, templateID uuid.UUID, params map[string]interface{}, createdBy string) (*types.ReportGeneration, error) {
	template, err := s.templateRepo.GetByID(ctx, nil, templateID)
	if err != nil {
		return nil, fmt.Errorf("resolve template: %w", err)
	}
	if template == nil {
		// No partial record for a nonexistent template.
		return nil, ErrTemplateNotFound
	}

	rec := trace.NewRecorder()
	params, useAPI := ExtractUseAPIFlag(params)

	requestData, err := json.Marshal(params)
	if err != nil {
		requestData = []byte("{}")
	}

	fileName := time.Now().UTC().Format("2006-01-02T15-04-05.000") + "_" + template.FileName
	objectKey := fmt.Sprintf("generated/%s/%s", template.ID, fileName)

	now := time.Now()
	generation := &types.ReportGeneration{
		ID:           uuid.New(),
		TemplateID:   template.ID,
		TemplateName: template.Name,
		RequestData:  datatypes.JSON(requestData),
		Status:       types.GenerationStatusPending,
		FileName:     fileName,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	rec.Info(fmt.Sprintf("starting report generation, template %s (%s)", template.ID, template.Name))
	if useAPI && strings.TrimSpace(template.APIURL) != "" {
		rec.Info("data source: API")
	} else {
		rec.Info("data source: manual input")
	}
	rec.Debug(fmt.Sprintf("request parameters: %s", requestData))

	// Persist the PENDING record before any network or scripting I/O so a
	// crash mid-pipeline still leaves an auditable record.
	if _, err := s.generationRepo.Create(ctx, nil, []*types.ReportGeneration{generation}); err != nil {
		return nil, fmt.Errorf("create generation record: %w", err)
	}

	// 1. Data acquisition with fallback. Never fatal.
	resolved := s.resolver.Resolve(ctx, template.APIURL, useAPI, params, rec)
	generation.DataSource = resolved.Source
	generation.ResponseData = resolved.ResponseData

	// 2. Transform script. Degrades to the resolved data on failure unless
	// configured to treat a failed script as fatal.
	payload := resolved.Data
	cfg := render.NewConfig()
	if strings.TrimSpace(template.TransformScript) != "" {
		rec.Info("executing transform script")
		transformed, scriptErr := s.engine.Execute(ctx, template.TransformScript, resolved.Data, params, cfg, rec)
		if scriptErr != nil && s.scriptFailureFatal {
			return generation, s.fail(ctx, generation, rec, fmt.Errorf("transform script failed: %w", scriptErr))
		}
		payload = transformed
		rec.Info("transform script stage complete")
	} else {
		rec.Info("no transform script configured, using resolved data")
	}

	// 3. Infer row-expansion policies for list-typed payload fields.
	render.Infer(payload, cfg, rec)

	// 4. Compile and render the document.
	rec.Info("rendering document")
	templateBytes, err := s.fetchTemplateBytes(ctx, template)
	if err != nil {
		return generation, s.fail(ctx, generation, rec, err)
	}
	compiled, err := render.Compile(templateBytes, cfg)
	if err != nil {
		return generation, s.fail(ctx, generation, rec, fmt.Errorf("compile template: %w", err))
	}
	output, err := compiled.Render(payload)
	if err != nil {
		return generation, s.fail(ctx, generation, rec, fmt.Errorf("render document: %w", err))
	}
	rec.Info(fmt.Sprintf("document rendered, %d bytes", len(output)))

	// 5. Persist the artifact.
	if err := s.bucket.UploadFile(ctx, BucketCategoryGenerated, objectKey, bytes.NewReader(output), generatedContentType); err != nil {
		return generation, s.fail(ctx, generation, rec, fmt.Errorf("store generated document: %w", err))
	}

	generation.StorageKey = objectKey
	generation.FileSize = int64(len(output))
	generation.Status = types.GenerationStatusSuccess
	rec.Info("report generation succeeded")
	generation.ExecutionLog = rec.Render()
	generation.UpdatedAt = time.Now()
	if err := s.generationRepo.Update(ctx, nil, generation); err != nil {
		s.log.Error("failed to persist successful generation record", "generation_id", generation.ID, "error", err)
		return nil, fmt.Errorf("update generation record: %w", err)
	}

	s.log.Info("report generated", "generation_id", generation.ID, "template_id", template.ID, "key", objectKey)
	return generation, nil
}

func (s *generationService) fetchTemplateBytes(ctx context.Context, template *types.ReportTemplate) ([]byte, error) {
	if template.StorageKey == "" {
		return nil, fmt.Errorf("template %s has no stored file", template.ID)
	}
	r, err := s.bucket.DownloadFile(ctx, BucketCategoryTemplate, template.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("fetch template file: %w", err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read template file: %w", err)
	}
	return b, nil
}

// fail moves the record to its terminal FAILED state with the accumulated
// trace attached and surfaces the triggering error to the caller.
func (s *generationService) fail(ctx context.Context, generation *types.ReportGeneration, rec *trace.Recorder, cause error) error {
	s.log.Error("report generation failed", "generation_id", generation.ID, "error", cause)
	rec.ErrorWith("report generation failed: "+cause.Error(), cause)
	generation.Status = types.GenerationStatusFailed
	generation.ErrorMessage = cause.Error()
	generation.ExecutionLog = rec.Render()
	generation.UpdatedAt = time.Now()
	if err := s.generationRepo.Update(ctx, nil, generation); err != nil {
		s.log.Error("failed to persist failed generation record", "generation_id", generation.ID, "error", err)
	}
	return fmt.Errorf("generate report: %w", cause)
}

func (s *generationService) Get(ctx context.Context, id uuid.UUID) (*types.ReportGeneration, error) {
	generation, err := s.generationRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("get generation record: %w", err)
	}
	if generation == nil {
		return nil, ErrGenerationNotFound
	}
	return generation, nil
}

func (s *generationService) List(ctx context.Context, page, pageSize int, templateID *uuid.UUID) ([]*types.ReportGeneration, int64, error) {
	generations, total, err := s.generationRepo.List(ctx, nil, page, pageSize, templateID)
	if err != nil {
		return nil, 0, fmt.Errorf("list generation records: %w", err)
	}
	return generations, total, nil
}

func (s *generationService) Download(ctx context.Context, id uuid.UUID) (*types.ReportGeneration, io.ReadCloser, error) {
	generation, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if generation.StorageKey == "" {
		return nil, nil, ErrObjectNotFound
	}
	r, err := s.bucket.DownloadFile(ctx, BucketCategoryGenerated, generation.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return generation, r, nil
}

// Delete removes the stored artifact best-effort, then the metadata row.
// Deleting an already-deleted record reports not-found.
func (s *generationService) Delete(ctx context.Context, id uuid.UUID) error {
	generation, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if generation.StorageKey != "" {
		if err := s.bucket.DeleteFile(ctx, BucketCategoryGenerated, generation.StorageKey); err != nil {
			s.log.Warn("generated blob delete failed, removing metadata anyway", "key", generation.StorageKey, "error", err)
		}
	}
	if err := s.generationRepo.SoftDeleteByID(ctx, nil, id); err != nil {
		return fmt.Errorf("delete generation record: %w", err)
	}
	return nil
}

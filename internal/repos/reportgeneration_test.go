package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/docforge/docforge-backend/internal/repos/testutil"
	"github.com/docforge/docforge-backend/internal/types"
)

func newGeneration(templateID uuid.UUID, status int, createdAt time.Time) *types.ReportGeneration {
	return &types.ReportGeneration{
		ID:           uuid.New(),
		TemplateID:   templateID,
		TemplateName: "sales",
		RequestData:  datatypes.JSON([]byte(`{"a":1}`)),
		DataSource:   types.DataSourceManual,
		FileName:     "out.docx",
		Status:       status,
		CreatedBy:    "tester",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func TestReportGenerationRepoCreateAndGet(t *testing.T) {
	repo := NewReportGenerationRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	gen := newGeneration(uuid.New(), types.GenerationStatusPending, time.Now())
	if _, err := repo.Create(ctx, nil, []*types.ReportGeneration{gen}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, gen.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Status != types.GenerationStatusPending {
		t.Fatalf("got=%+v", got)
	}
	if string(got.RequestData) != `{"a":1}` {
		t.Fatalf("request data=%s", got.RequestData)
	}

	missing, err := repo.GetByID(ctx, nil, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("unknown id should return nil, nil: %v %v", missing, err)
	}
}

func TestReportGenerationRepoStatusTransition(t *testing.T) {
	repo := NewReportGenerationRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	gen := newGeneration(uuid.New(), types.GenerationStatusPending, time.Now())
	if _, err := repo.Create(ctx, nil, []*types.ReportGeneration{gen}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	gen.Status = types.GenerationStatusSuccess
	gen.StorageKey = "generated/x/out.docx"
	gen.FileSize = 128
	gen.ExecutionLog = "[ts] [INFO] done"
	if err := repo.Update(ctx, nil, gen); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, nil, gen.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v %v", got, err)
	}
	if got.Status != types.GenerationStatusSuccess || got.StorageKey == "" || got.ExecutionLog == "" {
		t.Fatalf("got=%+v", got)
	}
}

func TestReportGenerationRepoListByTemplate(t *testing.T) {
	repo := NewReportGenerationRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	t1 := uuid.New()
	t2 := uuid.New()
	base := time.Now().Add(-time.Hour)
	seed := []*types.ReportGeneration{
		newGeneration(t1, types.GenerationStatusSuccess, base),
		newGeneration(t1, types.GenerationStatusFailed, base.Add(time.Minute)),
		newGeneration(t2, types.GenerationStatusSuccess, base.Add(2*time.Minute)),
	}
	if _, err := repo.Create(ctx, nil, seed); err != nil {
		t.Fatalf("Create: %v", err)
	}

	all, total, err := repo.List(ctx, nil, 1, 10, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("total=%d len=%d", total, len(all))
	}
	if all[0].TemplateID != t2 {
		t.Fatalf("expected newest row first")
	}

	filtered, total, err := repo.List(ctx, nil, 1, 10, &t1)
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if total != 2 || len(filtered) != 2 {
		t.Fatalf("filtered total=%d len=%d", total, len(filtered))
	}
	for _, g := range filtered {
		if g.TemplateID != t1 {
			t.Fatalf("row for wrong template: %+v", g)
		}
	}

	// A nil-uuid filter behaves like no filter.
	nilID := uuid.Nil
	_, total, err = repo.List(ctx, nil, 1, 10, &nilID)
	if err != nil {
		t.Fatalf("List nil filter: %v", err)
	}
	if total != 3 {
		t.Fatalf("nil filter total=%d, want 3", total)
	}
}

func TestReportGenerationRepoSoftDelete(t *testing.T) {
	repo := NewReportGenerationRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	gen := newGeneration(uuid.New(), types.GenerationStatusSuccess, time.Now())
	if _, err := repo.Create(ctx, nil, []*types.ReportGeneration{gen}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.SoftDeleteByID(ctx, nil, gen.ID); err != nil {
		t.Fatalf("SoftDeleteByID: %v", err)
	}
	got, err := repo.GetByID(ctx, nil, gen.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("soft-deleted row still visible: %+v", got)
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docforge/docforge-backend/internal/logger"
	"github.com/docforge/docforge-backend/internal/middleware"
	"github.com/docforge/docforge-backend/internal/services"
	"github.com/docforge/docforge-backend/internal/types"
)

type fakeGenerationService struct {
	generateFn func(ctx context.Context, templateID uuid.UUID, params map[string]interface{}, createdBy string) (*types.ReportGeneration, error)
	getFn      func(ctx context.Context, id uuid.UUID) (*types.ReportGeneration, error)
	deleteFn   func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeGenerationService) Generate(ctx context.Context, templateID uuid.UUID, params map[string]interface{}, createdBy string) (*types.ReportGeneration, error) {
	return f.generateFn(ctx, templateID, params, createdBy)
}

func (f *fakeGenerationService) Get(ctx context.Context, id uuid.UUID) (*types.ReportGeneration, error) {
	return f.getFn(ctx, id)
}

func (f *fakeGenerationService) List(ctx context.Context, page, pageSize int, templateID *uuid.UUID) ([]*types.ReportGeneration, int64, error) {
	return []*types.ReportGeneration{}, 0, nil
}

func (f *fakeGenerationService) Download(ctx context.Context, id uuid.UUID) (*types.ReportGeneration, io.ReadCloser, error) {
	return nil, nil, services.ErrGenerationNotFound
}

func (f *fakeGenerationService) Delete(ctx context.Context, id uuid.UUID) error {
	return f.deleteFn(ctx, id)
}

func newGenerationRouter(t *testing.T, svc services.GenerationService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	h := NewGenerationHandler(log, svc)
	im := middleware.NewIdentityMiddleware(log)

	r := gin.New()
	api := r.Group("/api")
	api.Use(im.Resolve())
	api.POST("/generations", h.Generate)
	api.GET("/generations/:id", h.Get)
	api.DELETE("/generations/:id", h.Delete)
	return r
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
	}
	return env
}

func TestGenerateEndpointSuccessEnvelope(t *testing.T) {
	templateID := uuid.New()
	var gotActor string
	svc := &fakeGenerationService{
		generateFn: func(ctx context.Context, id uuid.UUID, params map[string]interface{}, createdBy string) (*types.ReportGeneration, error) {
			gotActor = createdBy
			if id != templateID {
				t.Errorf("template id=%s, want %s", id, templateID)
			}
			if params["a"] != float64(1) {
				t.Errorf("params=%v", params)
			}
			return &types.ReportGeneration{ID: uuid.New(), TemplateID: id, Status: types.GenerationStatusSuccess}, nil
		},
	}
	r := newGenerationRouter(t, svc)

	body, _ := json.Marshal(map[string]interface{}{
		"template_id": templateID,
		"params":      map[string]interface{}{"a": 1},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/generations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if !env.Success || env.Message != "report generated" {
		t.Fatalf("envelope=%+v", env)
	}
	if gotActor != "alice" {
		t.Fatalf("actor=%q, want alice", gotActor)
	}
}

func TestGenerateEndpointDefaultActor(t *testing.T) {
	var gotActor string
	svc := &fakeGenerationService{
		generateFn: func(ctx context.Context, id uuid.UUID, params map[string]interface{}, createdBy string) (*types.ReportGeneration, error) {
			gotActor = createdBy
			return &types.ReportGeneration{ID: uuid.New()}, nil
		},
	}
	r := newGenerationRouter(t, svc)

	body, _ := json.Marshal(map[string]interface{}{"template_id": uuid.New()})
	req := httptest.NewRequest(http.MethodPost, "/api/generations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if gotActor != "admin" {
		t.Fatalf("actor=%q, want default admin", gotActor)
	}
}

func TestGenerateEndpointValidation(t *testing.T) {
	r := newGenerationRouter(t, &fakeGenerationService{})

	req := httptest.NewRequest(http.MethodPost, "/api/generations", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Success {
		t.Fatalf("envelope should report failure: %+v", env)
	}
}

func TestGetEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found maps to 404", services.ErrGenerationNotFound, http.StatusNotFound},
		{"other errors map to 500", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeGenerationService{
				getFn: func(ctx context.Context, id uuid.UUID) (*types.ReportGeneration, error) {
					return nil, tc.err
				},
			}
			r := newGenerationRouter(t, svc)

			req := httptest.NewRequest(http.MethodGet, "/api/generations/"+uuid.NewString(), nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status=%d, want %d", w.Code, tc.wantStatus)
			}
			env := decodeEnvelope(t, w)
			if env.Success || env.Message == "" {
				t.Fatalf("envelope=%+v", env)
			}
		})
	}
}

func TestGetEndpointInvalidID(t *testing.T) {
	r := newGenerationRouter(t, &fakeGenerationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/generations/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", w.Code)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	deleted := false
	svc := &fakeGenerationService{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	r := newGenerationRouter(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/generations/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !deleted {
		t.Fatalf("status=%d deleted=%v", w.Code, deleted)
	}
	if env := decodeEnvelope(t, w); !env.Success {
		t.Fatalf("envelope=%+v", env)
	}
}

package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docforge/docforge-backend/internal/logger"
	"github.com/docforge/docforge-backend/internal/middleware"
	"github.com/docforge/docforge-backend/internal/services"
)

type GenerationHandler struct {
	log               *logger.Logger
	generationService services.GenerationService
}

func NewGenerationHandler(log *logger.Logger, gsvc services.GenerationService) *GenerationHandler {
	return &GenerationHandler{
		log:               log.With("handler", "GenerationHandler"),
		generationService: gsvc,
	}
}

// POST /api/generations
func (h *GenerationHandler) Generate(c *gin.Context) {
	var body struct {
		TemplateID uuid.UUID              `json:"template_id" binding:"required"`
		Params     map[string]interface{} `json:"params"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, err)
		return
	}

	generation, err := h.generationService.Generate(c.Request.Context(), body.TemplateID, body.Params, middleware.Actor(c))
	if err != nil {
		// A failed run may still carry a persisted FAILED record worth
		// returning, but the envelope reports the failure.
		RespondServiceError(c, err)
		return
	}
	RespondOKMessage(c, "report generated", generation)
}

// GET /api/generations?page=&page_size=&template_id=
func (h *GenerationHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	var templateID *uuid.UUID
	if raw := c.Query("template_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid template id"))
			return
		}
		templateID = &id
	}

	generations, total, err := h.generationService.List(c.Request.Context(), page, pageSize, templateID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondList(c, generations, total)
}

// GET /api/generations/:id
func (h *GenerationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid generation id"))
		return
	}
	generation, err := h.generationService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, generation)
}

// GET /api/generations/:id/download
func (h *GenerationHandler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid generation id"))
		return
	}
	generation, reader, err := h.generationService.Download(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", url.PathEscape(generation.FileName)))
	c.DataFromReader(http.StatusOK, generation.FileSize, "application/octet-stream", reader, nil)
}

// DELETE /api/generations/:id
func (h *GenerationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid generation id"))
		return
	}
	if err := h.generationService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOKMessage(c, "generation record deleted", nil)
}

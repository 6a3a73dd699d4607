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

type TemplateHandler struct {
	log             *logger.Logger
	templateService services.TemplateService
}

func NewTemplateHandler(log *logger.Logger, tsvc services.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		log:             log.With("handler", "TemplateHandler"),
		templateService: tsvc,
	}
}

// POST /api/templates (multipart: file + metadata fields)
func (h *TemplateHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("template file is required"))
		return
	}
	name := c.PostForm("name")
	if name == "" {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("template name is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("open uploaded file: %w", err))
		return
	}
	defer file.Close()

	template, err := h.templateService.Upload(c.Request.Context(), services.TemplateUpload{
		Name:            name,
		Description:     c.PostForm("description"),
		APIURL:          c.PostForm("api_url"),
		TransformScript: c.PostForm("transform_script"),
		CreatedBy:       middleware.Actor(c),
		FileName:        fileHeader.Filename,
		ContentType:     fileHeader.Header.Get("Content-Type"),
		FileSize:        fileHeader.Size,
		File:            file,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOKMessage(c, "template uploaded", template)
}

// GET /api/templates?page=&page_size=&keyword=
func (h *TemplateHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	templates, total, err := h.templateService.List(c.Request.Context(), page, pageSize, c.Query("keyword"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondList(c, templates, total)
}

// GET /api/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid template id"))
		return
	}
	template, err := h.templateService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, template)
}

// PUT /api/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid template id"))
		return
	}
	var body struct {
		Name            string `json:"name" binding:"required"`
		Description     string `json:"description"`
		APIURL          string `json:"api_url"`
		TransformScript string `json:"transform_script"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, err)
		return
	}
	template, err := h.templateService.UpdateMetadata(c.Request.Context(), id, body.Name, body.Description, body.APIURL, body.TransformScript)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOKMessage(c, "template updated", template)
}

// PUT /api/templates/:id/file (multipart)
func (h *TemplateHandler) ReplaceFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid template id"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("template file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("open uploaded file: %w", err))
		return
	}
	defer file.Close()

	template, err := h.templateService.ReplaceFile(c.Request.Context(), id, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, file)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOKMessage(c, "template file updated", template)
}

// DELETE /api/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid template id"))
		return
	}
	if err := h.templateService.Delete(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOKMessage(c, "template deleted", nil)
}

// GET /api/templates/:id/download
func (h *TemplateHandler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid template id"))
		return
	}
	template, reader, err := h.templateService.Download(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", url.PathEscape(template.FileName)))
	c.DataFromReader(http.StatusOK, template.FileSize, "application/octet-stream", reader, nil)
}

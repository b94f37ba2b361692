package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/internal/service"
	"github.com/cursada/planner-api/pkg/response"
)

type catalogService interface {
	ListUniversities(ctx context.Context) ([]models.University, error)
	ListCareers(ctx context.Context, universityID int64) ([]models.Career, error)
	ListSubjects(ctx context.Context, careerID int64) ([]models.Subject, error)
	GetSubject(ctx context.Context, id int64) (*models.SubjectDetail, error)
	ListPrerequisites(ctx context.Context, subjectID int64) ([]models.PrerequisiteDetail, error)
	FindOrCreateSubjectByName(ctx context.Context, req service.ResolveSubjectRequest) (*models.Subject, bool, error)
}

// CatalogHandler serves universities, careers and subjects.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListUniversities godoc
// @Summary List universities with their careers
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /universities [get]
func (h *CatalogHandler) ListUniversities(c *gin.Context) {
	universities, err := h.service.ListUniversities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, universities, nil)
}

// ListCareers godoc
// @Summary List careers of a university
// @Tags Catalog
// @Produce json
// @Param id path int true "University ID"
// @Success 200 {object} response.Envelope
// @Router /universities/{id}/careers [get]
func (h *CatalogHandler) ListCareers(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	careers, err := h.service.ListCareers(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, careers, nil)
}

// ListSubjects godoc
// @Summary List subjects of a career ordered by number
// @Tags Catalog
// @Produce json
// @Param id path int true "Career ID"
// @Success 200 {object} response.Envelope
// @Router /careers/{id}/subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	subjects, err := h.service.ListSubjects(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// GetSubject godoc
// @Summary Get a subject with its prerequisites
// @Tags Catalog
// @Produce json
// @Param id path int true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *CatalogHandler) GetSubject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	subject, err := h.service.GetSubject(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// ListPrerequisites godoc
// @Summary List the prerequisite edges of a subject
// @Tags Catalog
// @Produce json
// @Param id path int true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/prerequisites [get]
func (h *CatalogHandler) ListPrerequisites(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	edges, err := h.service.ListPrerequisites(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, edges, nil)
}

// ResolveSubject godoc
// @Summary Find a subject by exact name or create it without career
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ResolveSubjectRequest true "Subject name"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /subjects/resolve [post]
func (h *CatalogHandler) ResolveSubject(c *gin.Context) {
	if _, ok := principalFromContext(c); !ok {
		return
	}
	var req service.ResolveSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	subject, created, err := h.service.FindOrCreateSubjectByName(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, subject)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/internal/service"
	"github.com/cursada/planner-api/pkg/response"
)

type profileService interface {
	Me(ctx context.Context, principal models.Principal) (*models.UserProfile, error)
	SelectCareer(ctx context.Context, principal models.Principal, req service.SelectCareerRequest) (*models.UserProfile, error)
	ClearCareer(ctx context.Context, principal models.Principal) (*models.UserProfile, error)
}

type planService interface {
	AddSubject(ctx context.Context, principal models.Principal, req service.AddUserSubjectRequest) (*models.UserSubject, error)
	UpdateStatus(ctx context.Context, principal models.Principal, subjectID int64, req service.UpdateUserSubjectRequest) (*models.UserSubject, error)
	RemoveSubject(ctx context.Context, principal models.Principal, subjectID int64) error
	ListUserSubjects(ctx context.Context, principal models.Principal) ([]models.UserSubjectDetail, error)
	ListAvailableSubjects(ctx context.Context, principal models.Principal) ([]models.Subject, error)
	Progress(ctx context.Context, principal models.Principal) (*models.StudyProgress, error)
}

type planExporter interface {
	Plan(ctx context.Context, principal models.Principal, format string) (*service.ExportFile, error)
}

// MeHandler serves the caller's profile and study plan.
type MeHandler struct {
	profiles profileService
	plan     planService
	exporter planExporter
}

// NewMeHandler constructs a handler for /me routes.
func NewMeHandler(profiles profileService, plan planService, exporter planExporter) *MeHandler {
	return &MeHandler{profiles: profiles, plan: plan, exporter: exporter}
}

// Profile godoc
// @Summary Current user profile
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me [get]
func (h *MeHandler) Profile(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	profile, err := h.profiles.Me(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// SelectCareer godoc
// @Summary Select the active career
// @Tags Me
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SelectCareerRequest true "Career"
// @Success 200 {object} response.Envelope
// @Router /me/career [put]
func (h *MeHandler) SelectCareer(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req service.SelectCareerRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.profiles.SelectCareer(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// ClearCareer godoc
// @Summary Clear the active career
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/career [delete]
func (h *MeHandler) ClearCareer(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	profile, err := h.profiles.ClearCareer(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Progress godoc
// @Summary Study plan progress by status
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/progress [get]
func (h *MeHandler) Progress(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	progress, err := h.plan.Progress(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// ListSubjects godoc
// @Summary Subjects tracked by the caller
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/subjects [get]
func (h *MeHandler) ListSubjects(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	subjects, err := h.plan.ListUserSubjects(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// AddSubject godoc
// @Summary Start tracking a subject
// @Tags Me
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AddUserSubjectRequest true "Subject"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /me/subjects [post]
func (h *MeHandler) AddSubject(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req service.AddUserSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.plan.AddSubject(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// UpdateSubject godoc
// @Summary Update status or schedule of a tracked subject
// @Tags Me
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subjectId path int true "Subject ID"
// @Param payload body service.UpdateUserSubjectRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /me/subjects/{subjectId} [patch]
func (h *MeHandler) UpdateSubject(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	subjectID, ok := idParam(c, "subjectId")
	if !ok {
		return
	}
	var req service.UpdateUserSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.plan.UpdateStatus(c.Request.Context(), principal, subjectID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// RemoveSubject godoc
// @Summary Stop tracking a subject
// @Tags Me
// @Security BearerAuth
// @Param subjectId path int true "Subject ID"
// @Success 204
// @Router /me/subjects/{subjectId} [delete]
func (h *MeHandler) RemoveSubject(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	subjectID, ok := idParam(c, "subjectId")
	if !ok {
		return
	}
	if err := h.plan.RemoveSubject(c.Request.Context(), principal, subjectID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AvailableSubjects godoc
// @Summary Subjects of the selected career not yet tracked
// @Tags Me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/available-subjects [get]
func (h *MeHandler) AvailableSubjects(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	subjects, err := h.plan.ListAvailableSubjects(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// ExportPlan godoc
// @Summary Download the study plan
// @Tags Me
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /me/plan/export [get]
func (h *MeHandler) ExportPlan(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	file, err := h.exporter.Plan(c.Request.Context(), principal, c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.ContentType, file.Filename, file.Body)
}

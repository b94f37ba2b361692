package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/internal/service"
	"github.com/cursada/planner-api/pkg/response"
)

type ratingService interface {
	Create(ctx context.Context, principal models.Principal, subjectID int64, req service.CreateRatingRequest) (*models.Rating, error)
	Update(ctx context.Context, principal models.Principal, id string, req service.UpdateRatingRequest) (*models.Rating, error)
	Delete(ctx context.Context, principal models.Principal, id string) error
	ListBySubject(ctx context.Context, subjectID int64, page, size int) ([]models.Rating, *models.Pagination, error)
	Summary(ctx context.Context, subjectID int64) (*models.RatingSummary, error)
	Vote(ctx context.Context, principal models.Principal, id string, req service.VoteRequest) (*models.VoteResult, error)
	Report(ctx context.Context, principal models.Principal, id string, req service.ReportRequest) (*models.PostCounters, error)
}

// RatingHandler serves subject ratings.
type RatingHandler struct {
	service ratingService
}

// NewRatingHandler constructs a rating handler.
func NewRatingHandler(svc ratingService) *RatingHandler {
	return &RatingHandler{service: svc}
}

// List godoc
// @Summary List ratings of a subject, most useful first
// @Tags Ratings
// @Produce json
// @Param id path int true "Subject ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/ratings [get]
func (h *RatingHandler) List(c *gin.Context) {
	subjectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	page, size := pageParams(c)
	ratings, pagination, err := h.service.ListBySubject(c.Request.Context(), subjectID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ratings, pagination)
}

// Summary godoc
// @Summary Rating count and average of a subject
// @Tags Ratings
// @Produce json
// @Param id path int true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/ratings/summary [get]
func (h *RatingHandler) Summary(c *gin.Context) {
	subjectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), subjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Create godoc
// @Summary Rate a subject
// @Tags Ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Param payload body service.CreateRatingRequest true "Rating"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /subjects/{id}/ratings [post]
func (h *RatingHandler) Create(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	subjectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.CreateRatingRequest
	if !bindJSON(c, &req) {
		return
	}
	rating, err := h.service.Create(c.Request.Context(), principal, subjectID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rating)
}

// Update godoc
// @Summary Edit your rating
// @Tags Ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rating ID"
// @Param payload body service.UpdateRatingRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /ratings/{id} [put]
func (h *RatingHandler) Update(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateRatingRequest
	if !bindJSON(c, &req) {
		return
	}
	rating, err := h.service.Update(c.Request.Context(), principal, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rating, nil)
}

// Delete godoc
// @Summary Delete your rating
// @Tags Ratings
// @Security BearerAuth
// @Param id path string true "Rating ID"
// @Success 204
// @Router /ratings/{id} [delete]
func (h *RatingHandler) Delete(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), principal, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Vote godoc
// @Summary Vote a rating useful or not useful; repeating a vote removes it
// @Tags Ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rating ID"
// @Param payload body service.VoteRequest true "Vote"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /ratings/{id}/votes [post]
func (h *RatingHandler) Vote(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.VoteRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.Vote(c.Request.Context(), principal, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Report godoc
// @Summary Report a rating
// @Tags Ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rating ID"
// @Param payload body service.ReportRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ratings/{id}/reports [post]
func (h *RatingHandler) Report(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.ReportRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	counters, err := h.service.Report(c.Request.Context(), principal, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counters, nil)
}

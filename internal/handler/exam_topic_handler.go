package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/internal/service"
	"github.com/cursada/planner-api/pkg/response"
)

type examTopicService interface {
	Create(ctx context.Context, principal models.Principal, subjectID int64, req service.CreateExamTopicRequest) (*models.ExamTopic, error)
	Update(ctx context.Context, principal models.Principal, id string, req service.UpdateExamTopicRequest) (*models.ExamTopic, error)
	Delete(ctx context.Context, principal models.Principal, id string) error
	ListBySubject(ctx context.Context, subjectID int64, page, size int) ([]models.ExamTopic, *models.Pagination, error)
	Vote(ctx context.Context, principal models.Principal, id string, req service.VoteRequest) (*models.VoteResult, error)
	Report(ctx context.Context, principal models.Principal, id string, req service.ReportRequest) (*models.PostCounters, error)
}

// ExamTopicHandler serves exam-topic posts.
type ExamTopicHandler struct {
	service examTopicService
}

// NewExamTopicHandler constructs an exam-topic handler.
func NewExamTopicHandler(svc examTopicService) *ExamTopicHandler {
	return &ExamTopicHandler{service: svc}
}

// List godoc
// @Summary List exam topics of a subject, most useful first
// @Tags ExamTopics
// @Produce json
// @Param id path int true "Subject ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/exam-topics [get]
func (h *ExamTopicHandler) List(c *gin.Context) {
	subjectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	page, size := pageParams(c)
	topics, pagination, err := h.service.ListBySubject(c.Request.Context(), subjectID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, topics, pagination)
}

// Create godoc
// @Summary Share the topics of an exam
// @Tags ExamTopics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Param payload body service.CreateExamTopicRequest true "Exam topics"
// @Success 201 {object} response.Envelope
// @Router /subjects/{id}/exam-topics [post]
func (h *ExamTopicHandler) Create(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	subjectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.CreateExamTopicRequest
	if !bindJSON(c, &req) {
		return
	}
	topic, err := h.service.Create(c.Request.Context(), principal, subjectID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, topic)
}

// Update godoc
// @Summary Edit your exam-topic post
// @Tags ExamTopics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param payload body service.UpdateExamTopicRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /exam-topics/{id} [put]
func (h *ExamTopicHandler) Update(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateExamTopicRequest
	if !bindJSON(c, &req) {
		return
	}
	topic, err := h.service.Update(c.Request.Context(), principal, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, topic, nil)
}

// Delete godoc
// @Summary Delete your exam-topic post
// @Tags ExamTopics
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Router /exam-topics/{id} [delete]
func (h *ExamTopicHandler) Delete(c *gin.Context) {
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
// @Summary Vote an exam-topic post
// @Tags ExamTopics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param payload body service.VoteRequest true "Vote"
// @Success 200 {object} response.Envelope
// @Router /exam-topics/{id}/votes [post]
func (h *ExamTopicHandler) Vote(c *gin.Context) {
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
// @Summary Report an exam-topic post
// @Tags ExamTopics
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param payload body service.ReportRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Router /exam-topics/{id}/reports [post]
func (h *ExamTopicHandler) Report(c *gin.Context) {
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

package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cursada/planner-api/internal/middleware"
	"github.com/cursada/planner-api/internal/models"
	appErrors "github.com/cursada/planner-api/pkg/errors"
	"github.com/cursada/planner-api/pkg/response"
)

// principalFromContext returns the caller stored by middleware.Auth and
// writes 401 when there is none.
func principalFromContext(c *gin.Context) (models.Principal, bool) {
	value, exists := c.Get(middleware.ContextPrincipalKey)
	if exists {
		if principal, ok := value.(*models.Principal); ok && principal != nil {
			return *principal, true
		}
	}
	response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
	return models.Principal{}, false
}

// idParam parses a positive integer path parameter and writes 400 otherwise.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

// uuidParam parses a UUID path parameter and writes 400 otherwise.
func uuidParam(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return "", false
	}
	return id.String(), true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, size
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

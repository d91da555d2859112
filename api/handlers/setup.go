package handlers

import (
	"context"
	"errors"
	"net/http"

	"socialgraph/relations"

	"github.com/gin-gonic/gin"
)

// Services carries the wired relationship engine components the handlers
// delegate to.
type Services struct {
	Relations   *relations.RelationService
	Aggregation *relations.AggregationService
	Discovery   *relations.DiscoveryService
	Store       *relations.Store
	Directory   relations.Directory
	Tokens      *relations.TokenStore
}

var svc Services

func Setup(s Services) {
	svc = s
}

func actorID(c *gin.Context) (int64, bool) {
	id := c.GetInt64("account_id")
	if id == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return id, true
}

// statusForError maps the error taxonomy to HTTP statuses. Validation errors
// surface as 4xx for user-facing messaging; store outages as 503 so callers
// retry with backoff.
func statusForError(err error) int {
	switch {
	case errors.Is(err, relations.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, relations.ErrNotOwner), errors.Is(err, relations.ErrBlocked):
		return http.StatusForbidden
	case errors.Is(err, relations.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, relations.ErrInvalidOperation), errors.Is(err, relations.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, relations.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

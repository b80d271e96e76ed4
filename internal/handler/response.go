package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-ai/internal/apperr"
	"github.com/ashwinyue/next-ai/internal/middleware"
)

// Response is the uniform JSON envelope for every non-streaming endpoint.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// errorResponse maps an apperr.Kind to an HTTP status. Kinds that only ever
// surface mid-stream (PROVIDER_TIMEOUT, PROVIDER_REJECTED,
// STEP_CAP_EXCEEDED) are never passed here; StreamAgent reports those as
// event:error instead of an HTTP status.
func errorResponse(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.InvalidInput, apperr.PathEscape:
		status = http.StatusBadRequest
	case apperr.Unauthenticated:
		status = http.StatusUnauthorized
	}
	c.JSON(status, Response{Code: -1, Message: err.Error()})
}

// getUserID delegates to the auth middleware's context accessor.
func getUserID(c *gin.Context) string {
	return middleware.GetUserID(c)
}

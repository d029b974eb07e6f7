package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondSuccess writes data in the success envelope.
func RespondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, NewSuccessResponse(data))
}

// RespondError maps err to a status code and writes the error envelope.
// A passed request deadline is a 504; other errors that are not an AppError
// are logged and hidden behind a 500.
func RespondError(c *gin.Context, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn().
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("Request timed out")
		c.JSON(http.StatusGatewayTimeout, NewErrorResponse("request timed out"))
		return
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	c.JSON(status, NewErrorResponse(appErr.Message))
}

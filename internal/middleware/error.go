package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/vamsi-krishn/EHR-system/internal/handler"
)

// ErrorHandler writes the last error attached with c.Error when the handler
// did not write a response itself. Bind errors become 400s.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			log.Debug().
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Request error")
		}

		last := c.Errors.Last()
		if last.IsType(gin.ErrorTypeBind) {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(last.Error()))
			return
		}
		handler.RespondError(c, last.Err)
	}
}

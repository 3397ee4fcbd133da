// README: Recovery middleware; a panicking handler becomes a 500.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"routecab/internal/logging"
)

func Recovery(log *slog.Logger) gin.HandlerFunc {
	log = logging.OrDefault(log)
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic in handler", "path", c.Request.URL.Path, "panic", rec)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}

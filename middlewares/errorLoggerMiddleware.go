package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/po_service/utils"
	"github.com/sirupsen/logrus"
)

// ErrorLogger logs the errors handlers attached with c.Error.
func ErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			entry := logger.WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.FullPath(),
				"status": c.Writer.Status(),
			})
			if cid, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok {
				entry = entry.WithField("correlation_id", cid)
			}
			entry.Error(c.Errors.String())
		}
	}
}

package handler

import (
	"github.com/420btc/svcmoto-sub000/pkg/apperr"
	"github.com/420btc/svcmoto-sub000/pkg/logger"
	"github.com/420btc/svcmoto-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortWithError maps a service error onto the HTTP envelope. Every failure
// is logged before being reported; nothing is swallowed.
func abortWithError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	kind := string(apperr.KindOf(err))

	if logger.Log != nil {
		logger.Log.Warn("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("kind", kind),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	c.JSON(status, response.ErrorKind(status, kind, err.Error()))
}

package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"parampara-foods/apperror"
	"parampara-foods/middlewares"
	"parampara-foods/services"
	"parampara-foods/utils"
)

// respondError writes err as {"message": ...} with the status of its kind.
func respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		utils.Zlog.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middlewares.GetRequestID(c)),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"message": apperror.PublicMessage(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// optionalInt64Query parses an optional positive integer query parameter.
func optionalInt64Query(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		badRequest(c, "Invalid "+name)
		return nil, false
	}
	return &v, true
}

func limitQuery(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		badRequest(c, "Invalid limit")
		return 0, false
	}
	return v, true
}

func callerFrom(c *gin.Context) services.Caller {
	return services.Caller{
		UserID: c.GetString(middlewares.ContextUserID),
		Role:   c.GetString(middlewares.ContextRole),
	}
}

// recordOrderOperation counts the operation as successful when the handler
// wrote a 2xx status.
func recordOrderOperation(c *gin.Context, operation string) {
	status := c.Writer.Status()
	middlewares.RecordOrderOperation(operation, status >= 200 && status < 300)
}

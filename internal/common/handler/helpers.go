// Package handler provides shared helpers for API handlers: unified error
// handling, authentication checks and parameter parsing.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agentnetph/agent-network-backend/internal/common/errors"
	"github.com/agentnetph/agent-network-backend/internal/common/response"
	"github.com/agentnetph/agent-network-backend/internal/middleware"
)

// HandleError sends an error response when err is non-nil.
// Returns true when an error was handled and the caller should return.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	response.InternalError(c, err.Error())
	return true
}

// MustSucceed sends an error response on err, a success response otherwise.
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedPage paginated variant of MustSucceed.
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// RequireAgentID extracts the authenticated agent ID or aborts with 401.
func RequireAgentID(c *gin.Context) (int64, bool) {
	id, exists := c.Get(middleware.ContextKeyUserID)
	if !exists {
		response.Unauthorized(c, "")
		return 0, false
	}
	return id.(int64), true
}

// RequireAdminID extracts the authenticated admin ID or aborts with 401.
func RequireAdminID(c *gin.Context) (int64, bool) {
	id, exists := c.Get(middleware.ContextKeyUserID)
	if !exists {
		response.Unauthorized(c, "")
		return 0, false
	}
	return id.(int64), true
}

// ParseIDParam parses a positive int64 path parameter.
func ParseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// ParsePagination parses page/page_size query parameters with defaults.
func ParsePagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

package handler

import (
	"net/http"

	"formsportal/internal/middleware"
	"formsportal/internal/service"
	"formsportal/pkg/response"

	"github.com/gin-gonic/gin"
)

var kindStatus = map[service.ErrorKind]int{
	service.KindValidation: http.StatusBadRequest,
	service.KindNotFound:   http.StatusNotFound,
	service.KindConflict:   http.StatusConflict,
	service.KindForbidden:  http.StatusForbidden,
	service.KindInternal:   http.StatusInternalServerError,
}

// writeError renders a service error. Causes of internal errors stay in the
// server log; clients only see the public message.
func writeError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, response.Error(string(kind), service.PublicMessage(err)))
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(string(service.KindValidation), message))
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		UserID: c.GetString(middleware.CtxUserID),
		Name:   c.GetString(middleware.CtxUserName),
		Role:   c.GetString(middleware.CtxUserRole),
	}
}

package handler

import (
	"net/http"
	"strconv"

	"formsportal/internal/middleware"
	"formsportal/internal/model"
	"formsportal/internal/service"
	"formsportal/pkg/pagination"
	"formsportal/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService      service.UserService
	referenceService service.ReferenceService
	audit            service.AuditService
	auth             *middleware.Auth
}

// NewUserHandler sets up the routing dependencies for user and lookup
// endpoints. Every change is written to the audit trail.
func NewUserHandler(userService service.UserService, referenceService service.ReferenceService, audit service.AuditService, auth *middleware.Auth) *UserHandler {
	return &UserHandler{userService: userService, referenceService: referenceService, audit: audit, auth: auth}
}

// RegisterRoutes binds the admin endpoints. Lookups are readable by every
// signed-in user; changes need the admin role.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := h.auth.RequireRole(model.RoleAdmin)
	anyUser := h.auth.RequireRole()

	users := router.Group("/api/users")
	{
		users.GET("", admin, h.ListUsers)
		users.GET("/:id", admin, h.GetUser)
		users.POST("", admin, h.CreateUser)
		users.DELETE("/:id", admin, h.DeleteUser)
		users.GET("/:id/access", admin, h.GetAccess)
		users.PUT("/:id/access", admin, h.SetAccess)
	}

	router.GET("/api/branches", anyUser, h.ListBranches)
	router.POST("/api/branches", admin, h.CreateBranch)
	router.DELETE("/api/branches/:id", admin, h.DeleteBranch)
	router.GET("/api/departments", anyUser, h.ListDepartments)
	router.POST("/api/departments", admin, h.CreateDepartment)
	router.DELETE("/api/departments/:id", admin, h.DeleteDepartment)
}

// CreateUser handles POST /api/users
// @Summary      Create a new user
// @Description  Creates a portal user and hashes the password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "User payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload: "+err.Error())
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.audit.Record(c.Request.Context(), actorFrom(c), model.ActionCreateUser, user.ID.String(), user.Name,
		gin.H{"employee_id": user.EmployeeID, "role": user.Role})
	c.JSON(http.StatusCreated, response.Message("user created", user))
}

// ListUsers handles GET /api/users
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query  int  false  "Page"
// @Param        limit  query  int  false  "Page size"
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(user))
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	h.auth.ForgetAccess(id)
	h.audit.Record(c.Request.Context(), actorFrom(c), model.ActionDeleteUser, id, "", nil)
	c.JSON(http.StatusOK, response.Message("user deleted", nil))
}

func (h *UserHandler) GetAccess(c *gin.Context) {
	access, err := h.userService.GetAccess(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(access))
}

// SetAccess replaces the role and form list of a user.
func (h *UserHandler) SetAccess(c *gin.Context) {
	var req service.UserAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload: "+err.Error())
		return
	}

	id := c.Param("id")
	access, err := h.userService.SetAccess(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.auth.ForgetAccess(id)
	h.audit.Record(c.Request.Context(), actorFrom(c), model.ActionSetAccess, id, "", req)
	c.JSON(http.StatusOK, response.Message("access updated", access))
}

func (h *UserHandler) ListBranches(c *gin.Context) {
	branches, err := h.referenceService.ListBranches(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, branches)
}

func (h *UserHandler) CreateBranch(c *gin.Context) {
	var req service.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload: "+err.Error())
		return
	}
	branch, err := h.referenceService.CreateBranch(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.audit.Record(c.Request.Context(), actorFrom(c), model.ActionCreateBranch, strconv.FormatUint(uint64(branch.ID), 10), branch.Name, nil)
	c.JSON(http.StatusCreated, response.Message("branch created", branch))
}

func (h *UserHandler) DeleteBranch(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.referenceService.DeleteBranch(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	h.audit.Record(c.Request.Context(), actorFrom(c), model.ActionDeleteBranch, strconv.FormatUint(uint64(id), 10), "", nil)
	c.JSON(http.StatusOK, response.Message("branch deleted", nil))
}

func (h *UserHandler) ListDepartments(c *gin.Context) {
	departments, err := h.referenceService.ListDepartments(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, departments)
}

func (h *UserHandler) CreateDepartment(c *gin.Context) {
	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload: "+err.Error())
		return
	}
	department, err := h.referenceService.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	h.audit.Record(c.Request.Context(), actorFrom(c), model.ActionCreateDepartment, strconv.FormatUint(uint64(department.ID), 10), department.Name, nil)
	c.JSON(http.StatusCreated, response.Message("department created", department))
}

func (h *UserHandler) DeleteDepartment(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.referenceService.DeleteDepartment(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	h.audit.Record(c.Request.Context(), actorFrom(c), model.ActionDeleteDepartment, strconv.FormatUint(uint64(id), 10), "", nil)
	c.JSON(http.StatusOK, response.Message("department deleted", nil))
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || n == 0 {
		badRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return uint(n), true
}

package handler

import (
	"net/http"
	"strconv"

	"formsportal/internal/middleware"
	"formsportal/internal/model"
	"formsportal/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	auth             *middleware.Auth
}

func NewDashboardHandler(dashboardService service.DashboardService, auth *middleware.Auth) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, auth: auth}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	dashboard := router.Group("/api/dashboard")
	dashboard.Use(h.auth.RequireRole(model.RoleAdmin, model.RoleApprover, model.RoleAccounting))
	{
		dashboard.GET("/workload", h.Workload)
		dashboard.GET("/outstanding", h.Outstanding)
		dashboard.GET("/engagement", h.Engagement)
	}
}

// Workload godoc
// @Summary      Request counts per form and status bucket
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.WorkloadSummary
// @Router       /api/dashboard/workload [get]
func (h *DashboardHandler) Workload(c *gin.Context) {
	summary, err := h.dashboardService.Workload(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Outstanding godoc
// @Summary      Most recently active pending requests across forms
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query  int  false  "Rows to return (default 6)"
// @Success      200  {object}  model.OutstandingQueue
// @Router       /api/dashboard/outstanding [get]
func (h *DashboardHandler) Outstanding(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	queue, err := h.dashboardService.Outstanding(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, queue)
}

func (h *DashboardHandler) Engagement(c *gin.Context) {
	summary, err := h.dashboardService.Engagement(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

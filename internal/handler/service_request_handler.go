package handler

import (
	"net/http"

	"github.com/420btc/svcmoto-sub000/internal/middleware"
	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/internal/service"
	"github.com/420btc/svcmoto-sub000/pkg/pagination"
	"github.com/420btc/svcmoto-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

type ServiceRequestHandler struct {
	serviceRequestService service.ServiceRequestService
}

func NewServiceRequestHandler(serviceRequestService service.ServiceRequestService) *ServiceRequestHandler {
	return &ServiceRequestHandler{serviceRequestService: serviceRequestService}
}

func (h *ServiceRequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	services := router.Group("/api/services")
	{
		services.POST("", middleware.RequireAuth(), h.Create)
		services.GET("/mine", middleware.RequireAuth(), h.ListMine)
		services.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.List)
		services.PUT("/:id/status", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.UpdateStatus)
	}
}

// Create opens a technical service ticket
// @Summary      Create service request
// @Tags         services
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateServiceRequestRequest  true  "Ticket payload"
// @Success      201      {object}  response.Response{data=service.ServiceRequestResponse}
// @Router       /api/services [post]
func (h *ServiceRequestHandler) Create(c *gin.Context) {
	var req service.CreateServiceRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	req.UserID = middleware.CallerID(c)

	ticket, err := h.serviceRequestService.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ticket))
}

// ListMine returns the caller's service tickets
// @Summary      List my service requests
// @Tags         services
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/services/mine [get]
func (h *ServiceRequestHandler) ListMine(c *gin.Context) {
	p := pagination.Parse(c)

	tickets, total, err := h.serviceRequestService.ListByUser(c.Request.Context(), middleware.CallerID(c), p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"services":   tickets,
		"pagination": pagination.NewMeta(p, total),
	}))
}

// List returns all service tickets, optionally filtered by status (staff)
// @Summary      List service requests
// @Tags         services
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/services [get]
func (h *ServiceRequestHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	tickets, total, err := h.serviceRequestService.List(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"services":   tickets,
		"pagination": pagination.NewMeta(p, total),
	}))
}

// UpdateStatus moves a ticket through its status enum (staff)
// @Summary      Update service request status
// @Tags         services
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Service request ID"
// @Param        payload  body      object{status=string}  true  "New status"
// @Success      200      {object}  response.Response{data=service.ServiceRequestResponse}
// @Router       /api/services/{id}/status [put]
func (h *ServiceRequestHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ticket, err := h.serviceRequestService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ticket))
}

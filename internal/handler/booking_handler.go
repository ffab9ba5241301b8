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

type BookingHandler struct {
	bookingService      service.BookingService
	verificationService service.VerificationService
}

func NewBookingHandler(bookingService service.BookingService, verificationService service.VerificationService) *BookingHandler {
	return &BookingHandler{
		bookingService:      bookingService,
		verificationService: verificationService,
	}
}

func (h *BookingHandler) RegisterRoutes(router *gin.RouterGroup) {
	bookings := router.Group("/api/bookings")
	{
		bookings.POST("", middleware.RequireAuth(), h.CreateBooking)
		bookings.GET("", middleware.RequireAuth(), h.ListMyBookings)
		bookings.GET("/pending-confirmation", middleware.RequireAuth(), h.ListPendingConfirmation)
		bookings.POST("/:id/resolve", middleware.RequireAuth(), h.ResolveExpired)
		bookings.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.GetBooking)
	}
}

// CreateBooking creates a PENDING booking with a fresh verification code
// @Summary      Create booking
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBookingRequest  true  "Booking payload"
// @Success      201      {object}  response.Response{data=service.BookingResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	// Customers always book for themselves.
	req.UserID = middleware.CallerID(c)

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, booking))
}

// ListMyBookings returns the caller's bookings, newest first
// @Summary      List bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/bookings [get]
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	p := pagination.Parse(c)

	bookings, total, err := h.bookingService.ListBookings(c.Request.Context(), middleware.CallerID(c), p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"bookings":   bookings,
		"pagination": pagination.NewMeta(p, total),
	}))
}

// ListPendingConfirmation returns expired unverified bookings awaiting the
// caller's confirmation; each is offered once
// @Summary      List bookings pending expiry confirmation
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.BookingResponse}
// @Router       /api/bookings/pending-confirmation [get]
func (h *BookingHandler) ListPendingConfirmation(c *gin.Context) {
	bookings, err := h.verificationService.ListPendingConfirmation(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, bookings))
}

// ResolveExpired settles an expired unverified booking from the user's answer
// @Summary      Resolve expired booking
// @Description  Confirms or denies that an expired unverified rental took place
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Booking ID"
// @Param        payload  body      service.ResolveExpiredRequest  true  "Confirmation"
// @Success      200      {object}  response.Response{data=service.BookingResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/bookings/{id}/resolve [post]
func (h *BookingHandler) ResolveExpired(c *gin.Context) {
	var req service.ResolveExpiredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	booking, err := h.verificationService.ResolveExpired(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, booking))
}

// GetBooking returns one booking by id (staff)
// @Summary      Get booking
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Booking ID"
// @Success      200  {object}  response.Response{data=service.BookingResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, booking))
}

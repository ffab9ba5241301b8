package handler

import (
	"net/http"
	"strconv"

	"github.com/420btc/svcmoto-sub000/internal/middleware"
	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/internal/service"
	"github.com/420btc/svcmoto-sub000/pkg/pagination"
	"github.com/420btc/svcmoto-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

// RewardsHandler groups the customer-facing points and discount endpoints and
// the staff verification console.
type RewardsHandler struct {
	verificationService service.VerificationService
	pointsService       service.PointsService
	discountService     service.DiscountService
}

func NewRewardsHandler(
	verificationService service.VerificationService,
	pointsService service.PointsService,
	discountService service.DiscountService,
) *RewardsHandler {
	return &RewardsHandler{
		verificationService: verificationService,
		pointsService:       pointsService,
		discountService:     discountService,
	}
}

func (h *RewardsHandler) RegisterRoutes(router *gin.RouterGroup) {
	points := router.Group("/api/points")
	{
		points.GET("/balance", middleware.RequireAuth(), h.GetBalance)
		points.GET("/ledger", middleware.RequireAuth(), h.ListLedger)
	}

	discounts := router.Group("/api/discounts")
	{
		discounts.POST("", middleware.RequireAuth(), h.GenerateDiscount)
		discounts.GET("", middleware.RequireAuth(), h.ListMyDiscounts)
	}

	// Staff verification console
	verify := router.Group("/api/verify")
	verify.Use(middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	{
		verify.POST("/booking", h.VerifyBooking)
		verify.GET("/recent", h.ListRecentVerifications)
		verify.POST("/discount", h.ValidateDiscount)
		verify.GET("/discounts", h.ListAllDiscounts)
	}
}

// GetBalance returns the caller's derived points balance
// @Summary      Points balance
// @Tags         points
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.BalanceResponse}
// @Router       /api/points/balance [get]
func (h *RewardsHandler) GetBalance(c *gin.Context) {
	balance, err := h.pointsService.GetBalance(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, balance))
}

// ListLedger returns the caller's points ledger, newest first
// @Summary      Points ledger
// @Tags         points
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/points/ledger [get]
func (h *RewardsHandler) ListLedger(c *gin.Context) {
	p := pagination.Parse(c)

	entries, total, err := h.pointsService.ListLedger(c.Request.Context(), middleware.CallerID(c), p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"entries":    entries,
		"pagination": pagination.NewMeta(p, total),
	}))
}

// GenerateDiscount redeems a points tier into a single-use discount code
// @Summary      Generate discount
// @Tags         discounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.GenerateDiscountRequest  true  "Redemption payload"
// @Success      201      {object}  response.Response{data=service.DiscountResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/discounts [post]
func (h *RewardsHandler) GenerateDiscount(c *gin.Context) {
	var req service.GenerateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	// Customers redeem their own balance.
	req.UserID = middleware.CallerID(c)

	discount, err := h.discountService.Generate(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, discount))
}

// ListMyDiscounts returns the caller's discounts, newest first
// @Summary      List discounts
// @Tags         discounts
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/discounts [get]
func (h *RewardsHandler) ListMyDiscounts(c *gin.Context) {
	p := pagination.Parse(c)

	discounts, total, err := h.discountService.ListByUser(c.Request.Context(), middleware.CallerID(c), p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"discounts":  discounts,
		"pagination": pagination.NewMeta(p, total),
	}))
}

// VerifyBooking completes a pending booking by its verification code and credits points
// @Summary      Verify booking by code
// @Tags         verify
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.VerifyBookingRequest  true  "Verification code"
// @Success      200      {object}  response.Response{data=service.VerifyBookingResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/verify/booking [post]
func (h *RewardsHandler) VerifyBooking(c *gin.Context) {
	var req service.VerifyBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.verificationService.VerifyByCode(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListRecentVerifications returns the latest verified bookings for the console
// @Summary      Recent verifications
// @Tags         verify
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query     int  false  "Max entries (default 20)"
// @Success      200    {object}  response.Response{data=[]service.BookingResponse}
// @Router       /api/verify/recent [get]
func (h *RewardsHandler) ListRecentVerifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	bookings, err := h.verificationService.ListRecentVerifications(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, bookings))
}

// ListAllDiscounts returns all discounts, optionally filtered by status (staff)
// @Summary      List all discounts
// @Tags         verify
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/verify/discounts [get]
func (h *RewardsHandler) ListAllDiscounts(c *gin.Context) {
	p := pagination.Parse(c)

	discounts, total, err := h.discountService.List(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"discounts":  discounts,
		"pagination": pagination.NewMeta(p, total),
	}))
}

// ValidateDiscount marks a discount code as used by the calling operator
// @Summary      Validate discount code
// @Tags         verify
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      object{code=string}  true  "Discount code"
// @Success      200      {object}  response.Response{data=service.DiscountResponse}
// @Failure      409      {object}  response.Response
// @Failure      410      {object}  response.Response
// @Router       /api/verify/discount [post]
func (h *RewardsHandler) ValidateDiscount(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	discount, err := h.discountService.Validate(c.Request.Context(), req.Code, middleware.CallerID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, discount))
}

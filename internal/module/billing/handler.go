package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plateful/server/internal/module/profile"
	"github.com/plateful/server/internal/shared/middleware"
	"github.com/plateful/server/internal/shared/response"
)

// Handler handles HTTP requests for checkout and plan management.
type Handler struct {
	service *Service
}

// NewHandler creates a new billing handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the billing routes. All routes require an
// authenticated caller.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/plans", h.Plans)
	r.POST("/checkout", h.Checkout)
	r.POST("/plan/change", h.ChangePlan)
	r.POST("/plan/unsubscribe", h.Unsubscribe)
	r.POST("/plan/reactivate", h.Reactivate)
	r.GET("/plan/status", h.Status)
}

// Plans lists the purchasable plan catalog.
//
//	@Summary		List plans
//	@Tags			Billing
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}	billing.CatalogPlan
//	@Router			/plans [get]
func (h *Handler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Plans())
}

// Checkout creates a hosted checkout session for a plan.
//
//	@Summary		Start checkout
//	@Description	Create a hosted checkout session and return its redirect URL
//	@Tags			Billing
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		billing.CheckoutRequest	true	"Checkout request"
//	@Success		200		{object}	billing.CheckoutResponse
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		401		{object}	response.ErrorResponse
//	@Router			/checkout [post]
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	resp, err := h.service.Checkout(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetEmail(c), middleware.GetUserName(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChangePlan switches the caller to a new plan.
//
//	@Summary		Change plan
//	@Description	Update an existing subscription in place or redirect to checkout
//	@Tags			Billing
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		billing.ChangePlanRequest	true	"Plan change request"
//	@Success		200		{object}	billing.ChangePlanResult
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Router			/plan/change [post]
func (h *Handler) ChangePlan(c *gin.Context) {
	var req ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.ChangePlan(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetEmail(c), middleware.GetUserName(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Unsubscribe schedules cancellation at the end of the billing period.
//
//	@Summary		Unsubscribe
//	@Tags			Billing
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	billing.ActionResponse
//	@Failure		400	{object}	response.ErrorResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/plan/unsubscribe [post]
func (h *Handler) Unsubscribe(c *gin.Context) {
	resp, err := h.service.Unsubscribe(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reactivate clears a pending cancellation.
//
//	@Summary		Reactivate subscription
//	@Tags			Billing
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	billing.ActionResponse
//	@Failure		400	{object}	response.ErrorResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/plan/reactivate [post]
func (h *Handler) Reactivate(c *gin.Context) {
	resp, err := h.service.Reactivate(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Status reports the caller's subscription and usage state.
//
//	@Summary		Subscription status
//	@Tags			Billing
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	billing.StatusResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/plan/status [get]
func (h *Handler) Status(c *gin.Context) {
	resp, err := h.service.Status(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
		{Err: ErrPlanNotFound, Status: http.StatusBadRequest},
		{Err: ErrPlanNotPurchasable, Status: http.StatusBadRequest},
		{Err: ErrMissingPriceID, Status: http.StatusBadRequest},
		{Err: ErrMissingBillingInterval, Status: http.StatusBadRequest},
		{Err: ErrNoActiveSubscription, Status: http.StatusBadRequest},
		{Err: ErrNoPendingCancellation, Status: http.StatusBadRequest},
		{Err: profile.ErrProfileNotFound, Status: http.StatusNotFound, Message: "User profile not found"},
	})
}

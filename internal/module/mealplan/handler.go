package mealplan

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plateful/server/internal/module/profile"
	"github.com/plateful/server/internal/shared/middleware"
	"github.com/plateful/server/internal/shared/response"
)

// Handler handles HTTP requests for meal plan generation and storage.
type Handler struct {
	service *Service
}

// NewHandler creates a new meal plan handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the meal plan routes. All routes require an
// authenticated caller.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/generate-plan", h.Generate)
	h.RegisterSavedPlanRoutes(r)
}

// RegisterSavedPlanRoutes registers only the saved plan routes. The
// generation route is registered separately when it carries extra
// middleware such as rate limiting.
func (h *Handler) RegisterSavedPlanRoutes(r *gin.RouterGroup) {
	r.GET("/saved-plans", h.List)
	r.GET("/saved-plans/:id", h.Get)
	r.POST("/saved-plans", h.Save)
	r.DELETE("/saved-plans", h.Delete)
}

// Generate creates a meal plan for the caller's preferences.
//
//	@Summary		Generate meal plan
//	@Description	Generate a multi-day meal plan, subject to the free trial limit
//	@Tags			MealPlans
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		mealplan.GenerateRequest	true	"Generation request"
//	@Success		200		{object}	mealplan.GenerateResponse
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		403		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Router			/generate-plan [post]
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	resp, err := h.service.Generate(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List returns the caller's saved meal plans.
//
//	@Summary		List saved meal plans
//	@Tags			MealPlans
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}	mealplan.SavedMealPlan
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/saved-plans [get]
func (h *Handler) List(c *gin.Context) {
	plans, err := h.service.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

// Get returns one saved meal plan.
//
//	@Summary		Get saved meal plan
//	@Tags			MealPlans
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Meal plan id"
//	@Success		200	{object}	mealplan.SavedMealPlan
//	@Failure		403	{object}	response.ErrorResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/saved-plans/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meal plan id")
		return
	}

	plan, err := h.service.Get(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// Save stores a meal plan under a name.
//
//	@Summary		Save meal plan
//	@Tags			MealPlans
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		mealplan.SavePlanRequest	true	"Plan to save"
//	@Success		200		{object}	mealplan.SavedMealPlan
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Router			/saved-plans [post]
func (h *Handler) Save(c *gin.Context) {
	var req SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	plan, err := h.service.Save(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// Delete removes a saved meal plan identified by the id query parameter.
//
//	@Summary		Delete saved meal plan
//	@Tags			MealPlans
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	query		string	true	"Meal plan id"
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	response.ErrorResponse
//	@Failure		403	{object}	response.ErrorResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/saved-plans [delete]
func (h *Handler) Delete(c *gin.Context) {
	raw := c.Query("id")
	if raw == "" {
		response.BadRequest(c, "Missing meal plan ID")
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(c, "invalid meal plan id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal plan deleted successfully"})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	if errors.Is(err, ErrLimitReached) {
		response.LimitReached(c, "Free trial limit reached. Please subscribe to continue generating meal plans.")
		return
	}
	response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
		{Err: ErrMissingFields, Status: http.StatusBadRequest, Message: "Missing required fields"},
		{Err: ErrPlanNotFound, Status: http.StatusNotFound, Message: "Meal plan not found"},
		{Err: ErrNotPlanOwner, Status: http.StatusForbidden, Message: "Unauthorized to access this meal plan"},
		{Err: ErrInvalidAIResponse, Status: http.StatusInternalServerError, Message: "Invalid JSON response from AI. Please try again."},
		{Err: profile.ErrProfileNotFound, Status: http.StatusNotFound, Message: "User profile not found"},
	})
}

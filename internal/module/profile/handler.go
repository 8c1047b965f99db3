package profile

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plateful/server/internal/shared/middleware"
	"github.com/plateful/server/internal/shared/response"
)

// Handler handles HTTP requests for profile management.
type Handler struct {
	service *Service
}

// NewHandler creates a new profile handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the profile routes. All routes require an
// authenticated caller.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/profile", h.Provision)
	r.GET("/profile/preferences", h.GetPreferences)
	r.PUT("/profile/preferences", h.UpdatePreferences)
}

// Provision creates the caller's profile after sign-up.
//
//	@Summary		Provision profile
//	@Description	Create the application profile for a freshly signed-up user
//	@Tags			Profile
//	@Produce		json
//	@Security		BearerAuth
//	@Success		201	{object}	map[string]string
//	@Failure		400	{object}	response.ErrorResponse
//	@Failure		401	{object}	response.ErrorResponse
//	@Router			/profile [post]
func (h *Handler) Provision(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "")
		return
	}

	_, err := h.service.Provision(c.Request.Context(), userID, middleware.GetEmail(c), middleware.GetUserName(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Profile created successfully."})
}

// GetPreferences returns the caller's stored dietary preferences.
//
//	@Summary		Get dietary preferences
//	@Tags			Profile
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	Preferences
//	@Failure		401	{object}	response.ErrorResponse
//	@Failure		404	{object}	response.ErrorResponse
//	@Router			/profile/preferences [get]
func (h *Handler) GetPreferences(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "")
		return
	}

	prefs, err := h.service.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences stores the caller's dietary preferences.
//
//	@Summary		Update dietary preferences
//	@Tags			Profile
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		Preferences	true	"Preferences"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		401		{object}	response.ErrorResponse
//	@Router			/profile/preferences [put]
func (h *Handler) UpdatePreferences(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "")
		return
	}

	var prefs Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.UpdatePreferences(c.Request.Context(), userID, prefs); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Preferences updated."})
}

// handleError maps module errors to HTTP responses.
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrProfileExists):
		response.BadRequest(c, "User already exists")
	case errors.Is(err, ErrMissingIdentity):
		response.BadRequest(c, "User email and username are required")
	case errors.Is(err, ErrProfileNotFound):
		response.NotFound(c, "User profile not found")
	default:
		response.InternalError(c, "")
	}
}

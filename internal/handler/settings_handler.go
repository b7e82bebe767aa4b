package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deepv/driving-backend/internal/engine"
	"github.com/deepv/driving-backend/internal/middleware"
	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/response"
	"github.com/deepv/driving-backend/internal/validator"
)

type SettingsHandler struct {
	engine *engine.Engine
}

func NewSettingsHandler(eng *engine.Engine) *SettingsHandler {
	return &SettingsHandler{engine: eng}
}

func (h *SettingsHandler) user(c *gin.Context) *engine.UserState {
	claims := middleware.GetClaims(c)
	return h.engine.User(c.Request.Context(), claims.UserID)
}

// Get godoc
// GET /api/v1/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	response.Success(c, http.StatusOK, h.user(c).Settings.Settings())
}

// Update godoc
// PUT /api/v1/settings
func (h *SettingsHandler) Update(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	updated := h.user(c).Settings.Update(c.Request.Context(), req)
	response.Success(c, http.StatusOK, updated)
}

// UpdateAutoAdvance godoc
// PUT /api/v1/settings/auto-advance
func (h *SettingsHandler) UpdateAutoAdvance(c *gin.Context) {
	var req model.UpdateAutoAdvanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	updated := h.user(c).Settings.UpdateAutoAdvance(c.Request.Context(), req)
	response.Success(c, http.StatusOK, updated)
}

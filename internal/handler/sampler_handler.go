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

type SamplerHandler struct {
	engine *engine.Engine
}

func NewSamplerHandler(eng *engine.Engine) *SamplerHandler {
	return &SamplerHandler{engine: eng}
}

func (h *SamplerHandler) user(c *gin.Context) *engine.UserState {
	claims := middleware.GetClaims(c)
	return h.engine.User(c.Request.Context(), claims.UserID)
}

// State godoc
// GET /api/v1/random/state
func (h *SamplerHandler) State(c *gin.Context) {
	response.Success(c, http.StatusOK, h.user(c).Sampler(c.Request.Context()).ViewState())
}

// Next godoc
// POST /api/v1/random/next
func (h *SamplerHandler) Next(c *gin.Context) {
	response.Success(c, http.StatusOK, h.user(c).Sampler(c.Request.Context()).Next())
}

// Back godoc
// POST /api/v1/random/back
func (h *SamplerHandler) Back(c *gin.Context) {
	response.Success(c, http.StatusOK, h.user(c).Sampler(c.Request.Context()).Back())
}

// Answer godoc
// POST /api/v1/random/answer
// Answers in history mode are ignored; applied=false flags that to the
// client.
func (h *SamplerHandler) Answer(c *gin.Context) {
	var req model.ExamAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sam := h.user(c).Sampler(c.Request.Context())
	correct, applied := sam.Answer(req.Key)
	response.Success(c, http.StatusOK, gin.H{
		"applied": applied,
		"correct": correct,
		"state":   sam.ViewState(),
	})
}

// Hide godoc
// POST /api/v1/random/hide
func (h *SamplerHandler) Hide(c *gin.Context) {
	var req model.ConfirmRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sam := h.user(c).Sampler(c.Request.Context())
	view, applied := sam.Hide(req.Confirm)
	if !applied && !req.Confirm {
		response.Fail(c, http.StatusPreconditionRequired, response.ErrConfirmationRequired)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Release godoc
// DELETE /api/v1/random
// Drops the session; the next state call starts a fresh one with a new
// draw and an empty back stack.
func (h *SamplerHandler) Release(c *gin.Context) {
	h.user(c).ReleaseSampler()
	response.Success(c, http.StatusOK, gin.H{"message": "sampler released"})
}

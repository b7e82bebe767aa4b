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

// ProgressHandler exposes the progress ledger's mutation API. Every route
// resolves the caller's runtime and dispatches to the ledger; nothing here
// holds a second copy of the record.
type ProgressHandler struct {
	engine *engine.Engine
}

func NewProgressHandler(eng *engine.Engine) *ProgressHandler {
	return &ProgressHandler{engine: eng}
}

func (h *ProgressHandler) user(c *gin.Context) *engine.UserState {
	claims := middleware.GetClaims(c)
	return h.engine.User(c.Request.Context(), claims.UserID)
}

// Get godoc
// GET /api/v1/practice/progress
func (h *ProgressHandler) Get(c *gin.Context) {
	response.Success(c, http.StatusOK, h.user(c).Ledger.Progress())
}

// MarkAnswered godoc
// POST /api/v1/practice/answered
func (h *ProgressHandler) MarkAnswered(c *gin.Context) {
	var req model.QuestionIDRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	u := h.user(c)
	u.Ledger.MarkAnswered(req.QuestionID)
	response.Success(c, http.StatusOK, u.Ledger.Progress())
}

// MarkHidden godoc
// POST /api/v1/practice/hidden
func (h *ProgressHandler) MarkHidden(c *gin.Context) {
	var req model.QuestionIDRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	u := h.user(c)
	u.Ledger.MarkHidden(req.QuestionID)
	response.Success(c, http.StatusOK, u.Ledger.Progress())
}

// Unhide godoc
// POST /api/v1/practice/unhide
func (h *ProgressHandler) Unhide(c *gin.Context) {
	var req model.QuestionIDRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	u := h.user(c)
	u.Ledger.UnhideQuestion(req.QuestionID)
	response.Success(c, http.StatusOK, u.Ledger.Progress())
}

// AddMistake godoc
// POST /api/v1/practice/mistakes
func (h *ProgressHandler) AddMistake(c *gin.Context) {
	var req model.QuestionIDRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	u := h.user(c)
	u.Ledger.AddMistake(req.QuestionID)
	response.Success(c, http.StatusOK, u.Ledger.Progress())
}

// RemoveMistake godoc
// POST /api/v1/practice/mistakes/remove
func (h *ProgressHandler) RemoveMistake(c *gin.Context) {
	var req model.QuestionIDRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	u := h.user(c)
	u.Ledger.RemoveMistake(req.QuestionID)
	response.Success(c, http.StatusOK, u.Ledger.Progress())
}

// UpdateNote godoc
// POST /api/v1/practice/notes
func (h *ProgressHandler) UpdateNote(c *gin.Context) {
	var req model.NoteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	u := h.user(c)
	u.Ledger.UpdateNote(req.QuestionID, req.Note)
	response.Success(c, http.StatusOK, u.Ledger.Progress())
}

// ToggleFavorite godoc
// POST /api/v1/practice/favorites/toggle
func (h *ProgressHandler) ToggleFavorite(c *gin.Context) {
	var req model.QuestionIDRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	u := h.user(c)
	u.Ledger.ToggleFavorite(req.QuestionID)
	response.Success(c, http.StatusOK, u.Ledger.Progress())
}

// SetBank godoc
// POST /api/v1/practice/bank
func (h *ProgressHandler) SetBank(c *gin.Context) {
	var req model.SetBankRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	u := h.user(c)
	u.SetBank(req.Bank)
	response.Success(c, http.StatusOK, u.Ledger.Progress())
}

// AdvanceCursor godoc
// POST /api/v1/practice/cursor
// The cursor is a high-water resume point: requests behind the saved value
// are accepted but have no effect.
func (h *ProgressHandler) AdvanceCursor(c *gin.Context) {
	var req model.CursorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	u := h.user(c)
	u.Ledger.UpdateProgress(model.ProgressPatch{
		CurrentIndex: map[model.Bank]int{req.Bank: req.Index},
	})
	response.Success(c, http.StatusOK, u.Ledger.Progress())
}

// Reset godoc
// POST /api/v1/practice/reset
func (h *ProgressHandler) Reset(c *gin.Context) {
	var req model.ConfirmRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	u := h.user(c)
	if !u.Ledger.Reset(req.Confirm) {
		response.Fail(c, http.StatusPreconditionRequired, response.ErrConfirmationRequired)
		return
	}
	response.Success(c, http.StatusOK, u.Ledger.Progress())
}

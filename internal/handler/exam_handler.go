package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/deepv/driving-backend/internal/engine"
	"github.com/deepv/driving-backend/internal/exam"
	"github.com/deepv/driving-backend/internal/middleware"
	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/repository"
	"github.com/deepv/driving-backend/internal/response"
	"github.com/deepv/driving-backend/internal/validator"
)

type ExamHandler struct {
	engine      *engine.Engine
	historyRepo *repository.HistoryRepository
}

func NewExamHandler(eng *engine.Engine, historyRepo *repository.HistoryRepository) *ExamHandler {
	return &ExamHandler{engine: eng, historyRepo: historyRepo}
}

func (h *ExamHandler) user(c *gin.Context) *engine.UserState {
	claims := middleware.GetClaims(c)
	return h.engine.User(c.Request.Context(), claims.UserID)
}

// State godoc
// GET /api/v1/exam/state
// Accessing the state for the first time after a crash surfaces
// pending_recovery=true; the client answers with POST /exam/resume.
func (h *ExamHandler) State(c *gin.Context) {
	response.Success(c, http.StatusOK, h.user(c).Exam(c.Request.Context()).View())
}

// Start godoc
// POST /api/v1/exam/start
func (h *ExamHandler) Start(c *gin.Context) {
	session := h.user(c).Exam(c.Request.Context())
	if err := session.Start(c.Request.Context()); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrExamAlreadyActive)
		return
	}
	response.Success(c, http.StatusOK, session.View())
}

// Resume godoc
// POST /api/v1/exam/resume
func (h *ExamHandler) Resume(c *gin.Context) {
	var req model.ExamResumeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session := h.user(c).Exam(c.Request.Context())
	if err := session.Resume(c.Request.Context(), req.Accept); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrNoRecoveryPending)
		return
	}
	response.Success(c, http.StatusOK, session.View())
}

// Answer godoc
// POST /api/v1/exam/answer
// Re-answering before submission always overwrites; answers outside an
// active session are ignored, not errors.
func (h *ExamHandler) Answer(c *gin.Context) {
	var req model.ExamAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session := h.user(c).Exam(c.Request.Context())
	correct, applied := session.Answer(c.Request.Context(), req.Key)
	response.Success(c, http.StatusOK, gin.H{
		"applied": applied,
		"correct": correct,
		"state":   session.View(),
	})
}

// Navigate godoc
// POST /api/v1/exam/navigate
func (h *ExamHandler) Navigate(c *gin.Context) {
	var req model.ExamNavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session := h.user(c).Exam(c.Request.Context())
	session.Navigate(c.Request.Context(), req.To, req.Step)
	response.Success(c, http.StatusOK, session.View())
}

// Submit godoc
// POST /api/v1/exam/submit
func (h *ExamHandler) Submit(c *gin.Context) {
	var req model.ConfirmRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session := h.user(c).Exam(c.Request.Context())
	view, err := session.Submit(c.Request.Context(), req.Confirm)
	switch {
	case errors.Is(err, exam.ErrConfirmationRequired):
		response.Fail(c, http.StatusPreconditionRequired, response.ErrConfirmationRequired)
		return
	case errors.Is(err, exam.ErrNotActive):
		response.Fail(c, http.StatusConflict, response.ErrExamNotActive)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Leave godoc
// POST /api/v1/exam/leave
// The exit guard: leaving an active exam needs confirmation, and the
// recovery snapshot is kept so the session can be resumed after a reload.
func (h *ExamHandler) Leave(c *gin.Context) {
	var req model.ConfirmRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.user(c).LeaveExam(req.Confirm); err != nil {
		response.Fail(c, http.StatusPreconditionRequired, response.ErrConfirmationRequired)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "left exam screen"})
}

// Reset godoc
// POST /api/v1/exam/reset
func (h *ExamHandler) Reset(c *gin.Context) {
	session := h.user(c).Exam(c.Request.Context())
	if err := session.Reset(c.Request.Context()); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrExamNotActive)
		return
	}
	response.Success(c, http.StatusOK, session.View())
}

// History godoc
// GET /api/v1/exam/history?page=&per_page=
// Reads the durable archive written by the history worker.
func (h *ExamHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	records, total, err := h.historyRepo.ListByUser(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	response.SuccessWithPagination(c, http.StatusOK, records, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deepv/driving-backend/internal/bank"
	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/response"
)

// QuestionHandler serves the read-only loaded banks.
type QuestionHandler struct {
	corpus *bank.Corpus
}

func NewQuestionHandler(corpus *bank.Corpus) *QuestionHandler {
	return &QuestionHandler{corpus: corpus}
}

// ListBank godoc
// GET /api/v1/banks/:bank/questions
func (h *QuestionHandler) ListBank(c *gin.Context) {
	b := model.Bank(c.Param("bank"))
	if !b.Valid() {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	questions := h.corpus.Questions(b)
	if questions == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrBankUnavailable)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"bank":      b,
		"count":     len(questions),
		"questions": questions,
	})
}

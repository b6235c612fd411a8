package handler

import (
	"net/http"

	"mazi-recorder/internal/store"
	"mazi-recorder/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	store *store.QuestionStore
}

func NewQuestionHandler(store *store.QuestionStore) *QuestionHandler {
	return &QuestionHandler{store: store}
}

func (h *QuestionHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.QuestionsResponse{Questions: h.store.Questions()}))
}

func (h *QuestionHandler) Add(c *gin.Context) {
	var req httpdto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidInput(err.Error()))
		return
	}
	if !h.store.AddQuestion(req.Question) {
		respondError(c, invalidInput("question must not be blank"))
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.QuestionsResponse{Questions: h.store.Questions()}))
}

func (h *QuestionHandler) Remove(c *gin.Context) {
	var req httpdto.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidInput(err.Error()))
		return
	}
	if !h.store.RemoveQuestion(req.Question) {
		respondError(c, errQuestionNotFound)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.QuestionsResponse{Questions: h.store.Questions()}))
}

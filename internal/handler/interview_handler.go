package handler

import (
	"net/http"
	"strings"

	"mazi-recorder/internal/services"
	"mazi-recorder/internal/store"
	"mazi-recorder/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type InterviewHandler struct {
	store       *store.InterviewStore
	submissions *services.SubmissionService
}

func NewInterviewHandler(store *store.InterviewStore, submissions *services.SubmissionService) *InterviewHandler {
	return &InterviewHandler{store: store, submissions: submissions}
}

func (h *InterviewHandler) Create(c *gin.Context) {
	created := h.store.CreateInterview()
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewInterviewDTO(created)))
}

func (h *InterviewHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"interviews": httpdto.NewInterviewDTOs(h.store.Interviews()),
	}))
}

// Current returns the interview the recorder should continue with.
func (h *InterviewHandler) Current(c *gin.Context) {
	current := h.store.FetchLatestIncompleteOrCreateNewInterview()
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewInterviewDTO(current)))
}

func (h *InterviewHandler) GetByID(c *gin.Context) {
	item, ok := h.store.Interview(c.Param("id"))
	if !ok {
		respondError(c, errInterviewNotFound)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewInterviewDTO(item)))
}

func (h *InterviewHandler) Update(c *gin.Context) {
	var req httpdto.UpdateInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidInput(err.Error()))
		return
	}
	updated, ok := h.store.UpdateInterview(c.Param("id"), req.ToUpdate())
	if !ok {
		respondError(c, errInterviewNotFound)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewInterviewDTO(updated)))
}

func (h *InterviewHandler) SaveAttachment(c *gin.Context) {
	var req httpdto.SaveAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidInput(err.Error()))
		return
	}
	snapshot, ok := h.store.Interview(c.Param("id"))
	if !ok {
		respondError(c, errInterviewNotFound)
		return
	}
	updated, ok := h.store.UpdateAttachment(snapshot, req.ToAttachment())
	if !ok {
		respondError(c, errInterviewNotFound)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewInterviewDTO(updated)))
}

func (h *InterviewHandler) GetAttachment(c *gin.Context) {
	question := strings.TrimSpace(c.Query("question"))
	if question == "" {
		respondError(c, invalidInput("question is required"))
		return
	}
	att, ok := h.store.Attachment(question)
	if !ok {
		respondError(c, errAttachmentNotFound)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewAttachmentDTO(att)))
}

func (h *InterviewHandler) Submit(c *gin.Context) {
	result, err := h.submissions.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SubmitResponse{
		ServerID:  result.ServerID,
		Submitted: httpdto.NewInterviewDTO(result.Submitted),
		Next:      httpdto.NewInterviewDTO(result.Next),
	}))
}

func (h *InterviewHandler) SubmissionState(c *gin.Context) {
	state, ok := h.submissions.State(c.Param("id"))
	if !ok {
		respondError(c, errInterviewNotFound)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(state))
}

package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"mazi-recorder/internal/domain/interview"
	"mazi-recorder/internal/domain/submission"
	"mazi-recorder/internal/observable"
	"mazi-recorder/internal/services"
	"mazi-recorder/internal/store"
	"mazi-recorder/internal/transport/httpdto"
	"mazi-recorder/pkg/events"
	"mazi-recorder/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler upgrades requests to WebSocket streams of store values.
type Handler struct {
	hub         *Hub
	interviews  *store.InterviewStore
	questions   *store.QuestionStore
	submissions *services.SubmissionService
	log         *logger.Logger
	upgrader    websocket.Upgrader
}

func NewHandler(hub *Hub, interviews *store.InterviewStore, questions *store.QuestionStore, submissions *services.SubmissionService, log *logger.Logger) *Handler {
	return &Handler{
		hub:         hub,
		interviews:  interviews,
		questions:   questions,
		submissions: submissions,
		log:         logger.OrNop(log).Named("websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// StreamInterviews streams the whole interview list whenever it changes.
func (h *Handler) StreamInterviews(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	h.serve(NewClient(conn), nil, func(ctx context.Context, client *Client) {
		forward(ctx, client, h.interviews.ObserveInterviews(), events.TypeInterviews, func(list []interview.Interview) any {
			return gin.H{"interviews": httpdto.NewInterviewDTOs(list)}
		})
	})
}

// StreamInterview streams an interview as it changes, plus the state events
// of its submissions.
func (h *Handler) StreamInterview(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.interviews.Interview(id); !ok {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("interview not found", "NOT_FOUND"))
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	h.serve(NewClient(conn), []string{events.InterviewChannel(id)}, func(ctx context.Context, client *Client) {
		forward(ctx, client, h.interviews.ObserveInterview(id), events.TypeInterview, func(i interview.Interview) any {
			return httpdto.NewInterviewDTO(i)
		})
	})
}

// StreamSubmission streams the submission state of an interview, starting
// with the latest known state.
func (h *Handler) StreamSubmission(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.interviews.Interview(id); !ok {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("interview not found", "NOT_FOUND"))
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	h.serve(NewClient(conn), nil, func(ctx context.Context, client *Client) {
		forward(ctx, client, h.submissions.ObserveState(id), events.TypeSubmissionState, func(st submission.State) any {
			return st
		})
	})
}

// StreamAttachment streams the answer recorded for the question given in
// the query string.
func (h *Handler) StreamAttachment(c *gin.Context) {
	question := strings.TrimSpace(c.Query("question"))
	if question == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("question is required", "INVALID_REQUEST"))
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	h.serve(NewClient(conn), nil, func(ctx context.Context, client *Client) {
		forward(ctx, client, h.interviews.ObserveAttachment(question), events.TypeAttachment, func(a interview.Attachment) any {
			return httpdto.NewAttachmentDTO(a)
		})
	})
}

// StreamQuestions streams the question registry.
func (h *Handler) StreamQuestions(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	h.serve(NewClient(conn), nil, func(ctx context.Context, client *Client) {
		forward(ctx, client, h.questions.Observe(), events.TypeQuestions, func(q []string) any {
			return httpdto.QuestionsResponse{Questions: q}
		})
	})
}

func (h *Handler) serve(client *Client, channels []string, produce func(ctx context.Context, client *Client)) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	for _, channel := range channels {
		h.hub.Subscribe(client, channel)
	}
	h.log.Debugf("client %s connected", client.ID)

	go client.WriteLoop(ctx)
	go produce(ctx, client)

	client.ReadLoop()

	h.hub.Unregister(client)
	h.log.Debugf("client %s disconnected", client.ID)
}

func forward[T any](ctx context.Context, client *Client, sub *observable.Subscription[T], eventType string, convert func(T) any) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := json.Marshal(events.New(eventType, convert(v)))
			if err != nil {
				continue
			}
			client.SendMessage(data)
		}
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mazi-recorder/internal/domain/interview"
	"mazi-recorder/internal/persistence"
	"mazi-recorder/internal/services"
	"mazi-recorder/internal/store"
	"mazi-recorder/pkg/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type streamEnv struct {
	url        string
	hub        *Hub
	interviews *store.InterviewStore
	questions  *store.QuestionStore
}

func newStreamEnv(t *testing.T) *streamEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := persistence.NewMemoryProvider()
	interviews := store.NewInterviewStore(context.Background(), provider, store.WithDebounce(10*time.Millisecond))
	questions := store.NewQuestionStore(context.Background(), provider, store.WithDebounce(10*time.Millisecond))
	t.Cleanup(interviews.Close)
	t.Cleanup(questions.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)

	h := NewHandler(hub, interviews, questions, services.NewSubmissionService(interviews, nil, hub, nil), nil)
	r := gin.New()
	r.GET("/ws/interviews", h.StreamInterviews)
	r.GET("/ws/interviews/:id", h.StreamInterview)
	r.GET("/ws/attachments", h.StreamAttachment)
	r.GET("/ws/questions", h.StreamQuestions)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &streamEnv{
		url:        "ws" + strings.TrimPrefix(srv.URL, "http"),
		hub:        hub,
		interviews: interviews,
		questions:  questions,
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type rawEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readEvent(t *testing.T, conn *websocket.Conn) rawEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev rawEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	return ev
}

func TestStreamQuestions_InitialAndUpdates(t *testing.T) {
	env := newStreamEnv(t)
	env.questions.AddQuestion("Q1")

	conn := dial(t, env.url+"/ws/questions")
	first := readEvent(t, conn)
	if first.Type != events.TypeQuestions || !strings.Contains(string(first.Payload), "Q1") {
		t.Fatalf("first=%s %s", first.Type, first.Payload)
	}

	env.questions.AddQuestion("Q2")
	next := readEvent(t, conn)
	if !strings.Contains(string(next.Payload), "Q2") {
		t.Fatalf("next=%s", next.Payload)
	}
}

func TestStreamInterview_ForwardsChangesAndChannelEvents(t *testing.T) {
	env := newStreamEnv(t)
	created := env.interviews.CreateInterview()

	conn := dial(t, env.url+"/ws/interviews/"+created.Identifier)
	if ev := readEvent(t, conn); ev.Type != events.TypeInterview {
		t.Fatalf("type=%s", ev.Type)
	}

	env.interviews.UpdateInterview(created.Identifier, interview.InterviewUpdate{Name: interview.Change("Petros")})
	ev := readEvent(t, conn)
	if ev.Type != events.TypeInterview || !strings.Contains(string(ev.Payload), "Petros") {
		t.Fatalf("ev=%s %s", ev.Type, ev.Payload)
	}

	channel := events.InterviewChannel(created.Identifier)
	deadline := time.Now().Add(2 * time.Second)
	for env.hub.SubscriberCount(channel) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := env.hub.Publish(context.Background(), channel, events.New(events.TypeSubmissionState, map[string]string{"status": "SENDING_INTERVIEW"})); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ev := readEvent(t, conn); ev.Type != events.TypeSubmissionState {
		t.Fatalf("type=%s", ev.Type)
	}
}

func TestStreamInterviews_ListChanges(t *testing.T) {
	env := newStreamEnv(t)
	first := env.interviews.CreateInterview()

	conn := dial(t, env.url+"/ws/interviews")
	ev := readEvent(t, conn)
	if ev.Type != events.TypeInterviews || !strings.Contains(string(ev.Payload), first.Identifier) {
		t.Fatalf("ev=%s %s", ev.Type, ev.Payload)
	}

	second := env.interviews.CreateInterview()
	ev = readEvent(t, conn)
	var payload struct {
		Interviews []struct {
			ID string `json:"id"`
		} `json:"interviews"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if len(payload.Interviews) != 2 || payload.Interviews[1].ID != second.Identifier {
		t.Fatalf("payload=%s", ev.Payload)
	}
}

func TestStreamInterview_UnknownInterview(t *testing.T) {
	env := newStreamEnv(t)
	_, resp, err := websocket.DefaultDialer.Dial(env.url+"/ws/interviews/missing", nil)
	if err == nil {
		t.Fatalf("expected dial failure")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Fatalf("resp=%v", resp)
	}
}

func TestStreamAttachment_RequiresQuestion(t *testing.T) {
	env := newStreamEnv(t)
	_, resp, err := websocket.DefaultDialer.Dial(env.url+"/ws/attachments", nil)
	if err == nil || resp == nil || resp.StatusCode != 400 {
		t.Fatalf("err=%v resp=%v", err, resp)
	}
}

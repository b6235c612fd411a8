package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"mazi-recorder/internal/persistence"
	"mazi-recorder/pkg/events"

	"github.com/redis/go-redis/v9"
)

type capturePublish struct {
	channel string
	message []byte
}

func (c *capturePublish) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	c.channel = channel
	c.message, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(1)
	return cmd
}

func TestPublisher_EncodesEvent(t *testing.T) {
	client := &capturePublish{}
	p := NewPublisher(client)

	err := p.Publish(context.Background(), events.InterviewChannel("iv-1"), events.New(events.TypeSubmissionState, map[string]string{"status": "COMPLETED"}))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if client.channel != "interview:iv-1" {
		t.Fatalf("channel=%q", client.channel)
	}
	var got struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	if err := json.Unmarshal(client.message, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != events.TypeSubmissionState || got.Payload["status"] != "COMPLETED" {
		t.Fatalf("got=%+v", got)
	}
}

func TestStateStore_Key(t *testing.T) {
	s := NewStateStore(nil, "mazi:store:")
	if got := s.Key("InterviewStore"); got != "mazi:store:InterviewStore" {
		t.Fatalf("key=%q", got)
	}
	if s.Name() != "redis" {
		t.Fatalf("name=%q", s.Name())
	}
}

type fakeStrings struct {
	values     map[string]string
	getErr     error
	setKey     string
	setValue   interface{}
	expiration time.Duration
}

func (f *fakeStrings) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeStrings) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.setKey, f.setValue, f.expiration = key, value, expiration
	return redis.NewStatusResult("OK", nil)
}

func TestStateStore_LoadAndSave(t *testing.T) {
	client := &fakeStrings{values: map[string]string{"mazi:store:QuestionStore": `["Q1"]`}}
	s := NewStateStore(client, "mazi:store:")

	data, err := s.Load(context.Background(), "QuestionStore")
	if err != nil || string(data) != `["Q1"]` {
		t.Fatalf("data=%s err=%v", data, err)
	}
	if _, err := s.Load(context.Background(), "InterviewStore"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("missing key err=%v", err)
	}

	if err := s.Save(context.Background(), "InterviewStore", []byte(`[]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if client.setKey != "mazi:store:InterviewStore" || client.expiration != 0 {
		t.Fatalf("key=%q expiration=%v", client.setKey, client.expiration)
	}
	if v, ok := client.setValue.([]byte); !ok || string(v) != `[]` {
		t.Fatalf("value=%v", client.setValue)
	}
}

func TestStateStore_LoadPassesThroughErrors(t *testing.T) {
	boom := errors.New("connection refused")
	s := NewStateStore(&fakeStrings{getErr: boom}, "mazi:store:")
	if _, err := s.Load(context.Background(), "InterviewStore"); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

type fakeSource struct {
	messages chan *redis.Message
	err      error
	closed   bool
}

func (f *fakeSource) ReceiveMessage(ctx context.Context) (*redis.Message, error) {
	select {
	case msg, ok := <-f.messages:
		if !ok {
			return nil, f.err
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func newFakeSubscriber(src *fakeSource, patterns *[]string) *Subscriber {
	return &Subscriber{open: func(_ context.Context, p ...string) messageSource {
		*patterns = p
		return src
	}}
}

func TestSubscriber_RelaysUntilCancelled(t *testing.T) {
	src := &fakeSource{messages: make(chan *redis.Message, 2)}
	src.messages <- &redis.Message{Channel: "interview:a", Payload: "one"}
	src.messages <- &redis.Message{Channel: "interview:b", Payload: "two"}

	var patterns []string
	sub := newFakeSubscriber(src, &patterns)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 2)
	done := make(chan error, 1)
	go func() {
		done <- sub.Subscribe(ctx, []string{events.InterviewChannel("*")}, func(channel string, payload []byte) {
			got <- channel + "=" + string(payload)
		})
	}()

	for _, want := range []string{"interview:a=one", "interview:b=two"} {
		select {
		case v := <-got:
			if v != want {
				t.Fatalf("got %q want %q", v, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("no message for %q", want)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("err=%v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber did not stop")
	}
	if len(patterns) != 1 || patterns[0] != "interview:*" {
		t.Fatalf("patterns=%v", patterns)
	}
	if !src.closed {
		t.Fatalf("subscription not closed")
	}
}

func TestSubscriber_ReportsConnectionErrors(t *testing.T) {
	boom := errors.New("connection reset")
	src := &fakeSource{messages: make(chan *redis.Message), err: boom}
	close(src.messages)

	var patterns []string
	err := newFakeSubscriber(src, &patterns).Subscribe(context.Background(), []string{"interview:*"}, func(string, []byte) {})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

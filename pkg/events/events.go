package events

import (
	"context"
	"time"
)

type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

const (
	TypeInterview       = "interview"
	TypeInterviews      = "interviews"
	TypeAttachment      = "attachment"
	TypeQuestions       = "questions"
	TypeSubmissionState = "submission.state"
)

func New(eventType string, payload interface{}) Event {
	return Event{Type: eventType, Payload: payload, Timestamp: time.Now().UnixMilli()}
}

// InterviewChannel is the channel submission events of one interview are
// published on.
func InterviewChannel(interviewID string) string {
	return "interview:" + interviewID
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

package network

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mazi-recorder/internal/domain/interview"
	"mazi-recorder/internal/domain/submission"
	"mazi-recorder/pkg/logger"
)

const (
	DefaultRequestTimeout = 15 * time.Second
	DefaultUploadTimeout  = 60 * time.Second

	imageMimeType     = "image/jpeg"
	recordingMimeType = "audio/wav"
	uploadFieldName   = "file"
	serverIDField     = "_id"
)

// StateObserver receives every state a submission passes through.
type StateObserver func(submission.State)

type SubmitterConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
}

// Submitter sends one interview with its photo and recordings to the
// backend.
type Submitter struct {
	client *Client
	cfg    SubmitterConfig
	log    *logger.Logger
}

func NewSubmitter(client *Client, cfg SubmitterConfig, log *logger.Logger) *Submitter {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if client == nil {
		client = NewClient(&http.Client{}, log)
	}
	return &Submitter{client: client, cfg: cfg, log: logger.OrNop(log).Named("submitter")}
}

type uploadTask struct {
	name string
	run  func(ctx context.Context) error
}

// SendInterview runs the whole submission and returns the id the backend
// assigned to the interview. The interview is created first; the photo and
// the attachments are uploaded one after another only once its id is known.
// Any failure aborts the submission, and a retry starts over from scratch.
func (s *Submitter) SendInterview(ctx context.Context, iv interview.Interview, observe StateObserver) (string, error) {
	if observe == nil {
		observe = func(submission.State) {}
	}
	state := submission.NotStarted(iv.Identifier)
	observe(state)

	state = state.SendingInterview()
	observe(state)

	interviewID, err := s.createInterview(ctx, iv)
	if err != nil {
		s.log.Errorf("sending interview %s failed: %v", iv.Identifier, err)
		observe(state.Failed(err, ErrorCode(err)))
		return "", err
	}

	tasks := s.buildTasks(iv, interviewID)
	for i, task := range tasks {
		observe(state.UploadingAssets(len(tasks) - i))
		if err := task.run(ctx); err != nil {
			s.log.Errorf("%s for interview %s failed: %v", task.name, iv.Identifier, err)
			observe(state.Failed(err, ErrorCode(err)))
			return "", err
		}
	}

	s.log.Infof("submitted interview %s as %s with %d uploads", iv.Identifier, interviewID, len(tasks))
	observe(state.Completed(interviewID))
	return interviewID, nil
}

func (s *Submitter) createInterview(ctx context.Context, iv interview.Interview) (string, error) {
	target := s.cfg.BaseURL + "/interviews"
	resp, err := s.client.PostJSON(ctx, target, map[string]string{
		"name": iv.Name,
		"role": iv.Role,
		"text": iv.Text,
	}, s.cfg.RequestTimeout)
	if err != nil {
		return "", err
	}
	return extractID(target, resp)
}

func (s *Submitter) buildTasks(iv interview.Interview, interviewID string) []uploadTask {
	var tasks []uploadTask

	if iv.HasImage() {
		imagePath := *iv.ImageURL
		tasks = append(tasks, uploadTask{
			name: "image upload",
			run: func(ctx context.Context) error {
				target := s.cfg.BaseURL + "/upload/image/" + url.PathEscape(interviewID)
				return s.client.UploadMultipart(ctx, target, imagePath, uploadFieldName, imageMimeType, s.cfg.UploadTimeout)
			},
		})
	}

	for i, att := range iv.Attachments {
		tasks = append(tasks, uploadTask{
			name: fmt.Sprintf("attachment %d upload", i),
			run: func(ctx context.Context) error {
				return s.sendAttachment(ctx, interviewID, att)
			},
		})
	}
	return tasks
}

func (s *Submitter) sendAttachment(ctx context.Context, interviewID string, att interview.Attachment) error {
	target := s.cfg.BaseURL + "/attachments"
	tags := att.Tags
	if tags == nil {
		tags = []string{}
	}
	resp, err := s.client.PostJSON(ctx, target, map[string]any{
		"text":      att.QuestionText,
		"tags":      tags,
		"interview": interviewID,
	}, s.cfg.RequestTimeout)
	if err != nil {
		return err
	}
	attachmentID, err := extractID(target, resp)
	if err != nil {
		return err
	}

	uploadTarget := s.cfg.BaseURL + "/upload/attachment/" + url.PathEscape(attachmentID)
	return s.client.UploadMultipart(ctx, uploadTarget, att.RecordingURL, uploadFieldName, recordingMimeType, s.cfg.UploadTimeout)
}

func extractID(target string, resp map[string]any) (string, error) {
	id, ok := resp[serverIDField].(string)
	if !ok || id == "" {
		return "", &NetworkError{
			Op:   http.MethodPost,
			URL:  target,
			Code: CodeMissingID,
			Err:  fmt.Errorf("response has no %s", serverIDField),
		}
	}
	return id, nil
}

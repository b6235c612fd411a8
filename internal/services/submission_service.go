package services

import (
	"context"
	"fmt"
	"sync"

	"mazi-recorder/internal/domain/interview"
	"mazi-recorder/internal/domain/submission"
	"mazi-recorder/internal/network"
	"mazi-recorder/internal/observable"
	"mazi-recorder/internal/store"
	recorder_errors "mazi-recorder/pkg/errors"
	"mazi-recorder/pkg/events"
	"mazi-recorder/pkg/logger"
)

// Pipeline sends one interview snapshot to the backend.
type Pipeline interface {
	SendInterview(ctx context.Context, iv interview.Interview, observe network.StateObserver) (string, error)
}

type SubmitResult struct {
	ServerID  string              `json:"server_id"`
	Submitted interview.Interview `json:"submitted"`
	Next      interview.Interview `json:"next"`
}

// SubmissionService drives submissions of stored interviews and records the
// outcome back into the store.
type SubmissionService struct {
	store     *store.InterviewStore
	pipeline  Pipeline
	publisher events.Publisher
	log       *logger.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
	states   map[string]*observable.Property[submission.State]
}

func NewSubmissionService(interviews *store.InterviewStore, pipeline Pipeline, publisher events.Publisher, log *logger.Logger) *SubmissionService {
	return &SubmissionService{
		store:     interviews,
		pipeline:  pipeline,
		publisher: publisher,
		log:       logger.OrNop(log).Named("submission"),
		inFlight:  make(map[string]struct{}),
		states:    make(map[string]*observable.Property[submission.State]),
	}
}

// Submit sends the current snapshot of the interview. On success the server
// id is stored on the interview and the interview the user should continue
// with is returned as Next.
func (s *SubmissionService) Submit(ctx context.Context, interviewID string) (SubmitResult, error) {
	if _, err := s.submittable(interviewID); err != nil {
		return SubmitResult{}, err
	}
	if !s.begin(interviewID) {
		return SubmitResult{}, fmt.Errorf("interview %s is being submitted: %w", interviewID, recorder_errors.ErrConflict)
	}
	defer s.finish(interviewID)

	// A submission that finished between the first check and begin has
	// already stored its server id.
	snapshot, err := s.submittable(interviewID)
	if err != nil {
		return SubmitResult{}, err
	}

	ctx = context.WithValue(ctx, logger.InterviewIdKey, interviewID)
	log := s.log.WithContext(ctx)

	serverID, err := s.pipeline.SendInterview(ctx, snapshot, func(state submission.State) {
		s.record(ctx, state)
	})
	if err != nil {
		log.Warnf("submission failed with code %d: %v", network.ErrorCode(err), err)
		return SubmitResult{}, err
	}

	submitted, ok := s.store.UpdateInterviewFrom(snapshot, interview.InterviewUpdate{
		IdentifierOnServer: interview.Change(recorder_errors.StringPtr(serverID)),
	})
	if !ok {
		// The interview vanished while uploading; the backend still has it.
		log.Warnf("interview disappeared before server id %s could be stored", serverID)
		submitted = snapshot
		submitted.IdentifierOnServer = recorder_errors.StringPtr(serverID)
	}

	return SubmitResult{
		ServerID:  serverID,
		Submitted: submitted,
		Next:      s.store.FetchLatestIncompleteOrCreateNewInterview(),
	}, nil
}

// State returns the latest submission state of an interview. Interviews
// this process never submitted report NotStarted, or Completed when they
// already carry a server id. The bool is false for unknown interviews.
func (s *SubmissionService) State(interviewID string) (submission.State, bool) {
	if _, ok := s.store.Interview(interviewID); !ok {
		return submission.State{}, false
	}
	return s.property(interviewID).Value(), true
}

// ObserveState streams the submission states of an interview, starting with
// the same state State reports.
func (s *SubmissionService) ObserveState(interviewID string) *observable.Subscription[submission.State] {
	return s.property(interviewID).Subscribe()
}

func (s *SubmissionService) property(interviewID string) *observable.Property[submission.State] {
	s.mu.Lock()
	defer s.mu.Unlock()
	prop, ok := s.states[interviewID]
	if !ok {
		prop = observable.NewProperty(s.initialState(interviewID))
		s.states[interviewID] = prop
	}
	return prop
}

func (s *SubmissionService) initialState(interviewID string) submission.State {
	state := submission.NotStarted(interviewID)
	if item, ok := s.store.Interview(interviewID); ok && item.IsSubmitted() {
		return state.Completed(*item.IdentifierOnServer)
	}
	return state
}

func (s *SubmissionService) submittable(interviewID string) (interview.Interview, error) {
	snapshot, ok := s.store.Interview(interviewID)
	if !ok {
		return interview.Interview{}, fmt.Errorf("interview %s: %w", interviewID, recorder_errors.ErrNotFound)
	}
	if snapshot.IsSubmitted() {
		return interview.Interview{}, fmt.Errorf("interview %s already submitted as %s: %w", interviewID, *snapshot.IdentifierOnServer, recorder_errors.ErrConflict)
	}
	return snapshot, nil
}

func (s *SubmissionService) record(ctx context.Context, state submission.State) {
	s.property(state.InterviewID).Set(state)
	if s.publisher == nil {
		return
	}
	channel := events.InterviewChannel(state.InterviewID)
	if err := s.publisher.Publish(ctx, channel, events.New(events.TypeSubmissionState, state)); err != nil {
		s.log.Warnf("failed to publish submission state on %s: %v", channel, err)
	}
}

func (s *SubmissionService) begin(interviewID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[interviewID]; busy {
		return false
	}
	s.inFlight[interviewID] = struct{}{}
	return true
}

func (s *SubmissionService) finish(interviewID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, interviewID)
}

package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"mazi-recorder/internal/domain/interview"
	"mazi-recorder/internal/observable"
	"mazi-recorder/internal/persistence"
	"mazi-recorder/pkg/logger"
)

const InterviewStoreKey = "InterviewStore"

// InterviewStore is the single source of truth for all interviews on the
// device. Every write replaces the whole collection; published collections
// are never modified afterwards, so readers only ever see complete, possibly
// stale, snapshots.
type InterviewStore struct {
	// mu serialises writers so read-modify-write cycles do not interleave.
	mu         sync.Mutex
	interviews *observable.Property[[]interview.Interview]
	persister  *persistence.Persister[[]interview.Interview]
	now        func() time.Time
	log        *logger.Logger
}

// NewInterviewStore loads the persisted collection, if any, and starts
// writing changes back to provider. Load failures are logged and the store
// starts empty.
func NewInterviewStore(ctx context.Context, provider persistence.Provider, opts ...Option) *InterviewStore {
	o := buildOptions(opts)
	log := o.log.Named("interview_store")

	loaded := loadInterviews(ctx, provider, log)
	interview.SortByCreationDate(loaded)

	prop := observable.NewProperty(loaded)
	return &InterviewStore{
		interviews: prop,
		persister:  persistence.NewPersister(prop, provider, InterviewStoreKey, o.debounce, interview.EqualSlices, log),
		now:        o.now,
		log:        log,
	}
}

func loadInterviews(ctx context.Context, provider persistence.Provider, log *logger.Logger) []interview.Interview {
	data, err := provider.Load(ctx, InterviewStoreKey)
	if errors.Is(err, persistence.ErrNotFound) {
		log.Infof("there was no model to load")
		return []interview.Interview{}
	}
	if err != nil {
		log.Errorf("failed to load interviews from %s: %v", provider.Name(), err)
		return []interview.Interview{}
	}
	interviews, err := interview.DecodeInterviews(data)
	if err != nil {
		log.Errorf("stored interviews are malformed, starting empty: %v", err)
		return []interview.Interview{}
	}
	log.Infof("loaded %d interviews from %s", len(interviews), provider.Name())
	return interviews
}

// Interviews returns a snapshot of the collection, oldest first.
func (s *InterviewStore) Interviews() []interview.Interview {
	return slices.Clone(s.interviews.Value())
}

// Interview looks up one interview by identifier.
func (s *InterviewStore) Interview(identifier string) (interview.Interview, bool) {
	return findInterview(s.interviews.Value(), identifier)
}

// CreateInterview adds a new empty interview and returns it.
func (s *InterviewStore) CreateInterview() interview.Interview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked()
}

func (s *InterviewStore) createLocked() interview.Interview {
	created := interview.New(s.now())
	current := s.interviews.Value()
	next := make([]interview.Interview, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, created)
	s.interviews.Set(next)

	s.log.Infof("created interview %s", created.Identifier)
	return created
}

// FetchLatestIncompleteOrCreateNewInterview returns the most recently created
// interview that has not been submitted yet, creating one if there is none.
func (s *InterviewStore) FetchLatestIncompleteOrCreateNewInterview() interview.Interview {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.interviews.Value()
	for i := len(current) - 1; i >= 0; i-- {
		if !current[i].IsSubmitted() {
			return current[i]
		}
	}
	return s.createLocked()
}

// UpdateInterview merges update into the interview with the given
// identifier. An unknown identifier is ignored: the bool result is false and
// the collection is left untouched.
func (s *InterviewStore) UpdateInterview(identifier string, update interview.InterviewUpdate) (interview.Interview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(identifier, update)
}

// UpdateInterviewFrom is UpdateInterview keyed by a snapshot's identifier.
// update is applied to the stored copy, not to snapshot, so changes made
// after the snapshot was taken are kept.
func (s *InterviewStore) UpdateInterviewFrom(snapshot interview.Interview, update interview.InterviewUpdate) (interview.Interview, bool) {
	return s.UpdateInterview(snapshot.Identifier, update)
}

func (s *InterviewStore) updateLocked(identifier string, update interview.InterviewUpdate) (interview.Interview, bool) {
	current := s.interviews.Value()
	index := slices.IndexFunc(current, func(i interview.Interview) bool { return i.Identifier == identifier })
	if index < 0 {
		s.log.Debugf("ignoring update for unknown interview %s", identifier)
		return interview.Interview{}, false
	}

	updated := interview.Apply(current[index], update)
	next := make([]interview.Interview, 0, len(current))
	next = append(next, current[:index]...)
	next = append(next, current[index+1:]...)
	next = append(next, updated)
	interview.SortByCreationDate(next)
	s.interviews.Set(next)

	s.log.Infof("updated interview %s", identifier)
	return updated, true
}

// UpdateAttachment stores att as the answer to its question: an existing
// answer to the same question is replaced at its position, otherwise att is
// appended. The stored copy of snap is used so concurrent attachment saves
// for different questions do not overwrite each other.
func (s *InterviewStore) UpdateAttachment(snap interview.Interview, att interview.Attachment) (interview.Interview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, ok := findInterview(s.interviews.Value(), snap.Identifier)
	if !ok {
		s.log.Debugf("ignoring attachment for unknown interview %s", snap.Identifier)
		return interview.Interview{}, false
	}
	attachments := interview.ReplaceAttachment(base.Attachments, att)
	return s.updateLocked(snap.Identifier, interview.InterviewUpdate{
		Attachments: interview.Change(attachments),
	})
}

// ObserveInterview streams the interview with the given identifier: its
// current value first, then each changed version. Nothing is delivered
// while the interview does not exist.
func (s *InterviewStore) ObserveInterview(identifier string) *observable.Subscription[interview.Interview] {
	return observable.SubscribeMap(s.interviews, func(all []interview.Interview) (interview.Interview, bool) {
		return findInterview(all, identifier)
	}, interview.Interview.Equal)
}

// ObserveAttachment streams the answer recorded for questionText across all
// interviews. If several interviews answer it, the newest one wins.
func (s *InterviewStore) ObserveAttachment(questionText string) *observable.Subscription[interview.Attachment] {
	return observable.SubscribeMap(s.interviews, func(all []interview.Interview) (interview.Attachment, bool) {
		return findAttachment(all, questionText)
	}, interview.Attachment.Equal)
}

// Attachment returns the answer recorded for questionText, with the same
// lookup rules as ObserveAttachment.
func (s *InterviewStore) Attachment(questionText string) (interview.Attachment, bool) {
	return findAttachment(s.interviews.Value(), questionText)
}

// ObserveInterviews streams the whole collection.
func (s *InterviewStore) ObserveInterviews() *observable.Subscription[[]interview.Interview] {
	return observable.SubscribeMap(s.interviews, func(all []interview.Interview) ([]interview.Interview, bool) {
		return all, true
	}, interview.EqualSlices)
}

// Flush writes the current collection without waiting for the quiet period.
func (s *InterviewStore) Flush() {
	s.persister.Flush()
}

// Close writes pending changes and ends all subscriptions.
func (s *InterviewStore) Close() {
	s.persister.Close()
	s.interviews.Close()
}

func findInterview(all []interview.Interview, identifier string) (interview.Interview, bool) {
	for _, i := range all {
		if i.Identifier == identifier {
			return i, true
		}
	}
	return interview.Interview{}, false
}

func findAttachment(all []interview.Interview, questionText string) (interview.Attachment, bool) {
	var (
		found interview.Attachment
		ok    bool
	)
	for _, i := range all {
		for _, a := range i.Attachments {
			if a.QuestionText == questionText {
				found, ok = a, true
			}
		}
	}
	return found, ok
}

package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"mazi-recorder/internal/observable"
	"mazi-recorder/internal/persistence"
	"mazi-recorder/pkg/logger"
)

const QuestionStoreKey = "QuestionStore"

// QuestionStore is the editable list of questions asked in an interview.
// It keeps insertion order and does not reject duplicates.
type QuestionStore struct {
	mu        sync.Mutex
	questions *observable.Property[[]string]
	persister *persistence.Persister[[]string]
	log       *logger.Logger
}

func NewQuestionStore(ctx context.Context, provider persistence.Provider, opts ...Option) *QuestionStore {
	o := buildOptions(opts)
	log := o.log.Named("question_store")

	loaded, ok, err := persistence.LoadJSON[[]string](ctx, provider, QuestionStoreKey)
	switch {
	case err != nil:
		log.Errorf("failed to load questions from %s: %v", provider.Name(), err)
		loaded = []string{}
	case !ok:
		log.Infof("there was no model to load")
		loaded = []string{}
	default:
		log.Infof("loaded %d questions from %s", len(loaded), provider.Name())
	}
	if loaded == nil {
		loaded = []string{}
	}

	prop := observable.NewProperty(loaded)
	return &QuestionStore{
		questions: prop,
		persister: persistence.NewPersister(prop, provider, QuestionStoreKey, o.debounce, slices.Equal[[]string], log),
		log:       log,
	}
}

// Questions returns a snapshot of the registry.
func (s *QuestionStore) Questions() []string {
	return slices.Clone(s.questions.Value())
}

// AddQuestion appends question. Blank questions are ignored.
func (s *QuestionStore) AddQuestion(question string) bool {
	question = strings.TrimSpace(question)
	if question == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.questions.Value()
	next := make([]string, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, question)
	s.questions.Set(next)
	return true
}

// RemoveQuestion deletes the first occurrence of question. It reports
// whether anything was removed.
func (s *QuestionStore) RemoveQuestion(question string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.questions.Value()
	index := slices.Index(current, question)
	if index < 0 {
		return false
	}
	next := make([]string, 0, len(current)-1)
	next = append(next, current[:index]...)
	next = append(next, current[index+1:]...)
	s.questions.Set(next)
	return true
}

// SeedDefaults fills an empty registry with defaults. A registry that
// already has questions, even ones the user edited, is left alone.
func (s *QuestionStore) SeedDefaults(defaults []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.questions.Value()) > 0 || len(defaults) == 0 {
		return false
	}
	s.questions.Set(slices.Clone(defaults))
	s.log.Infof("seeded %d default questions", len(defaults))
	return true
}

// Observe streams the registry, current value first.
func (s *QuestionStore) Observe() *observable.Subscription[[]string] {
	return observable.SubscribeMap(s.questions, func(q []string) ([]string, bool) {
		return q, true
	}, slices.Equal[[]string])
}

func (s *QuestionStore) Flush() {
	s.persister.Flush()
}

func (s *QuestionStore) Close() {
	s.persister.Close()
	s.questions.Close()
}

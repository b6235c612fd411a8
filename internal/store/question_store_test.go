package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"mazi-recorder/internal/persistence"
)

func newQuestionStore(t *testing.T, provider persistence.Provider) *QuestionStore {
	t.Helper()
	s := NewQuestionStore(context.Background(), provider, WithDebounce(10*time.Millisecond))
	t.Cleanup(s.Close)
	return s
}

func TestQuestionStore_AddRemove(t *testing.T) {
	s := newQuestionStore(t, persistence.NewMemoryProvider())

	s.AddQuestion("Where do you live?")
	s.AddQuestion("  What do you do?  ")
	s.AddQuestion("Where do you live?")
	if s.AddQuestion("   ") {
		t.Fatalf("blank question accepted")
	}

	got := s.Questions()
	if strings.Join(got, "|") != "Where do you live?|What do you do?|Where do you live?" {
		t.Fatalf("got=%v", got)
	}

	if !s.RemoveQuestion("Where do you live?") {
		t.Fatalf("remove failed")
	}
	if strings.Join(s.Questions(), "|") != "What do you do?|Where do you live?" {
		t.Fatalf("got=%v", s.Questions())
	}
	if s.RemoveQuestion("unknown") {
		t.Fatalf("removed unknown question")
	}
}

func TestQuestionStore_Observe(t *testing.T) {
	s := newQuestionStore(t, persistence.NewMemoryProvider())
	sub := s.Observe()
	defer sub.Close()

	if got := <-sub.C(); len(got) != 0 {
		t.Fatalf("got=%v", got)
	}
	s.AddQuestion("Q1")
	select {
	case got := <-sub.C():
		if len(got) != 1 || got[0] != "Q1" {
			t.Fatalf("got=%v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("no update")
	}
}

func TestQuestionStore_SeedDefaultsOnlyWhenEmpty(t *testing.T) {
	s := newQuestionStore(t, persistence.NewMemoryProvider())
	if !s.SeedDefaults([]string{"A", "B"}) {
		t.Fatalf("seed refused on empty registry")
	}
	if s.SeedDefaults([]string{"C"}) {
		t.Fatalf("seed overwrote registry")
	}
	if strings.Join(s.Questions(), "|") != "A|B" {
		t.Fatalf("got=%v", s.Questions())
	}
}

func TestQuestionStore_PersistsAcrossRestarts(t *testing.T) {
	provider := persistence.NewFileProvider(t.TempDir())

	first := NewQuestionStore(context.Background(), provider, WithDebounce(time.Hour))
	first.AddQuestion("Q1")
	first.AddQuestion("Q2")
	first.Close()

	second := newQuestionStore(t, provider)
	if strings.Join(second.Questions(), "|") != "Q1|Q2" {
		t.Fatalf("got=%v", second.Questions())
	}
}

package interview

import (
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTextLength bounds the synopsis, counted in characters.
const MaxTextLength = 1000

// Interview is one interview session. Values are replaced as a whole by the
// store; nothing mutates an Interview in place.
type Interview struct {
	Identifier         string       `json:"identifier"`
	CreationDate       time.Time    `json:"creationDate"`
	Name               string       `json:"name"`
	Role               string       `json:"role"`
	Text               string       `json:"text"`
	Attachments        []Attachment `json:"attachments"`
	ImageURL           *string      `json:"imageUrl,omitempty"`
	IdentifierOnServer *string      `json:"identifierOnServer,omitempty"`
}

// New returns an empty interview with a fresh identifier.
func New(now time.Time) Interview {
	return Interview{
		Identifier:   uuid.New().String(),
		CreationDate: now,
		Attachments:  []Attachment{},
	}
}

// IsSubmitted reports whether the backend has confirmed the interview.
func (i Interview) IsSubmitted() bool {
	return i.IdentifierOnServer != nil
}

func (i Interview) HasImage() bool {
	return i.ImageURL != nil && *i.ImageURL != ""
}

func (i Interview) Equal(other Interview) bool {
	return i.Identifier == other.Identifier &&
		i.CreationDate.Equal(other.CreationDate) &&
		i.Name == other.Name &&
		i.Role == other.Role &&
		i.Text == other.Text &&
		equalOptional(i.ImageURL, other.ImageURL) &&
		equalOptional(i.IdentifierOnServer, other.IdentifierOnServer) &&
		slices.EqualFunc(i.Attachments, other.Attachments, Attachment.Equal)
}

// Attachment returns the answer recorded for questionText.
func (i Interview) Attachment(questionText string) (Attachment, bool) {
	for _, a := range i.Attachments {
		if a.QuestionText == questionText {
			return a, true
		}
	}
	return Attachment{}, false
}

// ClampText cuts text to MaxTextLength characters.
func ClampText(text string) string {
	if utf8.RuneCountInString(text) <= MaxTextLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxTextLength])
}

// EqualSlices compares two interview collections element by element.
func EqualSlices(a, b []Interview) bool {
	return slices.EqualFunc(a, b, Interview.Equal)
}

// SortByCreationDate orders interviews oldest first. The sort is stable so
// interviews created at the same instant keep their relative order.
func SortByCreationDate(interviews []Interview) {
	slices.SortStableFunc(interviews, func(a, b Interview) int {
		return a.CreationDate.Compare(b.CreationDate)
	})
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

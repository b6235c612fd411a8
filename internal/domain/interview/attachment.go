package interview

import (
	"slices"
	"strings"
	"unicode"
)

// Attachment is one recorded answer to one question.
type Attachment struct {
	QuestionText      string   `json:"questionText"`
	Tags              []string `json:"tags"`
	RecordingURL      string   `json:"recordingUrl"`
	RecordingDuration int      `json:"recordingDuration"`
}

func (a Attachment) Equal(other Attachment) bool {
	return a.QuestionText == other.QuestionText &&
		a.RecordingURL == other.RecordingURL &&
		a.RecordingDuration == other.RecordingDuration &&
		slices.Equal(a.Tags, other.Tags)
}

// ParseTags turns the space separated tag field of the recorder into tags.
// Characters outside [A-Za-z0-9_] and whitespace are dropped first, so
// "#street art!" becomes ["street", "art"].
func ParseTags(raw string) []string {
	filtered := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, raw)
	return strings.Fields(filtered)
}

// JoinTags is the inverse of ParseTags for display.
func JoinTags(tags []string) string {
	return strings.Join(tags, " ")
}

// ReplaceAttachment returns a copy of attachments where the entry answering
// the same question is replaced in place. If no entry matches, att is
// appended. The input slice is never modified.
func ReplaceAttachment(attachments []Attachment, att Attachment) []Attachment {
	out := make([]Attachment, 0, len(attachments)+1)
	replaced := false
	for _, existing := range attachments {
		if !replaced && existing.QuestionText == att.QuestionText {
			out = append(out, att)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, att)
	}
	return out
}

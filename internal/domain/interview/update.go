package interview

import "encoding/json"

// Field is a single entry of a partial update: either left unchanged (the
// zero value) or set to Value. For pointer types a set nil Value clears the
// field, which is different from leaving it unchanged.
type Field[T any] struct {
	Set   bool
	Value T
}

// Change marks a field as set to v.
func Change[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Or returns the new value if the field is set, otherwise current.
func (f Field[T]) Or(current T) T {
	if f.Set {
		return f.Value
	}
	return current
}

// UnmarshalJSON marks the field as set whenever the key is present, so an
// explicit null for an optional field clears it while an absent key keeps it.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	return json.Unmarshal(data, &f.Value)
}

// InterviewUpdate describes a change to every mutable field of an Interview.
type InterviewUpdate struct {
	Name               Field[string]       `json:"name"`
	Role               Field[string]       `json:"role"`
	Text               Field[string]       `json:"text"`
	Attachments        Field[[]Attachment] `json:"attachments"`
	ImageURL           Field[*string]      `json:"imageUrl"`
	IdentifierOnServer Field[*string]      `json:"identifierOnServer"`
}

// IsEmpty reports whether the update leaves every field unchanged.
func (u InterviewUpdate) IsEmpty() bool {
	return !u.Name.Set && !u.Role.Set && !u.Text.Set &&
		!u.Attachments.Set && !u.ImageURL.Set && !u.IdentifierOnServer.Set
}

// Apply merges u into i. Identifier and CreationDate always come from i.
func Apply(i Interview, u InterviewUpdate) Interview {
	attachments := u.Attachments.Or(i.Attachments)
	if attachments == nil {
		attachments = []Attachment{}
	}
	return Interview{
		Identifier:         i.Identifier,
		CreationDate:       i.CreationDate,
		Name:               u.Name.Or(i.Name),
		Role:               u.Role.Or(i.Role),
		Text:               ClampText(u.Text.Or(i.Text)),
		Attachments:        attachments,
		ImageURL:           u.ImageURL.Or(i.ImageURL),
		IdentifierOnServer: u.IdentifierOnServer.Or(i.IdentifierOnServer),
	}
}

package interview

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Persisted records are decoded leniently: a missing or mistyped field falls
// back to its zero value instead of failing the whole collection.

var errNotObject = errors.New("not a JSON object")

func (a *Attachment) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errNotObject
	}
	*a = Attachment{
		QuestionText:      decodeOr(raw, "questionText", ""),
		Tags:              decodeOr(raw, "tags", []string{}),
		RecordingURL:      decodeOr(raw, "recordingUrl", ""),
		RecordingDuration: decodeOr(raw, "recordingDuration", 0),
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return nil
}

func (i *Interview) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errNotObject
	}
	*i = Interview{
		Identifier:         decodeOr(raw, "identifier", ""),
		CreationDate:       decodeOr(raw, "creationDate", time.Unix(0, 0).UTC()),
		Name:               decodeOr(raw, "name", ""),
		Role:               decodeOr(raw, "role", ""),
		Text:               decodeOr(raw, "text", ""),
		Attachments:        decodeAttachments(raw["attachments"]),
		ImageURL:           decodeOr[*string](raw, "imageUrl", nil),
		IdentifierOnServer: decodeOr[*string](raw, "identifierOnServer", nil),
	}
	if i.Identifier == "" {
		i.Identifier = uuid.New().String()
	}
	return nil
}

// DecodeInterviews decodes a persisted collection, skipping entries that are
// not JSON objects at all, null included.
func DecodeInterviews(data []byte) ([]Interview, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]Interview, 0, len(raw))
	for _, item := range raw {
		var i Interview
		if err := json.Unmarshal(item, &i); err != nil {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func decodeAttachments(data json.RawMessage) []Attachment {
	out := []Attachment{}
	if len(data) == 0 {
		return out
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return out
	}
	for _, item := range raw {
		var a Attachment
		if err := json.Unmarshal(item, &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}

func decodeOr[T any](raw map[string]json.RawMessage, key string, fallback T) T {
	data, ok := raw[key]
	if !ok || string(data) == "null" {
		return fallback
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fallback
	}
	return v
}

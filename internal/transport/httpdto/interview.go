package httpdto

import (
	"strings"
	"time"

	"mazi-recorder/internal/domain/interview"
)

// InterviewDTO represents an interview in API responses
type InterviewDTO struct {
	ID                 string          `json:"id"`
	CreationDate       string          `json:"creation_date"`
	Name               string          `json:"name"`
	Role               string          `json:"role"`
	Text               string          `json:"text"`
	Attachments        []AttachmentDTO `json:"attachments"`
	ImageURL           *string         `json:"image_url,omitempty"`
	IdentifierOnServer *string         `json:"identifier_on_server,omitempty"`
	Submitted          bool            `json:"submitted"`
}

// AttachmentDTO represents one recorded answer in API responses
type AttachmentDTO struct {
	QuestionText      string   `json:"question_text"`
	Tags              []string `json:"tags"`
	RecordingURL      string   `json:"recording_url"`
	RecordingDuration int      `json:"recording_duration"`
}

// UpdateInterviewRequest is used for PATCH /interviews/:id. Absent keys are
// left unchanged; "image_url": null removes the photo.
type UpdateInterviewRequest struct {
	Name     interview.Field[string]  `json:"name"`
	Role     interview.Field[string]  `json:"role"`
	Text     interview.Field[string]  `json:"text"`
	ImageURL interview.Field[*string] `json:"image_url"`
}

// SaveAttachmentRequest is used for PUT /interviews/:id/attachments. Tags
// may be given as a list, as the raw space separated text field, or both.
type SaveAttachmentRequest struct {
	QuestionText      string   `json:"question_text" binding:"required"`
	Tags              []string `json:"tags"`
	TagsText          string   `json:"tags_text"`
	RecordingURL      string   `json:"recording_url" binding:"required"`
	RecordingDuration int      `json:"recording_duration" binding:"gte=0"`
}

// SubmitResponse is returned after a successful submission
type SubmitResponse struct {
	ServerID  string       `json:"server_id"`
	Submitted InterviewDTO `json:"submitted"`
	Next      InterviewDTO `json:"next"`
}

func (r UpdateInterviewRequest) ToUpdate() interview.InterviewUpdate {
	return interview.InterviewUpdate{
		Name:     r.Name,
		Role:     r.Role,
		Text:     r.Text,
		ImageURL: r.ImageURL,
	}
}

func (r SaveAttachmentRequest) ToAttachment() interview.Attachment {
	raw := strings.Join(append(append([]string(nil), r.Tags...), r.TagsText), " ")
	return interview.Attachment{
		QuestionText:      strings.TrimSpace(r.QuestionText),
		Tags:              interview.ParseTags(raw),
		RecordingURL:      r.RecordingURL,
		RecordingDuration: r.RecordingDuration,
	}
}

func NewInterviewDTO(i interview.Interview) InterviewDTO {
	attachments := make([]AttachmentDTO, 0, len(i.Attachments))
	for _, a := range i.Attachments {
		attachments = append(attachments, NewAttachmentDTO(a))
	}
	return InterviewDTO{
		ID:                 i.Identifier,
		CreationDate:       i.CreationDate.Format(time.RFC3339Nano),
		Name:               i.Name,
		Role:               i.Role,
		Text:               i.Text,
		Attachments:        attachments,
		ImageURL:           i.ImageURL,
		IdentifierOnServer: i.IdentifierOnServer,
		Submitted:          i.IsSubmitted(),
	}
}

func NewInterviewDTOs(list []interview.Interview) []InterviewDTO {
	out := make([]InterviewDTO, 0, len(list))
	for _, i := range list {
		out = append(out, NewInterviewDTO(i))
	}
	return out
}

func NewAttachmentDTO(a interview.Attachment) AttachmentDTO {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return AttachmentDTO{
		QuestionText:      a.QuestionText,
		Tags:              tags,
		RecordingURL:      a.RecordingURL,
		RecordingDuration: a.RecordingDuration,
	}
}

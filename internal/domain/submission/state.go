package submission

import "time"

// Status is the phase of one submission attempt.
type Status string

const (
	StatusNotStarted       Status = "NOT_STARTED"
	StatusSendingInterview Status = "SENDING_INTERVIEW"
	StatusUploadingAssets  Status = "UPLOADING_ASSETS"
	StatusCompleted        Status = "COMPLETED"
	StatusFailed           Status = "FAILED"
)

// IsTerminal reports whether no further transition can happen.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// State is a snapshot of a submission. Remaining counts the upload tasks not
// yet finished while assets are uploading; ServerID is set once completed.
type State struct {
	InterviewID string    `json:"interview_id"`
	Status      Status    `json:"status"`
	Remaining   int       `json:"remaining,omitempty"`
	ServerID    string    `json:"server_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	ErrorCode   int       `json:"error_code,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NotStarted(interviewID string) State {
	return State{InterviewID: interviewID, Status: StatusNotStarted, UpdatedAt: time.Now()}
}

func (s State) SendingInterview() State {
	return s.next(StatusSendingInterview)
}

func (s State) UploadingAssets(remaining int) State {
	n := s.next(StatusUploadingAssets)
	n.Remaining = remaining
	return n
}

func (s State) Completed(serverID string) State {
	n := s.next(StatusCompleted)
	n.ServerID = serverID
	return n
}

func (s State) Failed(err error, code int) State {
	n := s.next(StatusFailed)
	if err != nil {
		n.Error = err.Error()
	}
	n.ErrorCode = code
	return n
}

func (s State) next(status Status) State {
	return State{InterviewID: s.InterviewID, Status: status, UpdatedAt: time.Now()}
}

package submission

import (
	"errors"
	"testing"
)

func TestState_Transitions(t *testing.T) {
	s := NotStarted("iv-1")
	if s.Status != StatusNotStarted || s.Status.IsTerminal() {
		t.Fatalf("state=%+v", s)
	}

	up := s.SendingInterview().UploadingAssets(3)
	if up.Status != StatusUploadingAssets || up.Remaining != 3 || up.InterviewID != "iv-1" {
		t.Fatalf("state=%+v", up)
	}

	done := up.Completed("srv-1")
	if !done.Status.IsTerminal() || done.ServerID != "srv-1" || done.Remaining != 0 {
		t.Fatalf("state=%+v", done)
	}

	failed := up.Failed(errors.New("boom"), 3)
	if !failed.Status.IsTerminal() || failed.Error != "boom" || failed.ErrorCode != 3 {
		t.Fatalf("state=%+v", failed)
	}
}

package network

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mazi-recorder/internal/domain/interview"
	"mazi-recorder/internal/domain/submission"
	recorder_errors "mazi-recorder/pkg/errors"
)

type recordedCall struct {
	Path        string
	ContentType string
	Body        map[string]any
	FileField   string
	FileName    string
	FileType    string
	FileData    string
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []recordedCall
	n     int
}

func (b *fakeBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{Path: r.URL.Path, ContentType: r.Header.Get("Content-Type")}

		if strings.HasPrefix(call.ContentType, "multipart/form-data") {
			mr, err := r.MultipartReader()
			if err != nil {
				t.Errorf("multipart reader: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			part, err := mr.NextPart()
			if err != nil {
				t.Errorf("next part: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			data, _ := io.ReadAll(part)
			call.FileField = part.FormName()
			call.FileName = part.FileName()
			call.FileType = part.Header.Get("Content-Type")
			call.FileData = string(data)
		} else {
			_ = json.NewDecoder(r.Body).Decode(&call.Body)
		}

		b.mu.Lock()
		b.calls = append(b.calls, call)
		b.n++
		id := map[string]string{
			"/api/interviews":  "srv-interview",
			"/api/attachments": "srv-att-" + string(rune('0'+b.n)),
		}[r.URL.Path]
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if id != "" {
			_ = json.NewEncoder(w).Encode(map[string]string{"_id": id})
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}
}

func (b *fakeBackend) recorded() []recordedCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedCall(nil), b.calls...)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSendInterview_SequencesAllCalls(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	dir := t.TempDir()
	photo := writeFile(t, dir, "photo.jpg", "jpeg-bytes")
	rec1 := writeFile(t, dir, "q1.wav", "wav-one")
	rec2 := writeFile(t, dir, "q2.wav", "wav-two")

	iv := interview.New(time.Now())
	iv.Name, iv.Role, iv.Text = "Sofia", "librarian", "talked about the park"
	iv.ImageURL = &photo
	iv.Attachments = []interview.Attachment{
		{QuestionText: "Q1", Tags: []string{"park"}, RecordingURL: rec1, RecordingDuration: 4},
		{QuestionText: "Q2", RecordingURL: "file://" + rec2},
	}

	var states []submission.State
	s := NewSubmitter(NewClient(srv.Client(), nil), SubmitterConfig{BaseURL: srv.URL + "/api/"}, nil)
	id, err := s.SendInterview(context.Background(), iv, func(st submission.State) {
		states = append(states, st)
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "srv-interview" {
		t.Fatalf("id=%q", id)
	}

	calls := backend.recorded()
	wantPaths := []string{
		"/api/interviews",
		"/api/upload/image/srv-interview",
		"/api/attachments",
		"/api/upload/attachment/srv-att-3",
		"/api/attachments",
		"/api/upload/attachment/srv-att-5",
	}
	if len(calls) != len(wantPaths) {
		t.Fatalf("calls=%d want=%d: %+v", len(calls), len(wantPaths), calls)
	}
	for i, want := range wantPaths {
		if calls[i].Path != want {
			t.Fatalf("call %d path=%q want=%q", i, calls[i].Path, want)
		}
	}

	if calls[0].Body["name"] != "Sofia" || calls[0].Body["role"] != "librarian" || calls[0].Body["text"] != "talked about the park" {
		t.Fatalf("interview body=%v", calls[0].Body)
	}
	if calls[1].FileField != "file" || calls[1].FileType != "image/jpeg" || calls[1].FileData != "jpeg-bytes" || calls[1].FileName != "photo.jpg" {
		t.Fatalf("image upload=%+v", calls[1])
	}
	if calls[2].Body["text"] != "Q1" || calls[2].Body["interview"] != "srv-interview" {
		t.Fatalf("attachment body=%v", calls[2].Body)
	}
	if tags, _ := calls[2].Body["tags"].([]any); len(tags) != 1 || tags[0] != "park" {
		t.Fatalf("tags=%v", calls[2].Body["tags"])
	}
	if tags, ok := calls[4].Body["tags"].([]any); !ok || len(tags) != 0 {
		t.Fatalf("empty tags should be sent as a list, got %v", calls[4].Body["tags"])
	}
	if calls[3].FileType != "audio/wav" || calls[3].FileData != "wav-one" {
		t.Fatalf("recording upload=%+v", calls[3])
	}
	if calls[5].FileData != "wav-two" {
		t.Fatalf("recording upload=%+v", calls[5])
	}

	wantStatus := []submission.Status{
		submission.StatusNotStarted,
		submission.StatusSendingInterview,
		submission.StatusUploadingAssets,
		submission.StatusUploadingAssets,
		submission.StatusUploadingAssets,
		submission.StatusCompleted,
	}
	if len(states) != len(wantStatus) {
		t.Fatalf("states=%+v", states)
	}
	for i, want := range wantStatus {
		if states[i].Status != want {
			t.Fatalf("state %d=%s want=%s", i, states[i].Status, want)
		}
	}
	if states[2].Remaining != 3 || states[4].Remaining != 1 {
		t.Fatalf("remaining=%d,%d", states[2].Remaining, states[4].Remaining)
	}
	if states[5].ServerID != "srv-interview" {
		t.Fatalf("final=%+v", states[5])
	}
}

func TestSendInterview_NoAssets(t *testing.T) {
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler(t))
	defer srv.Close()

	s := NewSubmitter(NewClient(srv.Client(), nil), SubmitterConfig{BaseURL: srv.URL + "/api"}, nil)
	id, err := s.SendInterview(context.Background(), interview.New(time.Now()), nil)
	if err != nil || id != "srv-interview" {
		t.Fatalf("id=%q err=%v", id, err)
	}
	if n := len(backend.recorded()); n != 1 {
		t.Fatalf("calls=%d", n)
	}
}

func TestSendInterview_TimeoutStopsEverything(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(`{"_id":"late"}`))
	}))
	defer srv.Close()
	defer close(release)

	iv := interview.New(time.Now())
	iv.Attachments = []interview.Attachment{{QuestionText: "Q1", RecordingURL: "/nope.wav"}}

	var states []submission.State
	s := NewSubmitter(NewClient(srv.Client(), nil), SubmitterConfig{
		BaseURL:        srv.URL + "/api",
		RequestTimeout: 50 * time.Millisecond,
	}, nil)
	_, err := s.SendInterview(context.Background(), iv, func(st submission.State) {
		states = append(states, st)
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, recorder_errors.ErrNetworking) {
		t.Fatalf("err=%v", err)
	}
	if code := ErrorCode(err); code != CodeTimeout {
		t.Fatalf("code=%d", code)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 1 || paths[0] != "/api/interviews" {
		t.Fatalf("paths=%v", paths)
	}
	last := states[len(states)-1]
	if last.Status != submission.StatusFailed || last.ErrorCode != CodeTimeout {
		t.Fatalf("last=%+v", last)
	}
	for _, st := range states {
		if st.Status == submission.StatusUploadingAssets {
			t.Fatalf("uploads started after failure")
		}
	}
}

func TestSendInterview_MissingIDFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := NewSubmitter(NewClient(srv.Client(), nil), SubmitterConfig{BaseURL: srv.URL}, nil)
	_, err := s.SendInterview(context.Background(), interview.New(time.Now()), nil)
	if ErrorCode(err) != CodeMissingID || !errors.Is(err, recorder_errors.ErrNetworking) {
		t.Fatalf("err=%v", err)
	}
}

func TestSendInterview_BadStatusOnAttachmentAborts(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/attachments" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"_id":"srv-1"}`))
	}))
	defer srv.Close()

	iv := interview.New(time.Now())
	iv.Attachments = []interview.Attachment{
		{QuestionText: "Q1", RecordingURL: "/a.wav"},
		{QuestionText: "Q2", RecordingURL: "/b.wav"},
	}
	s := NewSubmitter(NewClient(srv.Client(), nil), SubmitterConfig{BaseURL: srv.URL}, nil)
	_, err := s.SendInterview(context.Background(), iv, nil)

	var ne *NetworkError
	if !errors.As(err, &ne) || ne.Code != CodeBadStatus || ne.Status != http.StatusInternalServerError {
		t.Fatalf("err=%v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if strings.Join(paths, ",") != "/interviews,/attachments" {
		t.Fatalf("paths=%v", paths)
	}
}

func TestUploadMultipart_MissingFileIsEncodingError(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), nil)
	err := c.UploadMultipart(context.Background(), srv.URL+"/upload", filepath.Join(t.TempDir(), "missing.wav"), "file", "audio/wav", time.Second)
	if ErrorCode(err) != CodeEncoding {
		t.Fatalf("err=%v", err)
	}
	if called {
		t.Fatalf("request sent without a file")
	}
}

func TestUploadMultipart_EarlyReplyIsNotSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "long.wav")
	if err := os.WriteFile(path, make([]byte, 32<<20), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := NewClient(srv.Client(), nil).UploadMultipart(context.Background(), srv.URL+"/upload", path, "file", "audio/wav", 10*time.Second)
	if err == nil {
		t.Fatalf("upload reported success although the body was never read")
	}
	if !errors.Is(err, recorder_errors.ErrNetworking) {
		t.Fatalf("err=%v", err)
	}
}

func TestPostJSON_NonObjectResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2]`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client(), nil).PostJSON(context.Background(), srv.URL, map[string]string{}, time.Second)
	if ErrorCode(err) != CodeDecode {
		t.Fatalf("err=%v", err)
	}
}

func TestLocalPath(t *testing.T) {
	if got := LocalPath("file:///var/mobile/a.wav"); got != "/var/mobile/a.wav" {
		t.Fatalf("got=%q", got)
	}
	if got := LocalPath("/tmp/a.wav"); got != "/tmp/a.wav" {
		t.Fatalf("got=%q", got)
	}
}

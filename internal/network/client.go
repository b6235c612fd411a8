package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mazi-recorder/pkg/logger"
)

// maxResponseBody caps how much of a response body is read.
const maxResponseBody = 1 << 20

// Client performs the JSON and multipart requests of a submission. Every
// call takes its own timeout.
type Client struct {
	http *http.Client
	log  *logger.Logger
}

func NewClient(httpClient *http.Client, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{http: httpClient, log: logger.OrNop(log).Named("network")}
}

// PostJSON posts body as JSON and decodes the response as a JSON object.
func (c *Client) PostJSON(ctx context.Context, target string, body any, timeout time.Duration) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &NetworkError{Op: http.MethodPost, URL: target, Code: CodeEncoding, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, &NetworkError{Op: http.MethodPost, URL: target, Code: CodeRequestFailed, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	respBody, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(respBody, &out); err != nil || out == nil {
		if err == nil {
			err = errors.New("response is not a JSON object")
		}
		return nil, &NetworkError{Op: http.MethodPost, URL: target, Code: CodeDecode, Err: err}
	}
	return out, nil
}

// UploadMultipart streams the file at filePath as a single multipart part
// named fieldName. The body is produced while it is sent, so large
// recordings are never held in memory.
func (c *Client) UploadMultipart(ctx context.Context, target, filePath, fieldName, mimeType string, timeout time.Duration) error {
	file, err := os.Open(LocalPath(filePath))
	if err != nil {
		return &NetworkError{Op: http.MethodPost, URL: target, Code: CodeEncoding, Err: err}
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	writeErrCh := make(chan error, 1)
	go func() {
		defer close(writeErrCh)

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, filepath.Base(file.Name())))
		h.Set("Content-Type", mimeType)

		part, err := writer.CreatePart(h)
		if err != nil {
			_ = pw.CloseWithError(err)
			writeErrCh <- err
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			_ = pw.CloseWithError(err)
			writeErrCh <- err
			return
		}
		if err := writer.Close(); err != nil {
			_ = pw.CloseWithError(err)
			writeErrCh <- err
			return
		}
		_ = pw.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return &NetworkError{Op: http.MethodPost, URL: target, Code: CodeRequestFailed, Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	_, doErr := c.do(ctx, req)
	// Unblock the writer if the request ended before the body was consumed.
	_ = pr.CloseWithError(io.ErrClosedPipe)
	werr := <-writeErrCh
	switch {
	case doErr != nil:
		return doErr
	case errors.Is(werr, io.ErrClosedPipe):
		// A reply that arrives before the whole file was sent does not
		// confirm the upload.
		c.log.Warnf("%s answered before the upload of %s finished", target, filePath)
		return &NetworkError{Op: http.MethodPost, URL: target, Code: CodeRequestFailed, Err: fmt.Errorf("upload truncated: %w", werr)}
	case werr != nil:
		c.log.Errorf("failed to encode multipart body for %s: %v", target, werr)
		return &NetworkError{Op: http.MethodPost, URL: target, Code: CodeEncoding, Err: werr}
	}
	return nil
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	target := req.URL.String()
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		code := CodeRequestFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			code = CodeTimeout
		}
		c.log.Warnf("%s %s failed after %s: %v", req.Method, target, time.Since(started), err)
		return nil, &NetworkError{Op: req.Method, URL: target, Code: code, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		code := CodeRequestFailed
		if errors.Is(err, context.DeadlineExceeded) {
			code = CodeTimeout
		}
		return nil, &NetworkError{Op: req.Method, URL: target, Code: code, Status: resp.StatusCode, Err: err}
	}
	c.log.Debugf("%s %s %d %s", req.Method, target, resp.StatusCode, time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &NetworkError{
			Op:     req.Method,
			URL:    target,
			Code:   CodeBadStatus,
			Status: resp.StatusCode,
			Err:    errors.New(msg),
		}
	}
	return body, nil
}

// LocalPath turns a file:// URL into a filesystem path. Plain paths are
// returned unchanged.
func LocalPath(raw string) string {
	if !strings.HasPrefix(raw, "file://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimPrefix(raw, "file://")
	}
	return u.Path
}

package services

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
	"strconv"
	"strings"
	"sync"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/models"
)

// UploadTask is an in-flight upload. Progress ticks arrive on Progress, which is
// closed before Done; Wait blocks until the upload has finished.
type UploadTask struct {
	progress chan float64
	done     chan struct{}

	mu     sync.Mutex
	closed bool
	last   float64

	resp *models.UploadResponse
	err  error
}

func newUploadTask() *UploadTask {
	return &UploadTask{
		progress: make(chan float64, 1),
		done:     make(chan struct{}),
	}
}

// Progress delivers non-decreasing percentages in [0,100]. Only the most recent
// undelivered tick is kept, so a slow reader never stalls the transfer.
func (t *UploadTask) Progress() <-chan float64 {
	return t.progress
}

func (t *UploadTask) Done() <-chan struct{} {
	return t.done
}

func (t *UploadTask) Wait() (*models.UploadResponse, error) {
	<-t.done
	return t.resp, t.err
}

func (t *UploadTask) report(percent float64) {
	if percent > 100 {
		percent = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || percent <= t.last {
		return
	}
	t.last = percent

	select {
	case t.progress <- percent:
	default:
		select {
		case <-t.progress:
		default:
		}
		t.progress <- percent
	}
}

func (t *UploadTask) complete(resp *models.UploadResponse, err error) {
	t.mu.Lock()
	t.closed = true
	close(t.progress)
	t.mu.Unlock()

	t.resp = resp
	t.err = err
	close(t.done)
}

// UploadResumes implements BackendClient. All files travel in one multipart request.
func (c *backendClient) UploadResumes(ctx context.Context, files []models.UploadCandidateFile) *UploadTask {
	task := newUploadTask()
	go func() {
		resp, err := c.upload(ctx, files, task.report)
		task.complete(resp, err)
	}()
	return task
}

func (c *backendClient) upload(ctx context.Context, files []models.UploadCandidateFile, report func(float64)) (*models.UploadResponse, error) {
	body, contentType, err := c.buildUploadBody(files)
	if err != nil {
		return nil, fmt.Errorf("upload preparation failed: %w", err)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	reader := &progressReader{
		r:      bytes.NewReader(body),
		total:  int64(len(body)),
		report: report,
	}

	req, err := http.NewRequestWithContext(uploadCtx, http.MethodPost, c.baseURL+"/upload-resumes", reader)
	if err != nil {
		return nil, fmt.Errorf("upload preparation failed: %w", err)
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, uploadCtx, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, uploadCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rejectedUpload(resp.StatusCode, payload)
	}

	var out models.UploadResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, apperrors.NewMalformedResponseError(err)
	}
	return &out, nil
}

func (c *backendClient) buildUploadBody(files []models.UploadCandidateFile) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, file := range files {
		contentType := file.ContentType
		if contentType == "" {
			contentType = GenericContentType
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="resumes"; filename="%s"`, quoteEscaper.Replace(file.Name)))
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}

	uploadedAt := c.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	if err := writer.WriteField("uploadedAt", uploadedAt); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("totalFiles", strconv.Itoa(len(files))); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// classifyTransportError separates the upload ceiling from caller cancellation
// and plain transport failures.
func classifyTransportError(parent, uploadCtx context.Context, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("upload cancelled: %w", parent.Err())
	}
	if errors.Is(uploadCtx.Err(), context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(err)
	}
	return apperrors.NewNetworkError(err)
}

func rejectedUpload(status int, payload []byte) error {
	var parsed errorResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return apperrors.NewUploadRejectedError(status, fmt.Sprintf("Upload failed with status: %d", status))
	}
	if parsed.Message == "" {
		return apperrors.NewUploadRejectedError(status, "Upload failed")
	}
	return apperrors.NewUploadRejectedError(status, parsed.Message)
}

// progressReader reports the share of the request body consumed by the transport.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		p.report(float64(p.read) / float64(p.total) * 100)
	}
	return n, err
}

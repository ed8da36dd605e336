package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/models"
)

const DefaultUploadTimeout = 5 * time.Minute

// BackendClient is the single client for the external ranking backend.
type BackendClient interface {
	UploadResumes(ctx context.Context, files []models.UploadCandidateFile) *UploadTask
	ProcessResumes(ctx context.Context, req models.ProcessRequest) (*models.ProcessResponse, error)
	GetResumeDetails(ctx context.Context, resumeID string) (map[string]interface{}, error)
	DownloadResume(ctx context.Context, resumeID string) (*ResumeDownload, error)
	DeleteResume(ctx context.Context, resumeID string) (map[string]interface{}, error)
	GetUploadStats(ctx context.Context) (map[string]interface{}, error)
}

// ResumeDownload is a résumé blob fetched from the backend.
type ResumeDownload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type backendClient struct {
	baseURL       string
	httpClient    *http.Client
	uploadTimeout time.Duration
	now           func() time.Time
}

type errorResponse struct {
	Message string `json:"message"`
}

func NewBackendClient(baseURL string, uploadTimeout time.Duration, httpClient *http.Client) BackendClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}
	return &backendClient{
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient:    httpClient,
		uploadTimeout: uploadTimeout,
		now:           time.Now,
	}
}

// ProcessResumes implements BackendClient.
func (c *backendClient) ProcessResumes(ctx context.Context, req models.ProcessRequest) (*models.ProcessResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode process request: %w", err)
	}

	var out models.ProcessResponse
	if err := c.doJSON(ctx, http.MethodPost, "/process-resumes", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetResumeDetails implements BackendClient.
func (c *backendClient) GetResumeDetails(ctx context.Context, resumeID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.doJSON(ctx, http.MethodGet, "/resume/"+url.PathEscape(resumeID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteResume implements BackendClient.
func (c *backendClient) DeleteResume(ctx context.Context, resumeID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.doJSON(ctx, http.MethodDelete, "/delete-resume/"+url.PathEscape(resumeID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUploadStats implements BackendClient.
func (c *backendClient) GetUploadStats(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.doJSON(ctx, http.MethodGet, "/upload-stats", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DownloadResume implements BackendClient.
func (c *backendClient) DownloadResume(ctx context.Context, resumeID string) (*ResumeDownload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/download-resume/"+url.PathEscape(resumeID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewBackendRequestError(0, "Resume download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewBackendRequestError(resp.StatusCode, fmt.Sprintf("Download failed: %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewBackendRequestError(0, "Resume download failed", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = GenericContentType
	}

	return &ResumeDownload{
		Filename:    downloadFilename(resp.Header.Get("Content-Disposition"), resumeID),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// doJSON sends a request and decodes a JSON success body into out. Failed statuses
// carry the body's message, or a status-derived one when it has none.
func (c *backendClient) doJSON(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewBackendRequestError(0, fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewBackendRequestError(0, fmt.Sprintf("%s %s failed", method, path), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
		var parsed errorResponse
		if err := json.Unmarshal(payload, &parsed); err == nil && parsed.Message != "" {
			message = parsed.Message
		}
		return apperrors.NewBackendRequestError(resp.StatusCode, message, nil)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return apperrors.NewMalformedResponseError(err)
	}
	return nil
}

func downloadFilename(disposition, fallback string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	return fallback
}

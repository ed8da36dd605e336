package models

import (
	"fmt"
	"time"
)

type UploadStatus string

// TimestampLayout renders the client-observed upload time.
const TimestampLayout = "15:04:05"

const (
	StatusUploaded UploadStatus = "uploaded"
)

// UploadCandidateFile is an in-memory file ready to be sent to the backend.
type UploadCandidateFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f UploadCandidateFile) Size() int64 {
	return int64(len(f.Data))
}

// UploadedResumeRecord is the session's record of one accepted upload. ID is
// unique within the session; RemoteID is what the backend knows the file as.
type UploadedResumeRecord struct {
	ID        string       `json:"id"`
	RemoteID  string       `json:"remoteId,omitempty"`
	Name      string       `json:"name"`
	Size      string       `json:"size"`
	Status    UploadStatus `json:"status"`
	Timestamp string       `json:"timestamp"`
	BlobURL   *string      `json:"blobUrl"`
}

// BackendID is the identifier to send to the ranking backend.
func (r UploadedResumeRecord) BackendID() string {
	if r.RemoteID != "" {
		return r.RemoteID
	}
	return r.ID
}

// FormatSize renders a byte count the way the dashboard lists uploads.
func FormatSize(bytes int64) string {
	return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
}

// FallbackRecordID is used when the backend did not acknowledge a file.
func FallbackRecordID(at time.Time, index int) string {
	return fmt.Sprintf("file_%d_%d", at.UnixMilli(), index)
}

// UploadAck is the backend's positional acknowledgment of one uploaded file.
type UploadAck struct {
	Filename string  `json:"filename"`
	BlobURL  *string `json:"blobUrl"`
}

type UploadResponse struct {
	Files []UploadAck `json:"files"`
}

// AckAt returns the acknowledgment for position i, or nil when the backend sent none.
func (r *UploadResponse) AckAt(i int) *UploadAck {
	if r == nil || i < 0 || i >= len(r.Files) {
		return nil
	}
	return &r.Files[i]
}

// UploadBatchResponse is returned by the dashboard when a batch is queued.
type UploadBatchResponse struct {
	BatchID   string `json:"batchId"`
	FileCount int    `json:"fileCount"`
	Status    string `json:"status"`
}

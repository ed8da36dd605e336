package services

import (
	"context"
	"fmt"
	"time"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/metrics"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/session"
)

// Dispatcher is the part of session.Controller the pipeline services write through.
type Dispatcher interface {
	State(ctx context.Context, id string) (session.State, error)
	Dispatch(ctx context.Context, id string, actions ...session.Action) (session.State, error)
}

type UploadOrchestrator interface {
	Run(ctx context.Context, sessionID string, items []models.UploadCandidateFile) ([]models.UploadedResumeRecord, error)
}

type uploadOrchestrator struct {
	extractor ArchiveExtractor
	client    BackendClient
	sessions  Dispatcher
	log       logger.Logger
	now       func() time.Time
}

func NewUploadOrchestrator(
	extractor ArchiveExtractor,
	client BackendClient,
	sessions Dispatcher,
	log logger.Logger,
) UploadOrchestrator {
	return &uploadOrchestrator{
		extractor: extractor,
		client:    client,
		sessions:  sessions,
		log:       log,
		now:       time.Now,
	}
}

// Run implements UploadOrchestrator. The batch must already be open on the
// session (Controller.BeginUpload); Run always closes it, with records on
// success or an error notification on failure.
func (o *uploadOrchestrator) Run(ctx context.Context, sessionID string, items []models.UploadCandidateFile) ([]models.UploadedResumeRecord, error) {
	started := o.now()
	log := o.log.WithFields(map[string]interface{}{"session_id": sessionID, "items": len(items)})

	records, err := o.run(ctx, sessionID, items, log)
	if err != nil {
		metrics.UploadBatches.WithLabelValues(metrics.OutcomeFailed).Inc()
		metrics.UploadBatchDuration.WithLabelValues(metrics.OutcomeFailed).Observe(time.Since(started).Seconds())
		log.WithError(err).Error("Upload batch failed", nil)

		// the caller's context may be the reason we failed; still close the batch
		if _, dispatchErr := o.sessions.Dispatch(context.WithoutCancel(ctx), sessionID, session.UploadFailed{Message: failureMessage(err)}); dispatchErr != nil {
			log.WithError(dispatchErr).Error("Failed to record upload failure", nil)
		}
		return nil, err
	}

	metrics.UploadBatches.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.UploadBatchDuration.WithLabelValues(metrics.OutcomeSuccess).Observe(time.Since(started).Seconds())
	metrics.ResumesUploaded.Add(float64(len(records)))
	log.Info("Upload batch completed", map[string]interface{}{"records": len(records)})

	return records, nil
}

func (o *uploadOrchestrator) run(ctx context.Context, sessionID string, items []models.UploadCandidateFile, log logger.Logger) ([]models.UploadedResumeRecord, error) {
	if len(items) == 0 {
		return nil, apperrors.NewValidationError("No files selected")
	}

	if err := o.progress(ctx, sessionID, 10); err != nil {
		return nil, err
	}

	files := make([]models.UploadCandidateFile, 0, len(items))
	for i, item := range items {
		if IsArchive(item.Name) {
			extracted, err := o.extractor.Extract(item.Name, item.Data)
			if err != nil {
				return nil, err
			}
			files = append(files, extracted...)
			metrics.ArchiveEntriesExtracted.Add(float64(len(extracted)))
			log.Info("Archive extracted", map[string]interface{}{"archive": item.Name, "files": len(extracted)})

			if err := o.notify(ctx, sessionID, session.Notification{
				Type:    session.NotifySuccess,
				Message: fmt.Sprintf("Extracted %d files from %s", len(extracted), item.Name),
			}); err != nil {
				return nil, err
			}
		} else {
			if item.ContentType == "" {
				item.ContentType = DetectContentType(item.Name, item.Data)
			}
			files = append(files, item)
		}

		if err := o.progress(ctx, sessionID, extractionProgress(i, len(items))); err != nil {
			return nil, err
		}
	}

	if len(files) == 0 {
		return nil, apperrors.NewValidationError("No resume files found in the selection")
	}

	if err := o.progress(ctx, sessionID, 60); err != nil {
		return nil, err
	}

	task := o.client.UploadResumes(ctx, files)
	for p := range task.Progress() {
		if err := o.progress(ctx, sessionID, 60+p*0.4); err != nil {
			log.WithError(err).Warn("Failed to record upload progress", nil)
		}
	}

	resp, err := task.Wait()
	if err != nil {
		return nil, err
	}

	records := buildRecords(files, resp, o.now())
	if _, err := o.sessions.Dispatch(ctx, sessionID, session.RecordsUploaded{Records: records}); err != nil {
		return nil, fmt.Errorf("failed to record uploaded resumes: %w", err)
	}
	return records, nil
}

func (o *uploadOrchestrator) progress(ctx context.Context, sessionID string, percent float64) error {
	_, err := o.sessions.Dispatch(ctx, sessionID, session.ProgressUpdated{Percent: percent})
	return err
}

func (o *uploadOrchestrator) notify(ctx context.Context, sessionID string, n session.Notification) error {
	_, err := o.sessions.Dispatch(ctx, sessionID, session.Notified{Notification: n})
	return err
}

// extractionProgress maps the completion of item i of n onto the 20..50 band.
func extractionProgress(i, n int) float64 {
	return 20 + float64(i+1)/float64(n)*30
}

// buildRecords pairs files with the acknowledgment by position. Missing
// acknowledgments fall back to a generated identifier and no blob URL.
func buildRecords(files []models.UploadCandidateFile, resp *models.UploadResponse, at time.Time) []models.UploadedResumeRecord {
	records := make([]models.UploadedResumeRecord, len(files))
	for i, file := range files {
		record := models.UploadedResumeRecord{
			ID:        models.FallbackRecordID(at, i),
			Name:      file.Name,
			Size:      models.FormatSize(file.Size()),
			Status:    models.StatusUploaded,
			Timestamp: at.Format(models.TimestampLayout),
		}
		if ack := resp.AckAt(i); ack != nil {
			if ack.Filename != "" {
				record.ID = ack.Filename
			}
			record.BlobURL = ack.BlobURL
		}
		record.RemoteID = record.ID
		records[i] = record
	}
	return records
}

func failureMessage(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}

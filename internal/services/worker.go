package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
)

var (
	ErrQueueFull     = errors.New("upload queue is full")
	ErrWorkerStopped = errors.New("upload worker is stopped")
)

// UploadBatch is one user selection waiting to run through the orchestrator.
type UploadBatch struct {
	ID        string
	SessionID string
	Files     []models.UploadCandidateFile
}

func NewUploadBatch(sessionID string, files []models.UploadCandidateFile) UploadBatch {
	return UploadBatch{ID: uuid.NewString(), SessionID: sessionID, Files: files}
}

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(batch UploadBatch) error
}

type worker struct {
	orchestrator UploadOrchestrator
	log          logger.Logger
	jobQueue     chan UploadBatch
	concurrency  int
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
}

func NewWorker(
	orchestrator UploadOrchestrator,
	log logger.Logger,
	concurrency int,
	queueSize int,
) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &worker{
		orchestrator: orchestrator,
		log:          log,
		jobQueue:     make(chan UploadBatch, queueSize),
		concurrency:  concurrency,
		stopChan:     make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("Starting upload worker", map[string]interface{}{"concurrency": w.concurrency})

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}
}

// Stop implements Worker. Batches still queued are dropped; running ones finish.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("Stopping upload worker", nil)
		close(w.stopChan)
		w.wg.Wait()
		w.log.Info("Upload worker stopped", nil)
	})
}

// EnqueueJob implements Worker. It never blocks: a full queue is reported to the caller.
func (w *worker) EnqueueJob(batch UploadBatch) error {
	select {
	case <-w.stopChan:
		return ErrWorkerStopped
	default:
	}

	select {
	case w.jobQueue <- batch:
		w.log.Debug("Upload batch enqueued", map[string]interface{}{
			"batch_id":   batch.ID,
			"session_id": batch.SessionID,
			"files":      len(batch.Files),
		})
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case batch := <-w.jobQueue:
			log := w.log.WithFields(map[string]interface{}{
				"worker":     workerID,
				"batch_id":   batch.ID,
				"session_id": batch.SessionID,
			})
			log.Info("Processing upload batch", nil)

			if _, err := w.orchestrator.Run(ctx, batch.SessionID, batch.Files); err != nil {
				log.WithError(err).Warn("Upload batch did not complete", nil)
				continue
			}
			log.Info("Upload batch done", nil)
		}
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeFallback = "fallback"
)

var (
	UploadBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_upload_batches_total",
			Help: "Total number of upload batches by outcome",
		},
		[]string{"outcome"},
	)

	ResumesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resumes_uploaded_total",
			Help: "Total number of resume files accepted by the backend",
		},
	)

	ArchiveEntriesExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_entries_extracted_total",
			Help: "Total number of eligible files extracted from archives",
		},
	)

	UploadBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resume_upload_batch_duration_seconds",
			Help:    "Duration of upload batches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	AnalysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_analysis_requests_total",
			Help: "Total number of analysis requests by outcome",
		},
		[]string{"outcome"},
	)
)

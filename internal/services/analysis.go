package services

import (
	"context"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/metrics"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/session"
)

const missingInputMessage = "Please upload resumes and provide a job description"

// AnalysisResult is what one analysis produced for a session.
type AnalysisResult struct {
	Results      []models.RankedCandidate
	DemoFallback bool
}

type AnalysisTrigger interface {
	Analyze(ctx context.Context, sessionID string) (*AnalysisResult, error)
}

type analysisTrigger struct {
	client   BackendClient
	sessions Dispatcher
	log      logger.Logger
	demoMode bool
}

// NewAnalysisTrigger builds the trigger. In demo mode a failed or empty ranking
// is replaced by the built-in demonstration candidates.
func NewAnalysisTrigger(client BackendClient, sessions Dispatcher, log logger.Logger, demoMode bool) AnalysisTrigger {
	return &analysisTrigger{
		client:   client,
		sessions: sessions,
		log:      log,
		demoMode: demoMode,
	}
}

// Analyze implements AnalysisTrigger. The analysis must already be open on the
// session (Controller.BeginAnalysis); Analyze always closes it.
func (a *analysisTrigger) Analyze(ctx context.Context, sessionID string) (*AnalysisResult, error) {
	log := a.log.WithFields(map[string]interface{}{"session_id": sessionID})

	state, err := a.sessions.State(ctx, sessionID)
	if err != nil {
		log.WithError(err).Error("Failed to load session", nil)
		a.fail(ctx, sessionID, "Error analyzing resumes: "+failureMessage(err), log)
		return nil, err
	}

	if len(state.Records) == 0 || state.JobDescription.IsEmpty() {
		a.fail(ctx, sessionID, missingInputMessage, log)
		return nil, apperrors.NewValidationError(missingInputMessage)
	}

	req := models.NewComprehensiveRequest(state.BackendIDs(), state.JobDescription.Text)
	log.Info("Requesting analysis", map[string]interface{}{"resumes": len(req.ResumeIDs)})

	result, err := a.rank(ctx, req, log)
	if err != nil {
		metrics.AnalysisRequests.WithLabelValues(metrics.OutcomeFailed).Inc()
		log.WithError(err).Error("Analysis failed", nil)
		a.fail(ctx, sessionID, "Error analyzing resumes: "+failureMessage(err), log)
		return nil, err
	}

	if _, err := a.sessions.Dispatch(ctx, sessionID, session.AnalysisCompleted{Results: result.Results}); err != nil {
		metrics.AnalysisRequests.WithLabelValues(metrics.OutcomeFailed).Inc()
		log.WithError(err).Error("Failed to record analysis results", nil)
		a.fail(ctx, sessionID, "Error analyzing resumes: "+failureMessage(err), log)
		return nil, err
	}

	outcome := metrics.OutcomeSuccess
	if result.DemoFallback {
		outcome = metrics.OutcomeFallback
	}
	metrics.AnalysisRequests.WithLabelValues(outcome).Inc()
	log.Info("Analysis completed", map[string]interface{}{"results": len(result.Results), "demo_fallback": result.DemoFallback})

	return result, nil
}

func (a *analysisTrigger) rank(ctx context.Context, req models.ProcessRequest, log logger.Logger) (*AnalysisResult, error) {
	resp, err := a.client.ProcessResumes(ctx, req)
	if err != nil {
		if a.demoMode {
			log.WithError(err).Warn("Ranking backend failed, serving demo candidates", nil)
			return &AnalysisResult{Results: models.DemoCandidates(), DemoFallback: true}, nil
		}
		return nil, apperrors.NewAnalysisFailure(err)
	}

	if len(resp.Results) == 0 && a.demoMode {
		log.Warn("Ranking backend returned no results, serving demo candidates", nil)
		return &AnalysisResult{Results: models.DemoCandidates(), DemoFallback: true}, nil
	}

	return &AnalysisResult{Results: models.NormalizeCandidates(resp.Results)}, nil
}

func (a *analysisTrigger) fail(ctx context.Context, sessionID, message string, log logger.Logger) {
	if _, err := a.sessions.Dispatch(context.WithoutCancel(ctx), sessionID, session.AnalysisFailed{Message: message}); err != nil {
		log.WithError(err).Error("Failed to record analysis failure", nil)
	}
}

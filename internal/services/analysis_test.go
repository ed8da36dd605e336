package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-screener/internal/apperrors"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/session"
)

type analysisFixture struct {
	trigger   AnalysisTrigger
	sessions  *session.Controller
	sessionID string
	calls     *int32
}

func newAnalysisFixture(t *testing.T, demoMode bool, handler http.HandlerFunc) analysisFixture {
	t.Helper()

	var calls int32
	_, client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	})

	controller, id := newTestSession(t)
	trigger := NewAnalysisTrigger(client, controller, logger.NewTestLogger(t), demoMode)
	return analysisFixture{trigger: trigger, sessions: controller, sessionID: id, calls: &calls}
}

func (f analysisFixture) prepare(t *testing.T, records int, jobText string) {
	t.Helper()
	ctx := context.Background()

	actions := []session.Action{}
	if records > 0 {
		recs := make([]models.UploadedResumeRecord, records)
		for i := range recs {
			recs[i] = models.UploadedResumeRecord{ID: fmt.Sprintf("srv-%d.pdf", i), Name: "cv.pdf"}
		}
		actions = append(actions, session.RecordsUploaded{Records: recs})
	}
	if jobText != "" {
		actions = append(actions, session.JobDescriptionSet{JobDescription: models.JobDescription{Text: jobText, Method: models.InputPasted}})
	}
	_, err := f.sessions.Dispatch(ctx, f.sessionID, actions...)
	require.NoError(t, err)

	_, err = f.sessions.BeginAnalysis(ctx, f.sessionID)
	require.NoError(t, err)
}

func demoNames() []string {
	return []string{"Sarah Johnson", "Michael Chen", "Emily Rodriguez", "David Park", "Jessica Liu"}
}

func names(cs []models.RankedCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestAnalyze_RanksBackendResults(t *testing.T) {
	f := newAnalysisFixture(t, true, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"results": []map[string]interface{}{
				{"id": "1", "name": "Low", "score": 40},
				{"id": "2", "name": "Top", "score": 120},
				{"id": "3", "name": "Mid", "score": 82},
			},
		})
	})
	f.prepare(t, 2, "Go engineer")

	result, err := f.trigger.Analyze(context.Background(), f.sessionID)
	require.NoError(t, err)

	assert.False(t, result.DemoFallback)
	assert.Equal(t, []string{"Top", "Mid", "Low"}, names(result.Results))
	assert.Equal(t, 100.0, result.Results[0].Score)
	assert.Equal(t, models.BandExcellent, result.Results[0].Band)
	assert.Equal(t, models.BandGood, result.Results[1].Band)
	assert.Equal(t, models.BandLow, result.Results[2].Band)

	state, err := f.sessions.State(context.Background(), f.sessionID)
	require.NoError(t, err)
	assert.Equal(t, session.TabResults, state.ActiveTab)
	assert.False(t, state.AnalysisInFlight())
	assert.Equal(t, "Analysis complete! View your results below.", state.Notification.Message)
}

func TestAnalyze_DemoFallbackOnFailure(t *testing.T) {
	f := newAnalysisFixture(t, true, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	f.prepare(t, 1, "Go engineer")

	result, err := f.trigger.Analyze(context.Background(), f.sessionID)
	require.NoError(t, err)

	assert.True(t, result.DemoFallback)
	assert.Equal(t, demoNames(), names(result.Results))

	state, err := f.sessions.State(context.Background(), f.sessionID)
	require.NoError(t, err)
	assert.Equal(t, demoNames(), names(state.Results))
	require.NotNil(t, state.Notification)
	assert.Equal(t, session.NotifySuccess, state.Notification.Type)
	assert.Equal(t, "Analysis complete! View your results below.", state.Notification.Message)
}

func TestAnalyze_DemoFallbackOnEmptyResults(t *testing.T) {
	f := newAnalysisFixture(t, true, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": []interface{}{}})
	})
	f.prepare(t, 1, "Go engineer")

	result, err := f.trigger.Analyze(context.Background(), f.sessionID)
	require.NoError(t, err)
	assert.True(t, result.DemoFallback)
	assert.Len(t, result.Results, 5)
}

func TestAnalyze_FailureSurfacesWithoutDemoMode(t *testing.T) {
	f := newAnalysisFixture(t, false, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	f.prepare(t, 1, "Go engineer")

	_, err := f.trigger.Analyze(context.Background(), f.sessionID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeAnalysisFailure))

	state, err := f.sessions.State(context.Background(), f.sessionID)
	require.NoError(t, err)
	assert.Empty(t, state.Results)
	assert.False(t, state.AnalysisInFlight())
	require.NotNil(t, state.Notification)
	assert.Equal(t, session.NotifyError, state.Notification.Type)
}

func TestAnalyze_EmptyResultsWithoutDemoMode(t *testing.T) {
	f := newAnalysisFixture(t, false, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	})
	f.prepare(t, 1, "Go engineer")

	result, err := f.trigger.Analyze(context.Background(), f.sessionID)
	require.NoError(t, err)
	assert.False(t, result.DemoFallback)
	assert.Empty(t, result.Results)
}

func TestAnalyze_RequiresResumesAndJobDescription(t *testing.T) {
	tests := []struct {
		name    string
		records int
		job     string
	}{
		{"no uploads", 0, "Go engineer"},
		{"no job description", 2, ""},
		{"blank job description", 2, "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAnalysisFixture(t, true, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]interface{}{})
			})
			f.prepare(t, tt.records, tt.job)

			_, err := f.trigger.Analyze(context.Background(), f.sessionID)
			assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
			assert.Zero(t, atomic.LoadInt32(f.calls), "backend must not be called")

			state, err := f.sessions.State(context.Background(), f.sessionID)
			require.NoError(t, err)
			require.NotNil(t, state.Notification)
			assert.Equal(t, "Please upload resumes and provide a job description", state.Notification.Message)
			assert.False(t, state.AnalysisInFlight())
		})
	}
}

func TestAnalyze_SendsBackendIdentifiers(t *testing.T) {
	var got models.ProcessRequest
	f := newAnalysisFixture(t, false, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"results": []map[string]interface{}{{"id": "cv.pdf", "name": "Ada", "score": 90}},
		})
	})
	ctx := context.Background()

	upload := func(remoteID string) session.Action {
		return session.RecordsUploaded{Records: []models.UploadedResumeRecord{{ID: remoteID, RemoteID: remoteID, Name: remoteID}}}
	}
	_, err := f.sessions.Dispatch(ctx, f.sessionID,
		upload("cv.pdf"),
		upload("cv.pdf"),
		session.JobDescriptionSet{JobDescription: models.JobDescription{Text: "Go engineer", Method: models.InputPasted}},
	)
	require.NoError(t, err)
	_, err = f.sessions.BeginAnalysis(ctx, f.sessionID)
	require.NoError(t, err)

	result, err := f.trigger.Analyze(ctx, f.sessionID)
	require.NoError(t, err)

	state, err := f.sessions.State(ctx, f.sessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"cv.pdf", "cv.pdf_2"}, state.RecordIDs())
	assert.Equal(t, []string{"cv.pdf"}, got.ResumeIDs)
	assert.False(t, result.DemoFallback)
}

// faultyDispatcher fails State once, or every Dispatch carrying a matching action.
type faultyDispatcher struct {
	*session.Controller
	stateErr error
	failOn   func(session.Action) bool
}

func (d *faultyDispatcher) State(ctx context.Context, id string) (session.State, error) {
	if err := d.stateErr; err != nil {
		d.stateErr = nil
		return session.State{}, err
	}
	return d.Controller.State(ctx, id)
}

func (d *faultyDispatcher) Dispatch(ctx context.Context, id string, actions ...session.Action) (session.State, error) {
	for _, a := range actions {
		if d.failOn != nil && d.failOn(a) {
			return session.State{}, errors.New("store unavailable")
		}
	}
	return d.Controller.Dispatch(ctx, id, actions...)
}

func TestAnalyze_ClosesAnalysisWhenSessionWritesFail(t *testing.T) {
	tests := []struct {
		name       string
		dispatcher func(*session.Controller) *faultyDispatcher
	}{
		{
			name: "state load fails",
			dispatcher: func(c *session.Controller) *faultyDispatcher {
				return &faultyDispatcher{Controller: c, stateErr: errors.New("store unavailable")}
			},
		},
		{
			name: "saving results fails",
			dispatcher: func(c *session.Controller) *faultyDispatcher {
				return &faultyDispatcher{Controller: c, failOn: func(a session.Action) bool {
					_, ok := a.(session.AnalysisCompleted)
					return ok
				}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]interface{}{
					"results": []map[string]interface{}{{"id": "1", "name": "Ada", "score": 90}},
				})
			})
			f := newAnalysisFixture(t, true, func(w http.ResponseWriter, r *http.Request) {})
			f.prepare(t, 1, "Go engineer")

			trigger := NewAnalysisTrigger(client, tt.dispatcher(f.sessions), logger.NewTestLogger(t), true)
			_, err := trigger.Analyze(context.Background(), f.sessionID)
			require.Error(t, err)

			state, err := f.sessions.State(context.Background(), f.sessionID)
			require.NoError(t, err)
			assert.False(t, state.AnalysisInFlight())
			require.NotNil(t, state.Notification)
			assert.Equal(t, session.NotifyError, state.Notification.Type)
			assert.Contains(t, state.Notification.Message, "Error analyzing resumes: store unavailable")

			_, err = f.sessions.BeginAnalysis(context.Background(), f.sessionID)
			assert.NoError(t, err, "a new analysis can start right away")
		})
	}
}

package session

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-screener/internal/models"
)

func record(id, name string) models.UploadedResumeRecord {
	return models.UploadedResumeRecord{ID: id, Name: name, Size: "1.00 KB", Status: models.StatusUploaded, Timestamp: "10:00:00"}
}

func TestNewState(t *testing.T) {
	s := NewState("hr@example.com")

	assert.True(t, s.LoggedIn)
	assert.Equal(t, "hr@example.com", s.UserEmail)
	assert.Equal(t, TabUpload, s.ActiveTab)
	assert.Empty(t, s.Records)
	assert.False(t, s.UploadInFlight())
	assert.False(t, s.AnalysisInFlight())
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	before := NewState("hr@example.com")
	before = Reduce(before, RecordsUploaded{Records: []models.UploadedResumeRecord{record("a.pdf", "a.pdf")}})

	after := Reduce(before, RecordsUploaded{Records: []models.UploadedResumeRecord{record("b.pdf", "b.pdf")}})

	require.Len(t, before.Records, 1)
	require.Len(t, after.Records, 2)
	assert.Equal(t, "a.pdf", after.Records[0].ID)
	assert.Equal(t, "b.pdf", after.Records[1].ID)
}

func TestReduce_ProgressOnlyMovesForwardDuringUpload(t *testing.T) {
	s := NewState("hr@example.com")

	s = Reduce(s, ProgressUpdated{Percent: 40})
	assert.Zero(t, s.UploadProgress, "progress outside a batch is ignored")

	s = Reduce(s, UploadStarted{At: time.Now()})
	for _, p := range []float64{10, 35, 20, 60, 150} {
		s = Reduce(s, ProgressUpdated{Percent: p})
	}
	assert.Equal(t, 100.0, s.UploadProgress)

	s = Reduce(s, UploadStarted{At: time.Now()})
	s = Reduce(s, ProgressUpdated{Percent: 30})
	s = Reduce(s, ProgressUpdated{Percent: 25})
	assert.Equal(t, 30.0, s.UploadProgress)
}

func TestReduce_RecordsUploaded(t *testing.T) {
	s := Reduce(NewState("hr@example.com"), UploadStarted{At: time.Now()})
	s = Reduce(s, RecordsUploaded{Records: []models.UploadedResumeRecord{record("a.pdf", "a.pdf"), record("b.pdf", "b.pdf")}})

	assert.Len(t, s.Records, 2)
	assert.Equal(t, 100.0, s.UploadProgress)
	assert.False(t, s.UploadInFlight())
	require.NotNil(t, s.Notification)
	assert.Equal(t, NotifySuccess, s.Notification.Type)
	assert.Equal(t, "2 resume(s) uploaded successfully!", s.Notification.Message)
}

func TestReduce_RecordIDsStayUnique(t *testing.T) {
	s := NewState("hr@example.com")
	s = Reduce(s, RecordsUploaded{Records: []models.UploadedResumeRecord{record("cv.pdf", "cv.pdf")}})
	s = Reduce(s, RecordsUploaded{Records: []models.UploadedResumeRecord{record("cv.pdf", "cv.pdf"), record("cv.pdf", "cv.pdf")}})

	assert.Equal(t, []string{"cv.pdf", "cv.pdf_2", "cv.pdf_3"}, s.RecordIDs())
}

func TestState_BackendIDs(t *testing.T) {
	remote := func(id, remoteID string) models.UploadedResumeRecord {
		r := record(id, id)
		r.RemoteID = remoteID
		return r
	}

	s := NewState("hr@example.com")
	s = Reduce(s, RecordsUploaded{Records: []models.UploadedResumeRecord{remote("cv.pdf", "cv.pdf"), record("legacy", "legacy.pdf")}})
	s = Reduce(s, RecordsUploaded{Records: []models.UploadedResumeRecord{remote("cv.pdf", "cv.pdf"), remote("other.pdf", "other.pdf")}})

	assert.Equal(t, []string{"cv.pdf", "legacy", "cv.pdf_2", "other.pdf"}, s.RecordIDs())
	assert.Equal(t, "cv.pdf", s.Records[2].RemoteID, "the session key changes, the backend identifier does not")
	assert.Equal(t, []string{"cv.pdf", "legacy", "other.pdf"}, s.BackendIDs())
}

func TestReduce_UploadFailedKeepsRecords(t *testing.T) {
	s := NewState("hr@example.com")
	s = Reduce(s, RecordsUploaded{Records: []models.UploadedResumeRecord{record("a.pdf", "a.pdf")}})
	s = Reduce(s, UploadStarted{At: time.Now()})
	s = Reduce(s, ProgressUpdated{Percent: 60})

	s = Reduce(s, UploadFailed{Message: "Network error during upload"})

	assert.Len(t, s.Records, 1)
	assert.Zero(t, s.UploadProgress)
	assert.False(t, s.UploadInFlight())
	require.NotNil(t, s.Notification)
	assert.Equal(t, NotifyError, s.Notification.Type)
	assert.Equal(t, "Error uploading files: Network error during upload", s.Notification.Message)
}

func TestReduce_AnalysisCompleted(t *testing.T) {
	s := Reduce(NewState("hr@example.com"), AnalysisStarted{At: time.Now()})
	s = Reduce(s, CandidateSelected{ID: "old"})

	s = Reduce(s, AnalysisCompleted{Results: models.DemoCandidates()})

	assert.Len(t, s.Results, 5)
	assert.Equal(t, TabResults, s.ActiveTab)
	assert.Empty(t, s.SelectedCandidateID)
	assert.False(t, s.AnalysisInFlight())
	require.NotNil(t, s.Notification)
	assert.Equal(t, "Analysis complete! View your results below.", s.Notification.Message)
}

func TestReduce_FilterAndSelection(t *testing.T) {
	s := Reduce(NewState("hr@example.com"), AnalysisCompleted{Results: models.DemoCandidates()})

	s = Reduce(s, FilterChanged{MinScore: 82})
	filtered := s.FilteredResults()
	require.Len(t, filtered, 3)
	for _, c := range filtered {
		assert.GreaterOrEqual(t, c.Score, 82.0)
	}

	s = Reduce(s, FilterChanged{MinScore: 150})
	assert.Equal(t, 100.0, s.FilterScore)

	s = Reduce(s, FilterChanged{MinScore: math.NaN()})
	assert.Equal(t, 0.0, s.FilterScore)
	_, err := json.Marshal(s)
	require.NoError(t, err)

	s = Reduce(s, CandidateSelected{ID: "2"})
	selected := s.SelectedCandidate()
	require.NotNil(t, selected)
	assert.Equal(t, "Michael Chen", selected.Name)

	s = Reduce(s, CandidateSelected{ID: "missing"})
	assert.Nil(t, s.SelectedCandidate())
}

func TestReduce_JobDescription(t *testing.T) {
	s := NewState("hr@example.com")
	s = Reduce(s, JobDescriptionSet{JobDescription: models.JobDescription{Text: "Go engineer", Method: models.InputPasted}})
	s = Reduce(s, JobDescriptionSet{JobDescription: models.JobDescription{Text: "SRE", Method: models.InputFileDerived, SourceFile: "jd.pdf"}})

	assert.Equal(t, "SRE", s.JobDescription.Text)
	assert.Equal(t, models.InputFileDerived, s.JobDescription.Method)

	s = Reduce(s, JobDescriptionCleared{})
	assert.True(t, s.JobDescription.IsEmpty())
}

func TestReduce_LoginResetsEverything(t *testing.T) {
	s := NewState("first@example.com")
	s = Reduce(s, RecordsUploaded{Records: []models.UploadedResumeRecord{record("a.pdf", "a.pdf")}})
	s = Reduce(s, AnalysisCompleted{Results: models.DemoCandidates()})
	s = Reduce(s, JobDescriptionSet{JobDescription: models.JobDescription{Text: "Go engineer"}})

	s = Reduce(s, LoggedIn{Email: "second@example.com"})

	assert.Equal(t, NewState("second@example.com"), s)
}

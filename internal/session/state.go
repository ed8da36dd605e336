// Package session holds the dashboard's per-user application state. State only
// changes through Reduce, which is a pure function of the previous state and an action.
package session

import (
	"fmt"
	"math"
	"time"

	"alfredoptarigan/resume-screener/internal/models"
)

type Tab string

const (
	TabUpload   Tab = "upload"
	TabResults  Tab = "results"
	TabInsights Tab = "insights"
)

type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
)

type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}

// State is everything the dashboard shows for one logged-in user.
type State struct {
	LoggedIn            bool                          `json:"loggedIn"`
	UserEmail           string                        `json:"userEmail"`
	ActiveTab           Tab                           `json:"activeTab"`
	Records             []models.UploadedResumeRecord `json:"records"`
	JobDescription      models.JobDescription         `json:"jobDescription"`
	Results             []models.RankedCandidate      `json:"results"`
	SelectedCandidateID string                        `json:"selectedCandidateId,omitempty"`
	FilterScore         float64                       `json:"filterScore"`
	UploadProgress      float64                       `json:"uploadProgress"`
	Notification        *Notification                 `json:"notification,omitempty"`
	UploadStartedAt     *time.Time                    `json:"uploadStartedAt,omitempty"`
	AnalysisStartedAt   *time.Time                    `json:"analysisStartedAt,omitempty"`
}

func (s State) UploadInFlight() bool {
	return s.UploadStartedAt != nil
}

func (s State) AnalysisInFlight() bool {
	return s.AnalysisStartedAt != nil
}

// RecordIDs lists the identifiers of every uploaded record, in upload order.
func (s State) RecordIDs() []string {
	ids := make([]string, len(s.Records))
	for i, r := range s.Records {
		ids[i] = r.ID
	}
	return ids
}

// BackendIDs lists the distinct backend identifiers of the uploaded records, in upload order.
func (s State) BackendIDs() []string {
	ids := make([]string, 0, len(s.Records))
	seen := make(map[string]struct{}, len(s.Records))
	for _, r := range s.Records {
		id := r.BackendID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// FilteredResults returns the results scoring at least the active filter.
func (s State) FilteredResults() []models.RankedCandidate {
	out := make([]models.RankedCandidate, 0, len(s.Results))
	for _, r := range s.Results {
		if r.Score >= s.FilterScore {
			out = append(out, r)
		}
	}
	return out
}

func (s State) SelectedCandidate() *models.RankedCandidate {
	if s.SelectedCandidateID == "" {
		return nil
	}
	for i := range s.Results {
		if string(s.Results[i].ID) == s.SelectedCandidateID {
			c := s.Results[i]
			return &c
		}
	}
	return nil
}

// Action is a state transition request handled by Reduce.
type Action interface {
	isAction()
}

type LoggedIn struct {
	Email string
}

type UploadStarted struct {
	At time.Time
}

type ProgressUpdated struct {
	Percent float64
}

type RecordsUploaded struct {
	Records []models.UploadedResumeRecord
}

type UploadFailed struct {
	Message string
}

type Notified struct {
	Notification Notification
}

type NotificationDismissed struct{}

type JobDescriptionSet struct {
	JobDescription models.JobDescription
}

type JobDescriptionCleared struct{}

type AnalysisStarted struct {
	At time.Time
}

type AnalysisCompleted struct {
	Results []models.RankedCandidate
}

type AnalysisFailed struct {
	Message string
}

type CandidateSelected struct {
	ID string
}

type FilterChanged struct {
	MinScore float64
}

type TabChanged struct {
	Tab Tab
}

func (LoggedIn) isAction()              {}
func (UploadStarted) isAction()         {}
func (ProgressUpdated) isAction()       {}
func (RecordsUploaded) isAction()       {}
func (UploadFailed) isAction()          {}
func (Notified) isAction()              {}
func (NotificationDismissed) isAction() {}
func (JobDescriptionSet) isAction()     {}
func (JobDescriptionCleared) isAction() {}
func (AnalysisStarted) isAction()       {}
func (AnalysisCompleted) isAction()     {}
func (AnalysisFailed) isAction()        {}
func (CandidateSelected) isAction()     {}
func (FilterChanged) isAction()         {}
func (TabChanged) isAction()            {}

// NewState is the state of a freshly logged-in session.
func NewState(email string) State {
	return Reduce(State{}, LoggedIn{Email: email})
}

// Reduce returns the state that results from applying a to s. s is not modified.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case LoggedIn:
		return State{
			LoggedIn:  true,
			UserEmail: act.Email,
			ActiveTab: TabUpload,
			Records:   []models.UploadedResumeRecord{},
		}

	case UploadStarted:
		at := act.At
		s.UploadStartedAt = &at
		s.UploadProgress = 0

	case ProgressUpdated:
		// progress only moves forward while a batch is running
		if s.UploadInFlight() && act.Percent > s.UploadProgress {
			s.UploadProgress = clamp(act.Percent, 0, 100)
		}

	case RecordsUploaded:
		s.Records = appendUnique(s.Records, act.Records)
		s.UploadProgress = 100
		s.UploadStartedAt = nil
		s.Notification = &Notification{
			Type:    NotifySuccess,
			Message: fmt.Sprintf("%d resume(s) uploaded successfully!", len(act.Records)),
		}

	case UploadFailed:
		s.UploadProgress = 0
		s.UploadStartedAt = nil
		s.Notification = &Notification{Type: NotifyError, Message: "Error uploading files: " + act.Message}

	case Notified:
		n := act.Notification
		s.Notification = &n

	case NotificationDismissed:
		s.Notification = nil

	case JobDescriptionSet:
		s.JobDescription = act.JobDescription

	case JobDescriptionCleared:
		s.JobDescription = models.JobDescription{}

	case AnalysisStarted:
		at := act.At
		s.AnalysisStartedAt = &at

	case AnalysisCompleted:
		s.Results = append([]models.RankedCandidate{}, act.Results...)
		s.SelectedCandidateID = ""
		s.AnalysisStartedAt = nil
		s.ActiveTab = TabResults
		s.Notification = &Notification{Type: NotifySuccess, Message: "Analysis complete! View your results below."}

	case AnalysisFailed:
		s.AnalysisStartedAt = nil
		s.Notification = &Notification{Type: NotifyError, Message: act.Message}

	case CandidateSelected:
		s.SelectedCandidateID = act.ID

	case FilterChanged:
		s.FilterScore = clamp(act.MinScore, 0, 100)

	case TabChanged:
		s.ActiveTab = act.Tab
	}

	return s
}

// appendUnique returns a new slice holding existing followed by added. An added
// record whose ID is already taken gets a numeric suffix.
func appendUnique(existing, added []models.UploadedResumeRecord) []models.UploadedResumeRecord {
	out := make([]models.UploadedResumeRecord, 0, len(existing)+len(added))
	out = append(out, existing...)

	taken := make(map[string]struct{}, len(out)+len(added))
	for _, r := range out {
		taken[r.ID] = struct{}{}
	}

	for _, r := range added {
		id := r.ID
		for n := 2; ; n++ {
			if _, dup := taken[id]; !dup {
				break
			}
			id = fmt.Sprintf("%s_%d", r.ID, n)
		}
		r.ID = id
		taken[id] = struct{}{}
		out = append(out, r)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

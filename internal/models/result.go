package models

import "math"

// ProcessRequest is the body of POST /process-resumes on the ranking backend.
type ProcessRequest struct {
	ResumeIDs                 []string `json:"resumeIds"`
	JobDescription            string   `json:"jobDescription"`
	AnalysisType              string   `json:"analysisType"`
	IncludeSkillsMatch        bool     `json:"includeSkillsMatch"`
	IncludeExperienceAnalysis bool     `json:"includeExperienceAnalysis"`
	IncludeCultureFit         bool     `json:"includeCultureFit"`
}

// NewComprehensiveRequest builds the only analysis request the dashboard issues.
func NewComprehensiveRequest(resumeIDs []string, jobDescription string) ProcessRequest {
	return ProcessRequest{
		ResumeIDs:                 resumeIDs,
		JobDescription:            jobDescription,
		AnalysisType:              "comprehensive",
		IncludeSkillsMatch:        true,
		IncludeExperienceAnalysis: true,
		IncludeCultureFit:         false,
	}
}

type ProcessResponse struct {
	Results []RankedCandidate `json:"results"`
}

type LoginRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword"`
	SignUp          bool   `json:"signUp"`
}

type LoginResponse struct {
	SessionID string `json:"sessionId"`
	Email     string `json:"email"`
}

type JobDescriptionRequest struct {
	Text string `json:"text" validate:"required"`
}

type AnalysisResponse struct {
	Message      string            `json:"message"`
	Results      []RankedCandidate `json:"results"`
	DemoFallback bool              `json:"demoFallback"`
}

// CandidateView is a ranked candidate decorated for display.
type CandidateView struct {
	RankedCandidate
	Color string `json:"color"`
}

func NewCandidateView(c RankedCandidate) CandidateView {
	return CandidateView{RankedCandidate: c, Color: ScoreColor(c.Score)}
}

type ResultsResponse struct {
	MinScore float64         `json:"minScore"`
	Total    int             `json:"total"`
	Results  []CandidateView `json:"results"`
}

// Insights are the dashboard's stat cards.
type Insights struct {
	TotalUploaded  int          `json:"totalUploaded"`
	ExcellentCount int          `json:"excellentCount"`
	AverageScore   int          `json:"averageScore"`
	BandCounts     map[Band]int `json:"bandCounts"`
}

// ComputeInsights derives the stat cards from the upload count and the active results.
func ComputeInsights(totalUploaded int, results []RankedCandidate) Insights {
	insights := Insights{
		TotalUploaded: totalUploaded,
		BandCounts: map[Band]int{
			BandExcellent: 0,
			BandGood:      0,
			BandAverage:   0,
			BandLow:       0,
		},
	}
	if len(results) == 0 {
		return insights
	}

	var total float64
	for _, r := range results {
		total += r.Score
		if r.Score >= ExcellentThreshold {
			insights.ExcellentCount++
		}
		insights.BandCounts[BandForScore(r.Score)]++
	}
	insights.AverageScore = int(math.Floor(total/float64(len(results)) + 0.5))
	return insights
}

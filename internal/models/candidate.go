package models

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Band is the qualitative classification of a score, used for display only.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandAverage   Band = "average"
	BandLow       Band = "low"
)

const (
	ExcellentThreshold = 85.0
	GoodThreshold      = 80.0
	AverageThreshold   = 70.0
)

// BandForScore derives the band from a score.
func BandForScore(score float64) Band {
	switch {
	case score >= ExcellentThreshold:
		return BandExcellent
	case score >= GoodThreshold:
		return BandGood
	case score >= AverageThreshold:
		return BandAverage
	default:
		return BandLow
	}
}

// ScoreColor is the display color of a score: green, yellow or red.
func ScoreColor(score float64) string {
	switch {
	case score >= ExcellentThreshold:
		return "green"
	case score >= AverageThreshold:
		return "yellow"
	default:
		return "red"
	}
}

// CandidateID accepts both JSON strings and numbers.
type CandidateID string

func (id *CandidateID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = CandidateID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = CandidateID(n.String())
	return nil
}

// RankedCandidate is one scored match returned by the ranking backend.
type RankedCandidate struct {
	ID         CandidateID `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Location   string      `json:"location"`
	Experience string      `json:"experience"`
	Score      float64     `json:"score"`
	Band       Band        `json:"status"`
	Skills     []string    `json:"skills"`
}

// Normalize clamps the score into [0,100] and recomputes the band.
func (c RankedCandidate) Normalize() RankedCandidate {
	if c.Score < 0 {
		c.Score = 0
	}
	if c.Score > 100 {
		c.Score = 100
	}
	c.Band = BandForScore(c.Score)
	if c.Skills == nil {
		c.Skills = []string{}
	}
	return c
}

// NormalizeCandidates normalizes every candidate and orders them by descending score.
// Candidates with equal scores keep the backend's order.
func NormalizeCandidates(in []RankedCandidate) []RankedCandidate {
	out := make([]RankedCandidate, len(in))
	for i, c := range in {
		out[i] = c.Normalize()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// DemoCandidates is the fixed dataset shown in demo mode when the backend is
// unavailable or returns nothing.
func DemoCandidates() []RankedCandidate {
	return NormalizeCandidates([]RankedCandidate{
		{ID: "1", Name: "Sarah Johnson", Email: "sarah.j@email.com", Phone: "+1 234-567-8901", Location: "Seattle, WA", Experience: "5 years", Score: 95, Skills: []string{"Python", "FastAPI", "Azure", "Machine Learning"}},
		{ID: "2", Name: "Michael Chen", Email: "m.chen@email.com", Phone: "+1 234-567-8902", Location: "San Francisco, CA", Experience: "3 years", Score: 88, Skills: []string{"Python", "Docker", "CI/CD", "NLP"}},
		{ID: "3", Name: "Emily Rodriguez", Email: "emily.r@email.com", Phone: "+1 234-567-8903", Location: "Austin, TX", Experience: "4 years", Score: 82, Skills: []string{"Azure", "DevOps", "Python", "SQL"}},
		{ID: "4", Name: "David Park", Email: "d.park@email.com", Phone: "+1 234-567-8904", Location: "New York, NY", Experience: "2 years", Score: 75, Skills: []string{"Python", "FastAPI", "Docker"}},
		{ID: "5", Name: "Jessica Liu", Email: "j.liu@email.com", Phone: "+1 234-567-8905", Location: "Boston, MA", Experience: "6 years", Score: 70, Skills: []string{"Machine Learning", "Python", "Azure"}},
	})
}

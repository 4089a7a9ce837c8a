// Package scoring computes the lead score: additive channel points scaled
// by engagement, status, industry and company-size multipliers.
package scoring

import (
	"math"
	"strings"

	"crm_dashboard_backend/internal/leads/domain"
)

const (
	minScore = 0
	maxScore = 100
)

// Scorer applies one set of weights.
type Scorer struct {
	weights Weights
}

// New creates a scorer over w.
func New(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Default scores with DefaultWeights.
var Default = New(DefaultWeights())

// Score is Default.Score.
func Score(lead domain.Lead) int {
	return Default.Score(lead)
}

// Score returns a value in [0, 100]. The steps run in a fixed order and
// the engagement factors multiply, so they have no effect on a lead with
// no contact channel.
func (s *Scorer) Score(lead domain.Lead) int {
	w := s.weights
	score := 0.0

	if present(lead.Email) {
		score += w.Base.Email
	}
	if present(lead.Mobile) {
		score += w.Base.Mobile
	}
	if present(lead.LinkedInURL) {
		score += w.Base.LinkedIn
	}
	if present(lead.Website) {
		score += w.Base.Website
	}

	if lead.EmailOpened {
		score *= w.Engagement.EmailOpened
	}
	if lead.LinkClicked {
		score *= w.Engagement.LinkClicked
	}
	if lead.MeetingAttended {
		score *= w.Engagement.MeetingAttended
	}
	if lead.ResponseReceived {
		score *= w.Engagement.ResponseReceived
	}

	score *= lookup(w.Status, lead.MeetingStatus)
	score *= lookup(w.Industry, lead.Industry)
	score *= lookup(w.CompanySize, lead.EmployeeSize)

	return clampScore(score)
}

func present(value string) bool {
	return strings.TrimSpace(value) != ""
}

func lookup(table map[string]float64, key string) float64 {
	if factor, ok := table[key]; ok {
		return factor
	}
	return 1
}

func clampScore(value float64) int {
	if math.IsNaN(value) || value < minScore {
		return minScore
	}
	if value > maxScore {
		return maxScore
	}
	return int(math.Round(value))
}

package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights holds the tables the score is computed from. Keys are matched
// exactly against the lead's Meeting_Status, Industry and Employee_Size.
type Weights struct {
	Base        BasePoints         `yaml:"base"`
	Engagement  EngagementFactors  `yaml:"engagement"`
	Status      map[string]float64 `yaml:"status"`
	Industry    map[string]float64 `yaml:"industry"`
	CompanySize map[string]float64 `yaml:"companySize"`
}

// BasePoints are added once per contact channel present.
type BasePoints struct {
	Email    float64 `yaml:"email"`
	Mobile   float64 `yaml:"mobile"`
	LinkedIn float64 `yaml:"linkedin"`
	Website  float64 `yaml:"website"`
}

// EngagementFactors multiply the running score when the flag is set.
type EngagementFactors struct {
	EmailOpened      float64 `yaml:"emailOpened"`
	LinkClicked      float64 `yaml:"linkClicked"`
	MeetingAttended  float64 `yaml:"meetingAttended"`
	ResponseReceived float64 `yaml:"responseReceived"`
}

// DefaultWeights returns the built-in tables.
func DefaultWeights() Weights {
	return Weights{
		Base: BasePoints{Email: 5, Mobile: 10, LinkedIn: 15, Website: 5},
		Engagement: EngagementFactors{
			EmailOpened:      2,
			LinkClicked:      3,
			MeetingAttended:  5,
			ResponseReceived: 4,
		},
		Status: map[string]float64{
			"new":         1,
			"contacted":   1.2,
			"qualified":   1.5,
			"proposal":    1.8,
			"negotiation": 2,
			"closed":      0.5,
		},
		Industry: map[string]float64{
			"Technology":    1.5,
			"Finance":       1.3,
			"Healthcare":    1.2,
			"Manufacturing": 1.1,
			"Retail":        1.0,
			"Education":     0.9,
		},
		CompanySize: map[string]float64{
			"1-10":       1.0,
			"11-50":      1.2,
			"51-200":     1.5,
			"201-500":    1.8,
			"501-1000":   2.0,
			"1001-5000":  2.5,
			"5001-10000": 2.8,
			"10000+":     3.0,
		},
	}
}

// LoadWeights reads a YAML overlay on top of DefaultWeights. Table entries
// in the file replace or extend the defaults; scalar values replace them
// when non-zero. An empty path returns the defaults.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	if path == "" {
		return w, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read scoring weights: %w", err)
	}

	var overlay Weights
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return w, fmt.Errorf("parse scoring weights: %w", err)
	}
	w.merge(overlay)
	return w, nil
}

func (w *Weights) merge(o Weights) {
	overrideFloat(&w.Base.Email, o.Base.Email)
	overrideFloat(&w.Base.Mobile, o.Base.Mobile)
	overrideFloat(&w.Base.LinkedIn, o.Base.LinkedIn)
	overrideFloat(&w.Base.Website, o.Base.Website)
	overrideFloat(&w.Engagement.EmailOpened, o.Engagement.EmailOpened)
	overrideFloat(&w.Engagement.LinkClicked, o.Engagement.LinkClicked)
	overrideFloat(&w.Engagement.MeetingAttended, o.Engagement.MeetingAttended)
	overrideFloat(&w.Engagement.ResponseReceived, o.Engagement.ResponseReceived)
	for k, v := range o.Status {
		w.Status[k] = v
	}
	for k, v := range o.Industry {
		w.Industry[k] = v
	}
	for k, v := range o.CompanySize {
		w.CompanySize[k] = v
	}
}

func overrideFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

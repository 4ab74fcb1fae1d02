package models

import "time"

// Level is a categorical rating used for risk, intensity and density.
type Level string

const (
	LevelUnset  Level = ""
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Valid reports whether l is one of the known levels or unset.
func (l Level) Valid() bool {
	switch l {
	case LevelUnset, LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// RiskAssessment is the staff-authored crowd assessment for one artist.
type RiskAssessment struct {
	ID             int64     `json:"id"`
	ArtistSlug     string    `json:"artist_slug"`
	RiskLevel      Level     `json:"risk_level"`
	IntensityLevel Level     `json:"intensity_level"`
	DensityLevel   Level     `json:"density_level"`
	Remarks        string    `json:"remarks"`
	CrowdProfile   string    `json:"crowd_profile"`
	Notes          string    `json:"notes"` // Internal notes
	UpdatedAt      time.Time `json:"updated_at"`
}

// AssessmentInput carries the editable fields of an assessment.
type AssessmentInput struct {
	RiskLevel      Level  `json:"risk_level"`
	IntensityLevel Level  `json:"intensity_level"`
	DensityLevel   Level  `json:"density_level"`
	Remarks        string `json:"remarks"`
	CrowdProfile   string `json:"crowd_profile"`
	Notes          string `json:"notes"`
}

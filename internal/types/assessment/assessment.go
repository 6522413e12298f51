package assessment

import (
	"time"

	"github.com/google/uuid"
)

// Assessment is an immutable scored resume evaluation.
type Assessment struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	TargetRole      *string   `json:"target_role,omitempty" db:"target_role"`
	TotalScore      float64   `json:"total_score" db:"total_score"`
	ContentScore    float64   `json:"content_score" db:"content_score"`
	ImpactScore     float64   `json:"impact_score" db:"impact_score"`
	SkillsScore     float64   `json:"skills_score" db:"skills_score"`
	FormattingScore float64   `json:"formatting_score" db:"formatting_score"`
	Summary         string    `json:"summary" db:"summary"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type SubmitRequest struct {
	ResumeText string  `json:"resume_text"`
	TargetRole *string `json:"target_role,omitempty"`
}

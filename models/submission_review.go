package models

import "time"

// Review stages recorded in submission_reviews.
const (
	ReviewStageSuperAdmin  = "superadmin"
	ReviewStageMasterAdmin = "masteradmin"
)

// SubmissionReview is an audit record for reviewer decisions. ReviewRound
// counts attempts per submission, so a reset followed by a second
// superadmin review produces round 2.
type SubmissionReview struct {
	ReviewID     int       `gorm:"primaryKey;column:review_id" json:"review_id"`
	SubmissionID int       `gorm:"column:submission_id" json:"submission_id"`
	ReviewerID   int       `gorm:"column:reviewer_id" json:"reviewer_id"`
	ReviewStage  string    `gorm:"column:review_stage" json:"review_stage"`
	ReviewRound  int       `gorm:"column:review_round" json:"review_round"`
	Result       string    `gorm:"column:result" json:"result"`
	Comments     *string   `gorm:"column:comments" json:"comments"`
	ReviewedAt   time.Time `gorm:"column:reviewed_at" json:"reviewed_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

// TableName specifies the table name for SubmissionReview.
func (SubmissionReview) TableName() string {
	return "submission_reviews"
}

package models

import "time"

// Review result values stored in superadmin_result / masteradmin_result.
const (
	ReviewResultApproved = "approved"
	ReviewResultRejected = "rejected"
)

// Submission tracks one marketer verification attempt end-to-end.
// The review columns are nullable and, once written, immutable; a new
// submission must be created to retry after a terminal decision.
type Submission struct {
	SubmissionID     int    `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	SubmissionNumber string `gorm:"column:submission_number;unique" json:"submission_number"`
	MarketerID       int    `gorm:"column:marketer_id" json:"marketer_id"`
	StatusID         int    `gorm:"column:status_id" json:"status_id"`

	AdminVerificationUploadedAt *time.Time `gorm:"column:admin_verification_uploaded_at" json:"admin_verification_uploaded_at,omitempty"`
	AdminVerificationNotes      *string    `gorm:"column:admin_verification_notes" json:"admin_verification_notes,omitempty"`

	SuperAdminReviewedAt *time.Time `gorm:"column:superadmin_reviewed_at" json:"superadmin_reviewed_at,omitempty"`
	SuperAdminResult     *string    `gorm:"column:superadmin_result" json:"superadmin_result,omitempty"`
	SuperAdminNotes      *string    `gorm:"column:superadmin_notes" json:"superadmin_notes,omitempty"`

	MasterAdminDecidedAt *time.Time `gorm:"column:masteradmin_decided_at" json:"masteradmin_decided_at,omitempty"`
	MasterAdminResult    *string    `gorm:"column:masteradmin_result" json:"masteradmin_result,omitempty"`

	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`

	// Relations
	Marketer *User             `gorm:"foreignKey:MarketerID" json:"marketer,omitempty"`
	Status   *SubmissionStatus `gorm:"foreignKey:StatusID;references:StatusID" json:"status,omitempty"`
	Forms    []SubmissionForm  `gorm:"foreignKey:SubmissionID" json:"forms,omitempty"`
}

// TableName specifies the table for Submission.
func (Submission) TableName() string {
	return "submissions"
}

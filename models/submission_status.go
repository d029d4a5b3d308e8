package models

import "time"

// Status codes for the KYC verification pipeline. The rows live in the
// submission_statuses lookup table; services resolve codes to IDs through
// the cached status service.
const (
	StatusPendingAdminReview         = "pending_admin_review"
	StatusAdminVerified              = "admin_verified"
	StatusPendingSuperAdminReview    = "pending_superadmin_review"
	StatusSuperAdminVerified         = "superadmin_verified"
	StatusPendingMasterAdminApproval = "pending_masteradmin_approval"
	StatusApproved                   = "approved"
	StatusRejected                   = "rejected"
)

// SubmissionStatus represents the submission_statuses lookup table.
type SubmissionStatus struct {
	StatusID   int        `gorm:"primaryKey;column:status_id" json:"status_id"`
	StatusCode string     `gorm:"column:status_code;unique" json:"status_code"`
	StatusName string     `gorm:"column:status_name" json:"status_name"`
	CreateAt   *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt   *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt   *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName specifies the table for SubmissionStatus.
func (SubmissionStatus) TableName() string {
	return "submission_statuses"
}

// IsTerminal reports whether a status code ends the pipeline.
func IsTerminal(code string) bool {
	return code == StatusApproved || code == StatusRejected
}

package models

import "time"

// Transition actions recorded in submission_status_history. The timeline
// builder derives stage boundaries from these rows, so a stage's start is
// the timestamp of the transition that entered it, not the submission's
// created_at.
const (
	ActionCreate             = "create"
	ActionAdminVerify        = "admin_verify"
	ActionSendToSuperAdmin   = "send_to_superadmin"
	ActionSuperAdminVerify   = "superadmin_verify"
	ActionSuperAdminReject   = "superadmin_reject"
	ActionAutoAdvance        = "auto_advance"
	ActionMasterAdminApprove = "masteradmin_approve"
	ActionMasterAdminReject  = "masteradmin_reject"
	ActionReset              = "reset"
)

// SubmissionStatusHistory tracks historical status changes for submissions.
// Rows are append-only.
type SubmissionStatusHistory struct {
	HistoryID    int       `gorm:"primaryKey;column:history_id" json:"history_id"`
	SubmissionID int       `gorm:"column:submission_id" json:"submission_id"`
	OldStatusID  *int      `gorm:"column:old_status_id" json:"old_status_id"`
	NewStatusID  int       `gorm:"column:new_status_id" json:"new_status_id"`
	Action       string    `gorm:"column:action" json:"action"`
	ChangedBy    int       `gorm:"column:changed_by" json:"changed_by"`
	Notes        *string   `gorm:"column:notes" json:"notes"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table for SubmissionStatusHistory.
func (SubmissionStatusHistory) TableName() string {
	return "submission_status_history"
}

package models

import "time"

// Form types for the three independent intake forms.
const (
	FormBiodata    = "biodata"
	FormGuarantor  = "guarantor"
	FormCommitment = "commitment"
)

// FormTypes lists the three intake forms in display order.
var FormTypes = []string{FormBiodata, FormGuarantor, FormCommitment}

// IsValidFormType reports whether name is one of the three intake forms.
func IsValidFormType(name string) bool {
	for _, t := range FormTypes {
		if t == name {
			return true
		}
	}
	return false
}

// SubmissionForm holds one of the three named form slots of a submission.
// All three rows are created with the submission; Submitted flips to true
// on first submit and never back (re-submission only overwrites the payload
// and SubmittedAt).
type SubmissionForm struct {
	FormID       int        `gorm:"primaryKey;column:form_id" json:"form_id"`
	SubmissionID int        `gorm:"column:submission_id;uniqueIndex:idx_submission_form" json:"submission_id"`
	FormType     string     `gorm:"column:form_type;uniqueIndex:idx_submission_form" json:"form_type"`
	Payload      *string    `gorm:"column:payload;type:json" json:"payload,omitempty"`
	Submitted    bool       `gorm:"column:submitted" json:"submitted"`
	SubmittedAt  *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table for SubmissionForm.
func (SubmissionForm) TableName() string {
	return "submission_forms"
}

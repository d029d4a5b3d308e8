package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kyc-tracking-api/models"

	"gorm.io/gorm"
)

// FormService is the registry for the three intake forms. Submitting a
// form never changes submission.status; re-submitting an already-submitted
// form overwrites the payload and submitted_at but the completion flag
// stays true.
type FormService struct {
	db       *gorm.DB
	statuses *StatusService
	now      func() time.Time
}

// NewFormService creates a FormService backed by db.
func NewFormService(db *gorm.DB, statuses *StatusService) *FormService {
	return &FormService{db: db, statuses: statuses, now: time.Now}
}

// SubmitForm stores one intake form payload. Forms are only editable while
// the submission is awaiting admin review.
func (s *FormService) SubmitForm(submissionID int, formType string, payload json.RawMessage, actor Actor) (*models.SubmissionForm, error) {
	if !models.IsValidFormType(formType) {
		return nil, &InvalidFormNameError{FormType: formType}
	}

	now := s.now()
	var saved models.SubmissionForm
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sub models.Submission
		if err := tx.Where("submission_id = ? AND deleted_at IS NULL", submissionID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to load submission: %w", err)
		}

		code, err := s.statuses.CodeByID(sub.StatusID)
		if err != nil {
			return err
		}
		if code != models.StatusPendingAdminReview {
			return &IllegalTransitionError{
				Action:        "form_submit",
				CurrentStatus: code,
				Reason:        "forms are only editable before admin verification",
			}
		}

		body := string(payload)
		var form models.SubmissionForm
		err = tx.Where("submission_id = ? AND form_type = ?", submissionID, formType).First(&form).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{
				"payload":      body,
				"submitted":    true,
				"submitted_at": now,
				"updated_at":   now,
			}
			if err := tx.Model(&models.SubmissionForm{}).
				Where("form_id = ?", form.FormID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update form: %w", err)
			}
			form.Payload = &body
			form.Submitted = true
			form.SubmittedAt = &now
			form.UpdatedAt = now
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Slots are created with the submission; tolerate a missing row
			// for submissions migrated from before that.
			form = models.SubmissionForm{
				SubmissionID: submissionID,
				FormType:     formType,
				Payload:      &body,
				Submitted:    true,
				SubmittedAt:  &now,
				UpdatedAt:    now,
			}
			if err := tx.Create(&form).Error; err != nil {
				return fmt.Errorf("failed to create form: %w", err)
			}
		default:
			return fmt.Errorf("failed to load form: %w", err)
		}

		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Update("updated_at", now).Error; err != nil {
			return fmt.Errorf("failed to touch submission: %w", err)
		}

		entityID := sub.SubmissionID
		description := fmt.Sprintf("Form '%s' submitted", formType)
		audit := models.AuditLog{
			UserID:      actor.UserID,
			Action:      "form_submit",
			EntityType:  "submission",
			EntityID:    &entityID,
			Description: &description,
			IPAddress:   actor.IPAddress,
			CreatedAt:   now,
		}
		if sub.SubmissionNumber != "" {
			number := sub.SubmissionNumber
			audit.EntityNumber = &number
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		saved = form
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// AllFormsSubmitted reports whether all three intake forms are in.
func (s *FormService) AllFormsSubmitted(submissionID int) (bool, error) {
	var submitted int64
	if err := s.db.Model(&models.SubmissionForm{}).
		Where("submission_id = ? AND submitted = ?", submissionID, true).
		Count(&submitted).Error; err != nil {
		return false, fmt.Errorf("failed to count submitted forms: %w", err)
	}
	return int(submitted) >= len(models.FormTypes), nil
}

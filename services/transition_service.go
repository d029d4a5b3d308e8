package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kyc-tracking-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor identifies who performed an action. It is passed explicitly; the
// core keeps no ambient user state.
type Actor struct {
	UserID    int
	RoleID    int
	IPAddress string
	UserAgent string
}

// TransitionService owns the submission state machine. Every transition
// runs in a transaction and performs a compare-and-swap on status_id, so
// two actors racing the same submission cannot both win: the loser gets
// ErrConcurrentModification and must re-read. A failed transition leaves
// the submission unchanged.
type TransitionService struct {
	db       *gorm.DB
	statuses *StatusService
	now      func() time.Time
}

// NewTransitionService creates a TransitionService backed by db.
func NewTransitionService(db *gorm.DB, statuses *StatusService) *TransitionService {
	return &TransitionService{db: db, statuses: statuses, now: time.Now}
}

// CreateSubmission opens a new verification attempt for a marketer in
// pending_admin_review, with the three empty form slots.
func (s *TransitionService) CreateSubmission(marketerID int, actor Actor) (*models.Submission, error) {
	statusID, err := s.statuses.IDByCode(models.StatusPendingAdminReview)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub := models.Submission{
		SubmissionNumber: uuid.NewString(),
		MarketerID:       marketerID,
		StatusID:         statusID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}

		for _, formType := range models.FormTypes {
			form := models.SubmissionForm{
				SubmissionID: sub.SubmissionID,
				FormType:     formType,
				Submitted:    false,
				UpdatedAt:    now,
			}
			if err := tx.Create(&form).Error; err != nil {
				return fmt.Errorf("failed to create form slot: %w", err)
			}
		}

		if err := s.appendHistory(tx, &sub, nil, statusID, models.ActionCreate, actor, nil, now); err != nil {
			return err
		}
		return s.appendAudit(tx, actor, "create", &sub, "Submission created", map[string]interface{}{
			"status": models.StatusPendingAdminReview,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(sub.SubmissionID)
}

// UploadAdminVerification records the admin verification upload and moves
// pending_admin_review -> admin_verified. Guard: all three intake forms
// must be submitted.
func (s *TransitionService) UploadAdminVerification(submissionID int, notes string, actor Actor) (*models.Submission, error) {
	now := s.now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, code, err := s.loadSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if code != models.StatusPendingAdminReview {
			return &IllegalTransitionError{Action: "admin_verify", CurrentStatus: code}
		}

		var submitted int64
		if err := tx.Model(&models.SubmissionForm{}).
			Where("submission_id = ? AND submitted = ?", submissionID, true).
			Count(&submitted).Error; err != nil {
			return fmt.Errorf("failed to count submitted forms: %w", err)
		}
		if int(submitted) < len(models.FormTypes) {
			return &IllegalTransitionError{
				Action:        "admin_verify",
				CurrentStatus: code,
				Reason:        "all three intake forms must be submitted first",
			}
		}

		toID, err := s.statuses.IDByCode(models.StatusAdminVerified)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"admin_verification_uploaded_at": now,
			"updated_at":                     now,
		}
		trimmed := strings.TrimSpace(notes)
		if trimmed != "" {
			updates["admin_verification_notes"] = trimmed
		}
		if err := s.casStatus(tx, sub, toID, updates); err != nil {
			return err
		}

		if err := s.appendHistory(tx, sub, &sub.StatusID, toID, models.ActionAdminVerify, actor, optional(trimmed), now); err != nil {
			return err
		}
		return s.appendAudit(tx, actor, "status_change", sub, "Admin verification uploaded", map[string]interface{}{
			"status": models.StatusAdminVerified,
			"notes":  trimmed,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(submissionID)
}

// SendToSuperAdmin moves admin_verified -> pending_superadmin_review.
func (s *TransitionService) SendToSuperAdmin(submissionID int, actor Actor) (*models.Submission, error) {
	now := s.now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, code, err := s.loadSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if code != models.StatusAdminVerified {
			return &IllegalTransitionError{Action: "send_to_superadmin", CurrentStatus: code}
		}

		toID, err := s.statuses.IDByCode(models.StatusPendingSuperAdminReview)
		if err != nil {
			return err
		}

		if err := s.casStatus(tx, sub, toID, map[string]interface{}{"updated_at": now}); err != nil {
			return err
		}

		if err := s.appendHistory(tx, sub, &sub.StatusID, toID, models.ActionSendToSuperAdmin, actor, nil, now); err != nil {
			return err
		}
		return s.appendAudit(tx, actor, "status_change", sub, "Submission sent to superadmin", map[string]interface{}{
			"status": models.StatusPendingSuperAdminReview,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(submissionID)
}

// SuperAdminReview records the superadmin verdict. An approval passes
// through superadmin_verified and auto-advances to
// pending_masteradmin_approval in the same transaction; a rejection is
// terminal. Notes are required either way.
func (s *TransitionService) SuperAdminReview(submissionID int, result, notes string, actor Actor) (*models.Submission, error) {
	result = strings.ToLower(strings.TrimSpace(result))
	if result != models.ReviewResultApproved && result != models.ReviewResultRejected {
		return nil, &ValidationError{Field: "result", Message: "must be 'approved' or 'rejected'"}
	}
	trimmed := strings.TrimSpace(notes)
	if trimmed == "" {
		return nil, &ValidationError{Field: "notes", Message: "review notes are required"}
	}

	now := s.now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, code, err := s.loadSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if code != models.StatusPendingSuperAdminReview {
			return &IllegalTransitionError{Action: "superadmin_review", CurrentStatus: code}
		}

		updates := map[string]interface{}{
			"superadmin_reviewed_at": now,
			"superadmin_result":      result,
			"superadmin_notes":       trimmed,
			"updated_at":             now,
		}

		if result == models.ReviewResultRejected {
			toID, err := s.statuses.IDByCode(models.StatusRejected)
			if err != nil {
				return err
			}
			if err := s.casStatus(tx, sub, toID, updates); err != nil {
				return err
			}
			if err := s.appendHistory(tx, sub, &sub.StatusID, toID, models.ActionSuperAdminReject, actor, &trimmed, now); err != nil {
				return err
			}
			if err := s.appendReview(tx, sub, actor, models.ReviewStageSuperAdmin, result, &trimmed, now); err != nil {
				return err
			}
			return s.appendAudit(tx, actor, "review", sub, "Submission rejected by superadmin", map[string]interface{}{
				"status": models.StatusRejected,
				"notes":  trimmed,
			}, now)
		}

		verifiedID, err := s.statuses.IDByCode(models.StatusSuperAdminVerified)
		if err != nil {
			return err
		}
		pendingMasterID, err := s.statuses.IDByCode(models.StatusPendingMasterAdminApproval)
		if err != nil {
			return err
		}

		if err := s.casStatus(tx, sub, verifiedID, updates); err != nil {
			return err
		}
		if err := s.appendHistory(tx, sub, &sub.StatusID, verifiedID, models.ActionSuperAdminVerify, actor, &trimmed, now); err != nil {
			return err
		}

		// Auto-advance to the masteradmin queue.
		res := tx.Model(&models.Submission{}).
			Where("submission_id = ? AND status_id = ?", sub.SubmissionID, verifiedID).
			Updates(map[string]interface{}{"status_id": pendingMasterID, "updated_at": now})
		if res.Error != nil {
			return fmt.Errorf("failed to auto-advance submission: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentModification
		}
		if err := s.appendHistory(tx, sub, &verifiedID, pendingMasterID, models.ActionAutoAdvance, actor, nil, now); err != nil {
			return err
		}

		if err := s.appendReview(tx, sub, actor, models.ReviewStageSuperAdmin, result, &trimmed, now); err != nil {
			return err
		}
		return s.appendAudit(tx, actor, "review", sub, "Submission verified by superadmin", map[string]interface{}{
			"status": models.StatusPendingMasterAdminApproval,
			"notes":  trimmed,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(submissionID)
}

// MasterAdminDecide records the final decision from
// pending_masteradmin_approval. Both outcomes are terminal.
func (s *TransitionService) MasterAdminDecide(submissionID int, result string, actor Actor) (*models.Submission, error) {
	result = strings.ToLower(strings.TrimSpace(result))
	if result != models.ReviewResultApproved && result != models.ReviewResultRejected {
		return nil, &ValidationError{Field: "result", Message: "must be 'approved' or 'rejected'"}
	}

	now := s.now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, code, err := s.loadSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if code != models.StatusPendingMasterAdminApproval {
			return &IllegalTransitionError{Action: "masteradmin_decide", CurrentStatus: code}
		}

		toCode := models.StatusApproved
		action := models.ActionMasterAdminApprove
		message := "Submission approved by masteradmin"
		if result == models.ReviewResultRejected {
			toCode = models.StatusRejected
			action = models.ActionMasterAdminReject
			message = "Submission rejected by masteradmin"
		}

		toID, err := s.statuses.IDByCode(toCode)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"masteradmin_decided_at": now,
			"masteradmin_result":     result,
			"updated_at":             now,
		}
		if err := s.casStatus(tx, sub, toID, updates); err != nil {
			return err
		}

		if err := s.appendHistory(tx, sub, &sub.StatusID, toID, action, actor, nil, now); err != nil {
			return err
		}
		if err := s.appendReview(tx, sub, actor, models.ReviewStageMasterAdmin, result, nil, now); err != nil {
			return err
		}
		return s.appendAudit(tx, actor, "review", sub, message, map[string]interface{}{
			"status": toCode,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(submissionID)
}

// ResetForReview rewinds pending_superadmin_review back to
// pending_admin_review, clearing the admin verification but leaving forms
// intact. This is the only backward move in the pipeline; it is restricted
// to admins and fully audited. Terminal decisions are never rewound.
func (s *TransitionService) ResetForReview(submissionID int, actor Actor) (*models.Submission, error) {
	if actor.RoleID != models.RoleAdmin {
		return nil, &IllegalTransitionError{Action: "reset", Reason: "reset is restricted to admins"}
	}

	now := s.now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, code, err := s.loadSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if code != models.StatusPendingSuperAdminReview {
			return &IllegalTransitionError{Action: "reset", CurrentStatus: code}
		}

		toID, err := s.statuses.IDByCode(models.StatusPendingAdminReview)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"admin_verification_uploaded_at": nil,
			"admin_verification_notes":       nil,
			"updated_at":                     now,
		}
		if err := s.casStatus(tx, sub, toID, updates); err != nil {
			return err
		}

		if err := s.appendHistory(tx, sub, &sub.StatusID, toID, models.ActionReset, actor, nil, now); err != nil {
			return err
		}
		return s.appendAudit(tx, actor, "reset", sub, "Submission reset for re-review", map[string]interface{}{
			"status":   models.StatusPendingAdminReview,
			"reset_by": actor.UserID,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(submissionID)
}

// AppendActivityLog appends a free-form audit entry for a submission,
// backing the activity-log collaborator endpoint.
func (s *TransitionService) AppendActivityLog(submissionID int, actionType, details string, actor Actor) error {
	actionType = strings.TrimSpace(actionType)
	if actionType == "" {
		return &ValidationError{Field: "action_type", Message: "action type is required"}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		sub, _, err := s.loadSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		return s.appendAudit(tx, actor, actionType, sub, details, nil, s.now())
	})
}

func (s *TransitionService) loadSubmission(tx *gorm.DB, submissionID int) (*models.Submission, string, error) {
	var sub models.Submission
	if err := tx.Where("submission_id = ? AND deleted_at IS NULL", submissionID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrSubmissionNotFound
		}
		return nil, "", fmt.Errorf("failed to load submission: %w", err)
	}
	code, err := s.statuses.CodeByID(sub.StatusID)
	if err != nil {
		return nil, "", err
	}
	return &sub, code, nil
}

// casStatus performs the optimistic status swap. Zero rows affected after
// the in-transaction status check means another writer won the race.
func (s *TransitionService) casStatus(tx *gorm.DB, sub *models.Submission, toStatusID int, updates map[string]interface{}) error {
	updates["status_id"] = toStatusID
	res := tx.Model(&models.Submission{}).
		Where("submission_id = ? AND status_id = ?", sub.SubmissionID, sub.StatusID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update submission: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (s *TransitionService) appendHistory(tx *gorm.DB, sub *models.Submission, oldStatusID *int, newStatusID int, action string, actor Actor, notes *string, now time.Time) error {
	history := models.SubmissionStatusHistory{
		SubmissionID: sub.SubmissionID,
		OldStatusID:  oldStatusID,
		NewStatusID:  newStatusID,
		Action:       action,
		ChangedBy:    actor.UserID,
		Notes:        notes,
		CreatedAt:    now,
	}
	if err := tx.Create(&history).Error; err != nil {
		return fmt.Errorf("failed to log status history: %w", err)
	}
	return nil
}

func (s *TransitionService) appendReview(tx *gorm.DB, sub *models.Submission, actor Actor, stage, result string, comments *string, now time.Time) error {
	var round int64
	if err := tx.Model(&models.SubmissionReview{}).
		Where("submission_id = ? AND review_stage = ?", sub.SubmissionID, stage).
		Count(&round).Error; err != nil {
		return fmt.Errorf("failed to count review rounds: %w", err)
	}

	review := models.SubmissionReview{
		SubmissionID: sub.SubmissionID,
		ReviewerID:   actor.UserID,
		ReviewStage:  stage,
		ReviewRound:  int(round) + 1,
		Result:       result,
		Comments:     comments,
		ReviewedAt:   now,
	}
	if err := tx.Create(&review).Error; err != nil {
		return fmt.Errorf("failed to save review record: %w", err)
	}
	return nil
}

func (s *TransitionService) appendAudit(tx *gorm.DB, actor Actor, action string, sub *models.Submission, description string, values map[string]interface{}, now time.Time) error {
	entityID := sub.SubmissionID
	audit := models.AuditLog{
		UserID:      actor.UserID,
		Action:      action,
		EntityType:  "submission",
		EntityID:    &entityID,
		Description: optional(description),
		IPAddress:   actor.IPAddress,
		CreatedAt:   now,
	}
	if sub.SubmissionNumber != "" {
		number := sub.SubmissionNumber
		audit.EntityNumber = &number
	}
	if values != nil {
		serialized, _ := json.Marshal(values)
		audit.NewValues = optional(string(serialized))
	}
	if strings.TrimSpace(actor.UserAgent) != "" {
		ua := actor.UserAgent
		audit.UserAgent = &ua
	}

	if err := tx.Create(&audit).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *TransitionService) reload(submissionID int) (*models.Submission, error) {
	var sub models.Submission
	if err := s.db.Preload("Forms").Preload("Status").
		Where("submission_id = ?", submissionID).
		First(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to reload submission: %w", err)
	}
	return &sub, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

package services

import (
	"errors"
	"fmt"

	"kyc-tracking-api/config"
	"kyc-tracking-api/models"

	"gorm.io/gorm"
)

// NotificationService emails marketers about terminal decisions.
// Delivery is best-effort: failures are logged and never fail the
// transition that triggered them.
type NotificationService struct {
	db       *gorm.DB
	sendMail func(to []string, subject, html string) error
}

// NewNotificationService creates a NotificationService backed by db and
// the configured SMTP relay.
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, sendMail: config.SendMail}
}

// NotifyDecision sends the marketer a decision email for an approved or
// rejected submission. Non-terminal statuses are ignored.
func (s *NotificationService) NotifyDecision(sub *models.Submission, statusCode string) {
	if !models.IsTerminal(statusCode) {
		return
	}

	var marketer models.User
	if err := s.db.Where("user_id = ? AND delete_at IS NULL", sub.MarketerID).First(&marketer).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			config.Log.Warnf("decision notification: failed to load marketer %d: %v", sub.MarketerID, err)
		}
		return
	}

	subject := "Your KYC verification has been approved"
	body := fmt.Sprintf(
		"<p>Dear %s,</p><p>Your identity verification (reference <b>%s</b>) has been <b>approved</b>. You can now access your dashboard.</p>",
		marketer.FirstName, sub.SubmissionNumber,
	)
	if statusCode == models.StatusRejected {
		subject = "Your KYC verification was rejected"
		body = fmt.Sprintf(
			"<p>Dear %s,</p><p>Your identity verification (reference <b>%s</b>) was <b>rejected</b>. Please contact your administrator to start a new submission.</p>",
			marketer.FirstName, sub.SubmissionNumber,
		)
	}

	if err := s.sendMail([]string{marketer.Email}, subject, body); err != nil {
		config.Log.Warnf("decision notification: failed to email %s: %v", marketer.Email, err)
	}
}

package controllers

import (
	"net/http"

	"kyc-tracking-api/models"

	"github.com/gin-gonic/gin"
)

// SuperAdminReview handles verify/reject decisions from superadmins.
// Notes are required either way; an approval auto-advances the submission
// to the masteradmin queue.
func SuperAdminReview(c *gin.Context) {
	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Result string `json:"result" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	submission, err := transitionService.SuperAdminReview(submissionID, req.Result, req.Notes, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message := "Submission verified and sent for final approval"
	if submission.SuperAdminResult != nil && *submission.SuperAdminResult == models.ReviewResultRejected {
		message = "Submission rejected by superadmin"
		if submission.Status != nil {
			notificationService.NotifyDecision(submission, submission.Status.StatusCode)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    message,
		"submission": submission,
	})
}

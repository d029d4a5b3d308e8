package controllers

import (
	"net/http"

	"kyc-tracking-api/models"

	"github.com/gin-gonic/gin"
)

// MasterAdminDecide records the final approve/reject decision and
// notifies the marketer.
func MasterAdminDecide(c *gin.Context) {
	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Result string `json:"result" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	submission, err := transitionService.MasterAdminDecide(submissionID, req.Result, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message := "Submission approved"
	statusCode := models.StatusApproved
	if submission.MasterAdminResult != nil && *submission.MasterAdminResult == models.ReviewResultRejected {
		message = "Submission rejected"
		statusCode = models.StatusRejected
	}
	notificationService.NotifyDecision(submission, statusCode)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    message,
		"submission": submission,
	})
}

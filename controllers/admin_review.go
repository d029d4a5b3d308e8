package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadAdminVerification records the admin's verification upload for a
// submission whose three intake forms are complete.
func UploadAdminVerification(c *gin.Context) {
	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	// Notes are optional; tolerate an empty body.
	_ = c.ShouldBindJSON(&req)

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	submission, err := transitionService.UploadAdminVerification(submissionID, req.Notes, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Admin verification uploaded",
		"submission": submission,
	})
}

// SendToSuperAdmin forwards a verified submission to the superadmin queue.
func SendToSuperAdmin(c *gin.Context) {
	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	submission, err := transitionService.SendToSuperAdmin(submissionID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Submission sent to superadmin",
		"submission": submission,
	})
}

// ResetSubmission rewinds a submission awaiting superadmin review back to
// admin review. The backward move is audited with the acting admin.
func ResetSubmission(c *gin.Context) {
	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	submission, err := transitionService.ResetForReview(submissionID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Submission reset for re-review",
		"submission": submission,
	})
}

package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"kyc-tracking-api/services"

	"github.com/gin-gonic/gin"
)

func submissionIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid submission ID"})
		return 0, false
	}
	return id, true
}

// CreateSubmission opens a new verification attempt for the calling
// marketer.
func CreateSubmission(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	submission, err := transitionService.CreateSubmission(actor.UserID, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"message":    "Submission created",
		"submission": submission,
	})
}

// SubmitForm stores one of the three intake forms. Re-submission
// overwrites the payload but keeps the completion flag.
func SubmitForm(c *gin.Context) {
	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}
	formType := c.Param("form")

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var payload json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	form, err := formService.SubmitForm(submissionID, formType, payload, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	allSubmitted, err := formService.AllFormsSubmitted(submissionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"message":             "Form submitted",
		"form":                form,
		"all_forms_submitted": allSubmitted,
	})
}

// GetTimeline returns the derived stage timeline for one submission.
func GetTimeline(c *gin.Context) {
	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	timeline, err := timelineService.GetTimeline(submissionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"timeline": timeline,
	})
}

func timelineFilterFromQuery(c *gin.Context) services.TimelineFilter {
	filter := services.TimelineFilter{
		StatusCode: c.Query("status"),
	}
	if raw := c.Query("marketer_id"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil && id > 0 {
			filter.MarketerID = id
		}
	}
	return filter
}

// GetTimelines returns the derived timelines for every submission
// matching the filter.
func GetTimelines(c *gin.Context) {
	timelines, err := timelineService.ListTimelines(timelineFilterFromQuery(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"timelines": timelines,
		"total":     len(timelines),
	})
}

// GetStats returns fleet-level aggregate statistics over the matching
// submissions.
func GetStats(c *gin.Context) {
	stats, err := statsService.Stats(timelineFilterFromQuery(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// AppendActivityLog appends a free-form audit entry, used by the external
// activity-logging collaborator.
func AppendActivityLog(c *gin.Context) {
	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req struct {
		ActionType string `json:"action_type" binding:"required"`
		Details    string `json:"details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := transitionService.AppendActivityLog(submissionID, req.ActionType, req.Details, actor); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Activity logged",
	})
}

// GetSubmissionStatuses lists the pipeline status rows.
func GetSubmissionStatuses(c *gin.Context) {
	statuses, err := statusService.GetStatuses()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load statuses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"statuses": statuses,
	})
}

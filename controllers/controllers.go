package controllers

import (
	"errors"
	"net/http"

	"kyc-tracking-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	statusService       *services.StatusService
	formService         *services.FormService
	transitionService   *services.TransitionService
	timelineService     *services.TimelineService
	statsService        *services.StatsService
	notificationService *services.NotificationService
)

// Init wires the controller package to its services. Called once from
// main after the database connection is up.
func Init(db *gorm.DB) {
	statusService = services.NewStatusService(db)
	formService = services.NewFormService(db, statusService)
	transitionService = services.NewTransitionService(db, statusService)
	timelineService = services.NewTimelineService(db, statusService)
	statsService = services.NewStatsService(timelineService)
	notificationService = services.NewNotificationService(db)
}

// currentActor builds the acting user from the auth middleware context.
func currentActor(c *gin.Context) (services.Actor, bool) {
	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return services.Actor{}, false
	}
	userID, ok := userIDValue.(int)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return services.Actor{}, false
	}

	roleID := 0
	if roleValue, exists := c.Get("roleID"); exists {
		roleID, _ = roleValue.(int)
	}

	return services.Actor{
		UserID:    userID,
		RoleID:    roleID,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}, true
}

// respondServiceError maps the service error taxonomy to HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	var invalidForm *services.InvalidFormNameError
	var illegal *services.IllegalTransitionError
	var validation *services.ValidationError

	switch {
	case errors.As(err, &invalidForm):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"code":    "invalid_form_name",
			"error":   invalidForm.Error(),
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"code":    "validation_error",
			"error":   validation.Error(),
		})
	case errors.As(err, &illegal):
		c.JSON(http.StatusConflict, gin.H{
			"success":        false,
			"code":           "illegal_transition",
			"error":          illegal.Error(),
			"current_status": illegal.CurrentStatus,
		})
	case errors.Is(err, services.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"code":    "concurrent_modification",
			"error":   "Submission was modified concurrently, please re-read and retry",
		})
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"code":    "not_found",
			"error":   "Submission not found",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
		})
	}
}

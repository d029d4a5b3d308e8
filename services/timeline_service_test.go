package services

import (
	"testing"
	"time"

	"kyc-tracking-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreatedAt = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func testSubmission(submittedForms int) *models.Submission {
	sub := &models.Submission{
		SubmissionID:     1,
		SubmissionNumber: "8d7c2f2e-3f41-4bb8-9f20-8a2f1c6e5d01",
		MarketerID:       42,
		CreatedAt:        testCreatedAt,
		UpdatedAt:        testCreatedAt,
	}
	for i, formType := range models.FormTypes {
		form := models.SubmissionForm{
			SubmissionID: 1,
			FormType:     formType,
		}
		if i < submittedForms {
			ts := testCreatedAt.Add(time.Duration(i+1) * time.Hour)
			form.Submitted = true
			form.SubmittedAt = &ts
		}
		sub.Forms = append(sub.Forms, form)
	}
	return sub
}

func event(action string, at time.Time) TransitionEvent {
	return TransitionEvent{Action: action, Timestamp: at}
}

func stageByName(t *testing.T, timeline Timeline, name string) Stage {
	t.Helper()
	for _, stage := range timeline.Stages {
		if stage.Name == name {
			return stage
		}
	}
	t.Fatalf("stage %s not found", name)
	return Stage{}
}

func TestTimelineNewSubmissionIsEmpty(t *testing.T) {
	sub := testSubmission(0)
	events := []TransitionEvent{event(models.ActionCreate, testCreatedAt)}

	timeline := BuildTimeline(sub, models.StatusPendingAdminReview, events, testCreatedAt.Add(time.Hour), DefaultSLAConfig())

	assert.Equal(t, 0.0, timeline.ProgressPercentage)
	assert.False(t, timeline.IsStuck)
	assert.Equal(t, StagePending, stageByName(t, timeline, StageForms).Status)
	assert.Zero(t, stageByName(t, timeline, StageForms).TimeElapsedMs)
}

func TestTimelineSingleFormProgress(t *testing.T) {
	sub := testSubmission(1)
	events := []TransitionEvent{event(models.ActionCreate, testCreatedAt)}

	timeline := BuildTimeline(sub, models.StatusPendingAdminReview, events, testCreatedAt.Add(2*time.Hour), DefaultSLAConfig())

	// 25% x 1/3
	assert.InDelta(t, 8.33, timeline.ProgressPercentage, 0.01)
	assert.Equal(t, models.StatusPendingAdminReview, timeline.CurrentStatus)

	forms := stageByName(t, timeline, StageForms)
	assert.Equal(t, StageInProgress, forms.Status)
	assert.Equal(t, (2 * time.Hour).Milliseconds(), forms.TimeElapsedMs)
}

func TestTimelineAdminVerifiedProgress(t *testing.T) {
	verifiedAt := testCreatedAt.Add(10 * time.Hour)
	sub := testSubmission(3)
	sub.AdminVerificationUploadedAt = &verifiedAt
	events := []TransitionEvent{
		event(models.ActionCreate, testCreatedAt),
		event(models.ActionAdminVerify, verifiedAt),
	}

	timeline := BuildTimeline(sub, models.StatusAdminVerified, events, verifiedAt.Add(time.Hour), DefaultSLAConfig())

	assert.Equal(t, 25.0, timeline.ProgressPercentage)

	forms := stageByName(t, timeline, StageForms)
	assert.Equal(t, StageCompleted, forms.Status)
	require.NotNil(t, forms.CompletedAt)
	assert.Equal(t, verifiedAt, *forms.CompletedAt)
	assert.Equal(t, (10 * time.Hour).Milliseconds(), forms.TimeElapsedMs)

	admin := stageByName(t, timeline, StageAdminReview)
	assert.Equal(t, StageInProgress, admin.Status)
	assert.Equal(t, time.Hour.Milliseconds(), admin.TimeElapsedMs)
}

func TestTimelineStuckInSuperAdminReview(t *testing.T) {
	verifiedAt := testCreatedAt.Add(2 * time.Hour)
	sentAt := testCreatedAt.Add(3 * time.Hour)
	sub := testSubmission(3)
	events := []TransitionEvent{
		event(models.ActionCreate, testCreatedAt),
		event(models.ActionAdminVerify, verifiedAt),
		event(models.ActionSendToSuperAdmin, sentAt),
	}

	// 50 hours in superadmin review against a 48h threshold
	now := sentAt.Add(50 * time.Hour)
	timeline := BuildTimeline(sub, models.StatusPendingSuperAdminReview, events, now, DefaultSLAConfig())

	assert.Equal(t, 50.0, timeline.ProgressPercentage)
	assert.True(t, timeline.IsStuck)
	require.NotNil(t, timeline.BottleneckStage)
	assert.Equal(t, StageSuperAdminReview, *timeline.BottleneckStage)

	super := stageByName(t, timeline, StageSuperAdminReview)
	assert.Equal(t, StageInProgress, super.Status)
	assert.Equal(t, (50 * time.Hour).Milliseconds(), super.TimeElapsedMs)
}

func TestTimelineNotStuckUnderThreshold(t *testing.T) {
	verifiedAt := testCreatedAt.Add(2 * time.Hour)
	sentAt := testCreatedAt.Add(3 * time.Hour)
	sub := testSubmission(3)
	events := []TransitionEvent{
		event(models.ActionCreate, testCreatedAt),
		event(models.ActionAdminVerify, verifiedAt),
		event(models.ActionSendToSuperAdmin, sentAt),
	}

	timeline := BuildTimeline(sub, models.StatusPendingSuperAdminReview, events, sentAt.Add(47*time.Hour), DefaultSLAConfig())

	assert.False(t, timeline.IsStuck)
	assert.Nil(t, timeline.BottleneckStage)
}

func TestTimelineSuperAdminRejectionIsTerminal(t *testing.T) {
	verifiedAt := testCreatedAt.Add(2 * time.Hour)
	sentAt := testCreatedAt.Add(3 * time.Hour)
	rejectedAt := testCreatedAt.Add(5 * time.Hour)
	notes := "missing ID"
	result := models.ReviewResultRejected

	sub := testSubmission(3)
	sub.SuperAdminResult = &result
	sub.SuperAdminNotes = &notes
	events := []TransitionEvent{
		event(models.ActionCreate, testCreatedAt),
		event(models.ActionAdminVerify, verifiedAt),
		event(models.ActionSendToSuperAdmin, sentAt),
		event(models.ActionSuperAdminReject, rejectedAt),
	}

	// Long after rejection nothing is stuck and the clock has stopped.
	timeline := BuildTimeline(sub, models.StatusRejected, events, rejectedAt.Add(200*time.Hour), DefaultSLAConfig())

	assert.Equal(t, 75.0, timeline.ProgressPercentage)
	assert.False(t, timeline.IsStuck)
	assert.Equal(t, rejectedAt.Sub(testCreatedAt).Milliseconds(), timeline.TotalTimeElapsedMs)

	super := stageByName(t, timeline, StageSuperAdminReview)
	assert.Equal(t, StageCompleted, super.Status)
	require.NotNil(t, super.Result)
	assert.Equal(t, models.ReviewResultRejected, *super.Result)
	require.NotNil(t, super.Notes)
	assert.Equal(t, notes, *super.Notes)

	master := stageByName(t, timeline, StageMasterAdminApproval)
	assert.Equal(t, StagePending, master.Status)
}

func TestTimelineApprovedReachesFullProgress(t *testing.T) {
	verifiedAt := testCreatedAt.Add(2 * time.Hour)
	sentAt := testCreatedAt.Add(3 * time.Hour)
	reviewedAt := testCreatedAt.Add(5 * time.Hour)
	decidedAt := testCreatedAt.Add(8 * time.Hour)
	result := models.ReviewResultApproved

	sub := testSubmission(3)
	sub.SuperAdminResult = &result
	sub.MasterAdminResult = &result
	events := []TransitionEvent{
		event(models.ActionCreate, testCreatedAt),
		event(models.ActionAdminVerify, verifiedAt),
		event(models.ActionSendToSuperAdmin, sentAt),
		event(models.ActionSuperAdminVerify, reviewedAt),
		event(models.ActionAutoAdvance, reviewedAt),
		event(models.ActionMasterAdminApprove, decidedAt),
	}

	timeline := BuildTimeline(sub, models.StatusApproved, events, decidedAt.Add(100*time.Hour), DefaultSLAConfig())

	assert.Equal(t, 100.0, timeline.ProgressPercentage)
	assert.False(t, timeline.IsStuck)
	assert.Equal(t, decidedAt.Sub(testCreatedAt).Milliseconds(), timeline.TotalTimeElapsedMs)

	master := stageByName(t, timeline, StageMasterAdminApproval)
	assert.Equal(t, StageCompleted, master.Status)
	assert.Equal(t, decidedAt.Sub(reviewedAt).Milliseconds(), master.TimeElapsedMs)
}

func TestTimelineResetRestartsReviewStages(t *testing.T) {
	verifiedAt := testCreatedAt.Add(2 * time.Hour)
	sentAt := testCreatedAt.Add(3 * time.Hour)
	resetAt := testCreatedAt.Add(6 * time.Hour)

	sub := testSubmission(3)
	events := []TransitionEvent{
		event(models.ActionCreate, testCreatedAt),
		event(models.ActionAdminVerify, verifiedAt),
		event(models.ActionSendToSuperAdmin, sentAt),
		event(models.ActionReset, resetAt),
	}

	now := resetAt.Add(time.Hour)
	timeline := BuildTimeline(sub, models.StatusPendingAdminReview, events, now, DefaultSLAConfig())

	// Forms survive the reset; the review stages restart from the reset.
	forms := stageByName(t, timeline, StageForms)
	assert.Equal(t, StageCompleted, forms.Status)

	admin := stageByName(t, timeline, StageAdminReview)
	assert.Equal(t, StageInProgress, admin.Status)
	require.NotNil(t, admin.StartedAt)
	assert.Equal(t, resetAt, *admin.StartedAt)
	assert.Equal(t, time.Hour.Milliseconds(), admin.TimeElapsedMs)

	super := stageByName(t, timeline, StageSuperAdminReview)
	assert.Equal(t, StagePending, super.Status)
	assert.Zero(t, super.TimeElapsedMs)

	assert.Equal(t, 25.0, timeline.ProgressPercentage)
}

func TestTimelineSecondAttemptAfterReset(t *testing.T) {
	firstVerify := testCreatedAt.Add(2 * time.Hour)
	firstSend := testCreatedAt.Add(3 * time.Hour)
	resetAt := testCreatedAt.Add(6 * time.Hour)
	secondVerify := testCreatedAt.Add(8 * time.Hour)
	secondSend := testCreatedAt.Add(9 * time.Hour)

	sub := testSubmission(3)
	events := []TransitionEvent{
		event(models.ActionCreate, testCreatedAt),
		event(models.ActionAdminVerify, firstVerify),
		event(models.ActionSendToSuperAdmin, firstSend),
		event(models.ActionReset, resetAt),
		event(models.ActionAdminVerify, secondVerify),
		event(models.ActionSendToSuperAdmin, secondSend),
	}

	now := secondSend.Add(time.Hour)
	timeline := BuildTimeline(sub, models.StatusPendingSuperAdminReview, events, now, DefaultSLAConfig())

	// Only the latest attempt is exposed.
	admin := stageByName(t, timeline, StageAdminReview)
	require.NotNil(t, admin.StartedAt)
	assert.Equal(t, secondVerify, *admin.StartedAt)
	require.NotNil(t, admin.CompletedAt)
	assert.Equal(t, secondSend, *admin.CompletedAt)

	super := stageByName(t, timeline, StageSuperAdminReview)
	assert.Equal(t, StageInProgress, super.Status)
	require.NotNil(t, super.StartedAt)
	assert.Equal(t, secondSend, *super.StartedAt)
	assert.Equal(t, time.Hour.Milliseconds(), super.TimeElapsedMs)

	assert.Equal(t, 50.0, timeline.ProgressPercentage)
}

func TestProgressIsMonotonicAcrossForwardTransitions(t *testing.T) {
	verifiedAt := testCreatedAt.Add(2 * time.Hour)
	sentAt := testCreatedAt.Add(3 * time.Hour)
	reviewedAt := testCreatedAt.Add(5 * time.Hour)
	decidedAt := testCreatedAt.Add(8 * time.Hour)

	steps := []struct {
		forms  int
		status string
		events []TransitionEvent
	}{
		{0, models.StatusPendingAdminReview, []TransitionEvent{event(models.ActionCreate, testCreatedAt)}},
		{1, models.StatusPendingAdminReview, []TransitionEvent{event(models.ActionCreate, testCreatedAt)}},
		{2, models.StatusPendingAdminReview, []TransitionEvent{event(models.ActionCreate, testCreatedAt)}},
		{3, models.StatusPendingAdminReview, []TransitionEvent{event(models.ActionCreate, testCreatedAt)}},
		{3, models.StatusAdminVerified, []TransitionEvent{
			event(models.ActionCreate, testCreatedAt),
			event(models.ActionAdminVerify, verifiedAt),
		}},
		{3, models.StatusPendingSuperAdminReview, []TransitionEvent{
			event(models.ActionCreate, testCreatedAt),
			event(models.ActionAdminVerify, verifiedAt),
			event(models.ActionSendToSuperAdmin, sentAt),
		}},
		{3, models.StatusPendingMasterAdminApproval, []TransitionEvent{
			event(models.ActionCreate, testCreatedAt),
			event(models.ActionAdminVerify, verifiedAt),
			event(models.ActionSendToSuperAdmin, sentAt),
			event(models.ActionSuperAdminVerify, reviewedAt),
			event(models.ActionAutoAdvance, reviewedAt),
		}},
		{3, models.StatusApproved, []TransitionEvent{
			event(models.ActionCreate, testCreatedAt),
			event(models.ActionAdminVerify, verifiedAt),
			event(models.ActionSendToSuperAdmin, sentAt),
			event(models.ActionSuperAdminVerify, reviewedAt),
			event(models.ActionAutoAdvance, reviewedAt),
			event(models.ActionMasterAdminApprove, decidedAt),
		}},
	}

	now := decidedAt.Add(time.Hour)
	previous := -1.0
	for _, step := range steps {
		timeline := BuildTimeline(testSubmission(step.forms), step.status, step.events, now, DefaultSLAConfig())
		assert.GreaterOrEqual(t, timeline.ProgressPercentage, previous, "progress regressed at status %s", step.status)
		assert.GreaterOrEqual(t, timeline.ProgressPercentage, 0.0)
		assert.LessOrEqual(t, timeline.ProgressPercentage, 100.0)
		previous = timeline.ProgressPercentage
	}
}

func TestStuckImpliesNonTerminal(t *testing.T) {
	verifiedAt := testCreatedAt.Add(2 * time.Hour)
	sentAt := testCreatedAt.Add(3 * time.Hour)
	rejectedAt := testCreatedAt.Add(4 * time.Hour)

	sub := testSubmission(3)
	events := []TransitionEvent{
		event(models.ActionCreate, testCreatedAt),
		event(models.ActionAdminVerify, verifiedAt),
		event(models.ActionSendToSuperAdmin, sentAt),
		event(models.ActionSuperAdminReject, rejectedAt),
	}

	for _, status := range []string{models.StatusApproved, models.StatusRejected} {
		timeline := BuildTimeline(sub, status, events, rejectedAt.Add(1000*time.Hour), DefaultSLAConfig())
		assert.False(t, timeline.IsStuck, "terminal status %s must not be stuck", status)
	}
}

func TestSLAConfigOverrides(t *testing.T) {
	t.Setenv("SLA_SUPERADMIN_REVIEW_HOURS", "2")
	cfg := LoadSLAConfig()
	assert.Equal(t, 2*time.Hour, cfg.SuperAdminReview)
	assert.Equal(t, 72*time.Hour, cfg.Forms)

	sub := testSubmission(3)
	events := []TransitionEvent{
		event(models.ActionCreate, testCreatedAt),
		event(models.ActionAdminVerify, testCreatedAt.Add(time.Hour)),
		event(models.ActionSendToSuperAdmin, testCreatedAt.Add(2*time.Hour)),
	}

	timeline := BuildTimeline(sub, models.StatusPendingSuperAdminReview, events, testCreatedAt.Add(5*time.Hour), cfg)
	assert.True(t, timeline.IsStuck)
}

package services

import (
	"errors"
	"math"
	"os"
	"strconv"
	"time"

	"kyc-tracking-api/models"

	"gorm.io/gorm"
)

// Stage names, in pipeline order.
const (
	StageForms               = "forms"
	StageAdminReview         = "admin_review"
	StageSuperAdminReview    = "superadmin_review"
	StageMasterAdminApproval = "masteradmin_approval"
)

// Stage statuses.
const (
	StagePending    = "pending"
	StageInProgress = "in_progress"
	StageCompleted  = "completed"
)

var stageOrder = []string{StageForms, StageAdminReview, StageSuperAdminReview, StageMasterAdminApproval}

// SLAConfig holds the per-stage thresholds used for stuck detection.
type SLAConfig struct {
	Forms               time.Duration
	AdminReview         time.Duration
	SuperAdminReview    time.Duration
	MasterAdminApproval time.Duration
}

// DefaultSLAConfig returns the default per-stage SLA thresholds.
func DefaultSLAConfig() SLAConfig {
	return SLAConfig{
		Forms:               72 * time.Hour,
		AdminReview:         48 * time.Hour,
		SuperAdminReview:    48 * time.Hour,
		MasterAdminApproval: 24 * time.Hour,
	}
}

// LoadSLAConfig returns the default thresholds overridden by the
// SLA_*_HOURS environment variables where set.
func LoadSLAConfig() SLAConfig {
	cfg := DefaultSLAConfig()
	overrideHours(&cfg.Forms, "SLA_FORMS_HOURS")
	overrideHours(&cfg.AdminReview, "SLA_ADMIN_REVIEW_HOURS")
	overrideHours(&cfg.SuperAdminReview, "SLA_SUPERADMIN_REVIEW_HOURS")
	overrideHours(&cfg.MasterAdminApproval, "SLA_MASTERADMIN_APPROVAL_HOURS")
	return cfg
}

func overrideHours(d *time.Duration, envKey string) {
	if raw := os.Getenv(envKey); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			*d = time.Duration(hours) * time.Hour
		}
	}
}

func (c SLAConfig) thresholdFor(stage string) time.Duration {
	switch stage {
	case StageForms:
		return c.Forms
	case StageAdminReview:
		return c.AdminReview
	case StageSuperAdminReview:
		return c.SuperAdminReview
	case StageMasterAdminApproval:
		return c.MasterAdminApproval
	}
	return 0
}

// TransitionEvent is one decoded submission_status_history row.
type TransitionEvent struct {
	Action    string
	ToStatus  string
	Notes     *string
	Timestamp time.Time
}

// Stage is the derived view of one phase of a submission. Stages are
// recomputed on every read; they are never independently mutated.
type Stage struct {
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	TimeElapsedMs int64      `json:"time_elapsed_ms"`
	Result        *string    `json:"result,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

// Timeline is the derived progress view over one submission.
type Timeline struct {
	SubmissionID       int       `json:"submission_id"`
	SubmissionNumber   string    `json:"submission_number"`
	MarketerID         int       `json:"marketer_id"`
	CurrentStatus      string    `json:"current_status"`
	Stages             []Stage   `json:"stages"`
	ProgressPercentage float64   `json:"progress_percentage"`
	TotalTimeElapsedMs int64     `json:"total_time_elapsed_ms"`
	IsStuck            bool      `json:"is_stuck"`
	BottleneckStage    *string   `json:"bottleneck_stage"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// BuildTimeline derives the four stages plus progress and bottleneck
// verdict from a submission's audit history. Only the latest attempt per
// stage is exposed: events before the last reset do not feed the
// admin_review/superadmin_review stages, whose clock restarts at the
// reset timestamp.
func BuildTimeline(sub *models.Submission, currentStatus string, events []TransitionEvent, now time.Time, sla SLAConfig) Timeline {
	formsSubmitted := 0
	for _, form := range sub.Forms {
		if form.Submitted {
			formsSubmitted++
		}
	}

	var resetAt *time.Time
	active := events
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Action == models.ActionReset {
			ts := events[i].Timestamp
			resetAt = &ts
			active = events[i+1:]
			break
		}
	}

	// Forms survive a reset, so the forms stage completes on the first
	// admin verification in the full history.
	firstVerify := firstEventAt(events, models.ActionAdminVerify)

	forms := Stage{Name: StageForms}
	started := sub.CreatedAt
	forms.StartedAt = &started
	switch {
	case firstVerify != nil:
		forms.Status = StageCompleted
		forms.CompletedAt = firstVerify
	case formsSubmitted > 0:
		forms.Status = StageInProgress
	default:
		forms.Status = StagePending
	}

	adminStart := latestEventAt(active, models.ActionAdminVerify)
	if adminStart == nil && resetAt != nil {
		adminStart = resetAt
	}
	admin := Stage{
		Name:        StageAdminReview,
		StartedAt:   adminStart,
		CompletedAt: latestEventAt(active, models.ActionSendToSuperAdmin),
		Notes:       sub.AdminVerificationNotes,
	}

	super := Stage{
		Name:        StageSuperAdminReview,
		StartedAt:   latestEventAt(active, models.ActionSendToSuperAdmin),
		CompletedAt: latestEventAt(active, models.ActionAutoAdvance, models.ActionSuperAdminReject),
		Result:      sub.SuperAdminResult,
		Notes:       sub.SuperAdminNotes,
	}

	master := Stage{
		Name:        StageMasterAdminApproval,
		StartedAt:   latestEventAt(active, models.ActionAutoAdvance),
		CompletedAt: latestEventAt(active, models.ActionMasterAdminApprove, models.ActionMasterAdminReject),
		Result:      sub.MasterAdminResult,
	}

	stages := []Stage{forms, admin, super, master}
	for i := range stages {
		stage := &stages[i]
		if stage.Name != StageForms {
			switch {
			case stage.CompletedAt != nil:
				stage.Status = StageCompleted
			case stage.StartedAt != nil:
				stage.Status = StageInProgress
			default:
				stage.Status = StagePending
			}
		}
		stage.TimeElapsedMs = stageElapsedMs(stage, now)
	}

	progress := progressPercentage(stages, formsSubmitted)

	terminal := models.IsTerminal(currentStatus)
	end := now
	if terminal {
		if last := lastCompletion(stages); last != nil {
			end = *last
		}
	}
	total := end.Sub(sub.CreatedAt).Milliseconds()
	if total < 0 {
		total = 0
	}

	timeline := Timeline{
		SubmissionID:       sub.SubmissionID,
		SubmissionNumber:   sub.SubmissionNumber,
		MarketerID:         sub.MarketerID,
		CurrentStatus:      currentStatus,
		Stages:             stages,
		ProgressPercentage: progress,
		TotalTimeElapsedMs: total,
		CreatedAt:          sub.CreatedAt,
		UpdatedAt:          sub.UpdatedAt,
	}

	if !terminal {
		for i := range stages {
			if stages[i].Status == StageCompleted {
				continue
			}
			if elapsed := time.Duration(stages[i].TimeElapsedMs) * time.Millisecond; elapsed > sla.thresholdFor(stages[i].Name) {
				timeline.IsStuck = true
				name := stages[i].Name
				timeline.BottleneckStage = &name
			}
			break
		}
	}

	return timeline
}

func stageElapsedMs(stage *Stage, now time.Time) int64 {
	switch stage.Status {
	case StageCompleted:
		if stage.StartedAt != nil && stage.CompletedAt != nil {
			return stage.CompletedAt.Sub(*stage.StartedAt).Milliseconds()
		}
	case StageInProgress:
		if stage.StartedAt != nil {
			return now.Sub(*stage.StartedAt).Milliseconds()
		}
	}
	return 0
}

// progressPercentage weights each stage at 25%. The forms stage
// contributes fractionally by submitted form count until it completes.
func progressPercentage(stages []Stage, formsSubmitted int) float64 {
	progress := 0.0
	for _, stage := range stages {
		switch {
		case stage.Status == StageCompleted:
			progress += 25
		case stage.Name == StageForms:
			progress += 25 * float64(formsSubmitted) / float64(len(models.FormTypes))
		}
	}
	return math.Round(progress*100) / 100
}

func lastCompletion(stages []Stage) *time.Time {
	var last *time.Time
	for i := range stages {
		if t := stages[i].CompletedAt; t != nil {
			if last == nil || t.After(*last) {
				last = t
			}
		}
	}
	return last
}

func firstEventAt(events []TransitionEvent, actions ...string) *time.Time {
	for i := range events {
		for _, action := range actions {
			if events[i].Action == action {
				ts := events[i].Timestamp
				return &ts
			}
		}
	}
	return nil
}

func latestEventAt(events []TransitionEvent, actions ...string) *time.Time {
	for i := len(events) - 1; i >= 0; i-- {
		for _, action := range actions {
			if events[i].Action == action {
				ts := events[i].Timestamp
				return &ts
			}
		}
	}
	return nil
}

// TimelineFilter narrows timeline listings.
type TimelineFilter struct {
	StatusCode string
	MarketerID int
}

// TimelineService derives timelines from committed submission state.
type TimelineService struct {
	db       *gorm.DB
	statuses *StatusService
	sla      SLAConfig
	now      func() time.Time
}

// NewTimelineService creates a TimelineService with SLA thresholds loaded
// from the environment.
func NewTimelineService(db *gorm.DB, statuses *StatusService) *TimelineService {
	return &TimelineService{
		db:       db,
		statuses: statuses,
		sla:      LoadSLAConfig(),
		now:      time.Now,
	}
}

// GetTimeline rebuilds the timeline for one submission.
func (s *TimelineService) GetTimeline(submissionID int) (*Timeline, error) {
	var sub models.Submission
	if err := s.db.Preload("Forms").
		Where("submission_id = ? AND deleted_at IS NULL", submissionID).
		First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	events, err := s.loadEvents([]int{sub.SubmissionID})
	if err != nil {
		return nil, err
	}

	code, err := s.statuses.CodeByID(sub.StatusID)
	if err != nil {
		return nil, err
	}

	timeline := BuildTimeline(&sub, code, events[sub.SubmissionID], s.now(), s.sla)
	return &timeline, nil
}

// ListTimelines rebuilds timelines for every submission matching the filter.
func (s *TimelineService) ListTimelines(filter TimelineFilter) ([]Timeline, error) {
	query := s.db.Preload("Forms").Where("deleted_at IS NULL")
	if filter.MarketerID > 0 {
		query = query.Where("marketer_id = ?", filter.MarketerID)
	}
	if filter.StatusCode != "" {
		statusID, err := s.statuses.IDByCode(filter.StatusCode)
		if err != nil {
			return nil, err
		}
		query = query.Where("status_id = ?", statusID)
	}

	var subs []models.Submission
	if err := query.Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(subs))
	for i := range subs {
		ids = append(ids, subs[i].SubmissionID)
	}

	events, err := s.loadEvents(ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	timelines := make([]Timeline, 0, len(subs))
	for i := range subs {
		code, err := s.statuses.CodeByID(subs[i].StatusID)
		if err != nil {
			return nil, err
		}
		timelines = append(timelines, BuildTimeline(&subs[i], code, events[subs[i].SubmissionID], now, s.sla))
	}
	return timelines, nil
}

// loadEvents fetches the status history for the given submissions in one
// query and decodes it into per-submission event lists.
func (s *TimelineService) loadEvents(submissionIDs []int) (map[int][]TransitionEvent, error) {
	result := make(map[int][]TransitionEvent, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return result, nil
	}

	var rows []models.SubmissionStatusHistory
	if err := s.db.Where("submission_id IN ?", submissionIDs).
		Order("created_at ASC, history_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		code, err := s.statuses.CodeByID(row.NewStatusID)
		if err != nil {
			return nil, err
		}
		result[row.SubmissionID] = append(result[row.SubmissionID], TransitionEvent{
			Action:    row.Action,
			ToStatus:  code,
			Notes:     row.Notes,
			Timestamp: row.CreatedAt,
		})
	}
	return result, nil
}

package services

import (
	"math"

	"kyc-tracking-api/models"
)

// AggregateStats folds many submissions' timelines into fleet-level counts.
type AggregateStats struct {
	Total               int     `json:"total"`
	InProgress          int     `json:"in_progress"`
	Completed           int     `json:"completed"`
	Stuck               int     `json:"stuck"`
	AverageCompletionMs float64 `json:"average_completion_ms"`
}

// ComputeStats aggregates a set of timelines. AverageCompletionMs is
// computed only over submissions whose progress reached 100; with none
// completed it is 0, not an error.
func ComputeStats(timelines []Timeline) AggregateStats {
	stats := AggregateStats{Total: len(timelines)}

	var completionSum int64
	var completionCount int
	for i := range timelines {
		t := &timelines[i]
		if models.IsTerminal(t.CurrentStatus) {
			stats.Completed++
		} else {
			stats.InProgress++
		}
		if t.IsStuck {
			stats.Stuck++
		}
		if t.ProgressPercentage >= 100 {
			completionSum += t.TotalTimeElapsedMs
			completionCount++
		}
	}

	if completionCount > 0 {
		stats.AverageCompletionMs = math.Round(float64(completionSum) / float64(completionCount))
	}
	return stats
}

// StatsService computes aggregate statistics over timeline reads.
type StatsService struct {
	timelines *TimelineService
}

// NewStatsService creates a StatsService on top of a TimelineService.
func NewStatsService(timelines *TimelineService) *StatsService {
	return &StatsService{timelines: timelines}
}

// Stats aggregates over all submissions matching the filter.
func (s *StatsService) Stats(filter TimelineFilter) (*AggregateStats, error) {
	timelines, err := s.timelines.ListTimelines(filter)
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(timelines)
	return &stats, nil
}

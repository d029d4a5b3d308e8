package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"kyc-tracking-api/models"

	"gorm.io/gorm"
)

const statusCacheTTL = 5 * time.Minute

type statusCacheEntry struct {
	statuses  []models.SubmissionStatus
	byCode    map[string]models.SubmissionStatus
	byID      map[int]models.SubmissionStatus
	fetchedAt time.Time
}

// StatusService resolves submission status codes against the
// submission_statuses lookup table with an in-memory TTL cache.
type StatusService struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache *statusCacheEntry
}

// NewStatusService creates a StatusService backed by db.
func NewStatusService(db *gorm.DB) *StatusService {
	return &StatusService{db: db}
}

func (s *StatusService) load(force bool) (*statusCacheEntry, error) {
	s.mu.RLock()
	cached := s.cache
	s.mu.RUnlock()

	if cached != nil && !force && time.Since(cached.fetchedAt) < statusCacheTTL {
		return cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil && !force && time.Since(s.cache.fetchedAt) < statusCacheTTL {
		return s.cache, nil
	}

	var rows []models.SubmissionStatus
	if err := s.db.Where("delete_at IS NULL").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load submission statuses: %w", err)
	}

	byCode := make(map[string]models.SubmissionStatus, len(rows))
	byID := make(map[int]models.SubmissionStatus, len(rows))
	for _, status := range rows {
		if status.StatusCode == "" {
			continue
		}
		byCode[strings.TrimSpace(status.StatusCode)] = status
		byID[status.StatusID] = status
	}

	entry := &statusCacheEntry{
		statuses:  rows,
		byCode:    byCode,
		byID:      byID,
		fetchedAt: time.Now(),
	}
	s.cache = entry
	return entry, nil
}

// ClearCache invalidates the in-memory status cache.
func (s *StatusService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
}

// GetStatuses returns all statuses with caching support.
func (s *StatusService) GetStatuses() ([]models.SubmissionStatus, error) {
	entry, err := s.load(false)
	if err != nil {
		return nil, err
	}
	return entry.statuses, nil
}

// GetByCode returns the status row matching the exact status_code.
func (s *StatusService) GetByCode(code string) (*models.SubmissionStatus, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, errors.New("status code is required")
	}

	entry, err := s.load(false)
	if err != nil {
		return nil, err
	}

	if status, ok := entry.byCode[trimmed]; ok {
		return &status, nil
	}

	// Force refresh cache once before giving up
	entry, err = s.load(true)
	if err != nil {
		return nil, err
	}

	if status, ok := entry.byCode[trimmed]; ok {
		return &status, nil
	}

	return nil, fmt.Errorf("status '%s' not found", trimmed)
}

// IDByCode resolves the status_id for the given status_code.
func (s *StatusService) IDByCode(code string) (int, error) {
	status, err := s.GetByCode(code)
	if err != nil {
		return 0, err
	}
	return status.StatusID, nil
}

// CodeByID resolves the status_code for the given status_id.
func (s *StatusService) CodeByID(id int) (string, error) {
	entry, err := s.load(false)
	if err != nil {
		return "", err
	}

	if status, ok := entry.byID[id]; ok {
		return status.StatusCode, nil
	}

	entry, err = s.load(true)
	if err != nil {
		return "", err
	}

	if status, ok := entry.byID[id]; ok {
		return status.StatusCode, nil
	}

	return "", fmt.Errorf("status id %d not found", id)
}

// IDsByCodes resolves multiple status IDs keyed by their status_code.
func (s *StatusService) IDsByCodes(codes []string) (map[string]int, error) {
	result := make(map[string]int, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	entry, err := s.load(false)
	if err != nil {
		return nil, err
	}

	missing := make([]string, 0)
	for _, raw := range codes {
		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}
		if status, ok := entry.byCode[code]; ok {
			result[code] = status.StatusID
			continue
		}
		missing = append(missing, code)
	}

	if len(missing) == 0 {
		return result, nil
	}

	entry, err = s.load(true)
	if err != nil {
		return nil, err
	}

	unresolved := make([]string, 0)
	for _, code := range missing {
		if status, ok := entry.byCode[code]; ok {
			result[code] = status.StatusID
		} else {
			unresolved = append(unresolved, code)
		}
	}

	if len(unresolved) > 0 {
		return nil, fmt.Errorf("missing statuses: %s", strings.Join(unresolved, ", "))
	}

	return result, nil
}

package services

import (
	"testing"

	"kyc-tracking-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCacheServesRepeatLookups(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewStatusService(db)

	// Only one query is expected for any number of lookups inside the TTL.
	mock.ExpectQuery("SELECT (.+) FROM `submission_statuses`").WillReturnRows(statusRows())

	statuses, err := svc.GetStatuses()
	require.NoError(t, err)
	assert.Len(t, statuses, len(mockStatusCodes))

	id, err := svc.IDByCode(models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, mockStatusApproved, id)

	code, err := svc.CodeByID(mockStatusPendingSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingSuperAdminReview, code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusClearCacheForcesRequery(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewStatusService(db)

	mock.ExpectQuery("SELECT (.+) FROM `submission_statuses`").WillReturnRows(statusRows())
	mock.ExpectQuery("SELECT (.+) FROM `submission_statuses`").WillReturnRows(statusRows())

	_, err := svc.GetStatuses()
	require.NoError(t, err)

	svc.ClearCache()

	_, err = svc.GetStatuses()
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusUnknownCodeRefreshesOnceBeforeFailing(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewStatusService(db)

	mock.ExpectQuery("SELECT (.+) FROM `submission_statuses`").WillReturnRows(statusRows())
	// A cache miss forces exactly one refresh before the lookup fails.
	mock.ExpectQuery("SELECT (.+) FROM `submission_statuses`").WillReturnRows(statusRows())

	_, err := svc.GetStatuses()
	require.NoError(t, err)

	_, err = svc.IDByCode("archived")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusIDsByCodes(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewStatusService(db)

	mock.ExpectQuery("SELECT (.+) FROM `submission_statuses`").WillReturnRows(statusRows())

	ids, err := svc.IDsByCodes([]string{models.StatusApproved, models.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		models.StatusApproved: mockStatusApproved,
		models.StatusRejected: mockStatusRejected,
	}, ids)

	assert.NoError(t, mock.ExpectationsWereMet())
}

package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Status IDs used by the mock fixtures, in pipeline order.
const (
	mockStatusPendingAdmin      = 1
	mockStatusAdminVerified     = 2
	mockStatusPendingSuperAdmin = 3
	mockStatusSuperVerified     = 4
	mockStatusPendingMaster     = 5
	mockStatusApproved          = 6
	mockStatusRejected          = 7
)

var mockStatusCodes = []string{
	"pending_admin_review",
	"admin_verified",
	"pending_superadmin_review",
	"superadmin_verified",
	"pending_masteradmin_approval",
	"approved",
	"rejected",
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to create gorm db: %v", err)
	}
	return gormDB, mock
}

func statusRows() *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"status_id", "status_code", "status_name"})
	for i, code := range mockStatusCodes {
		rows.AddRow(i+1, code, code)
	}
	return rows
}

// primedStatusService loads the status cache up front so transition tests
// do not interleave lookup queries with transaction expectations.
func primedStatusService(t *testing.T, db *gorm.DB, mock sqlmock.Sqlmock) *StatusService {
	t.Helper()
	mock.ExpectQuery("SELECT (.+) FROM `submission_statuses`").WillReturnRows(statusRows())
	svc := NewStatusService(db)
	if _, err := svc.GetStatuses(); err != nil {
		t.Fatalf("failed to prime status cache: %v", err)
	}
	return svc
}

func submissionColumns() []string {
	return []string{"submission_id", "submission_number", "marketer_id", "status_id", "created_at", "updated_at"}
}

func submissionRows(id, statusID int, at time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(submissionColumns()).
		AddRow(id, "f2b9a4b0-0000-4000-8000-000000000001", 42, statusID, at, at)
}

// expectReload matches the post-commit re-read with its Forms and Status
// preloads. The argument pins matter: the Forms preload must join on the
// submission id and the Status preload on the status id.
func expectReload(mock sqlmock.Sqlmock, id, statusID int, at time.Time) {
	mock.ExpectQuery("SELECT (.+) FROM `submissions`").
		WithArgs(id).
		WillReturnRows(submissionRows(id, statusID, at))
	mock.ExpectQuery("SELECT (.+) FROM `submission_forms`").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"form_id", "submission_id", "form_type", "submitted"}))
	mock.ExpectQuery("SELECT (.+) FROM `submission_statuses`").
		WithArgs(statusID).
		WillReturnRows(sqlmock.NewRows([]string{"status_id", "status_code", "status_name"}).
			AddRow(statusID, mockStatusCodes[statusID-1], mockStatusCodes[statusID-1]))
}

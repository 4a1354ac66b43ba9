package auditdb

import (
	"context"
	"testing"
	"time"

	"tablesync/core/engine"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestLogger_RecordInsertsSummaryAndDetails(t *testing.T) {
	db, mock := setupMockDB(t)
	logger := NewLogger(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `run_summaries`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `change_details`").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	res := &engine.RunResult{
		RunID:     "abc12345",
		Unit:      "ccp",
		Mode:      engine.ModeTwoWay,
		StartedAt: time.Now(),
	}
	res.Changes.Updates = append(res.Changes.Updates, engine.Change{
		Op: engine.OpUpdate, Key: "SUP-1", Target: engine.SideRemote,
		Diffs: []engine.FieldChange{{Field: "name", Old: "Acme", New: "Acme Corp"}},
	})
	res.Changes.Conflicts = append(res.Changes.Conflicts, engine.Change{
		Op: engine.OpConflict, Key: "SUP-2", Reason: "timestamps equal",
	})

	logger.Record(context.Background(), res)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogger_SummaryFailureSkipsDetails(t *testing.T) {
	db, mock := setupMockDB(t)
	logger := NewLogger(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `run_summaries`").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	res := &engine.RunResult{RunID: "ff00ff00", Unit: "suppliers", Mode: engine.ModePush}
	res.Changes.Updates = append(res.Changes.Updates, engine.Change{
		Op: engine.OpUpdate, Key: "SUP-1",
		Diffs: []engine.FieldChange{{Field: "qty", Old: "1", New: "2"}},
	})

	// Must not panic; failure is swallowed and details are not attempted.
	logger.Record(context.Background(), res)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogger_NoDetailsNoInsert(t *testing.T) {
	db, mock := setupMockDB(t)
	logger := NewLogger(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `run_summaries`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	logger.Record(context.Background(), &engine.RunResult{RunID: "00000000", Unit: "empty"})

	assert.NoError(t, mock.ExpectationsWereMet())
}

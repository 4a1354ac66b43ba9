package sheets

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"tablesync/core/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAuditLogger(t *testing.T, f *fakeSheet) *AuditLogger {
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	cfg := Config{
		BaseURL:         srv.URL,
		SpreadsheetID:   "sheet-1",
		AccessToken:     "tok",
		TimeoutSeconds:  5,
		AuditDetailsTab: "change_details",
		AuditSummaryTab: "run_summary",
	}
	return NewAuditLogger(NewClient(cfg), cfg, zap.NewNop())
}

func TestAuditLogger_RecordAppendsDetailsAndSummary(t *testing.T) {
	f := newFakeSheet(t)
	logger := newTestAuditLogger(t, f)

	res := &engine.RunResult{
		RunID:     "abc12345",
		Unit:      "ccp",
		Mode:      engine.ModeTwoWay,
		StartedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}
	res.Changes.Updates = append(res.Changes.Updates, engine.Change{
		Op: engine.OpUpdate, Key: "SUP-1", Target: engine.SideRemote,
		Diffs: []engine.FieldChange{
			{Field: "name", Old: "Acme", New: "Acme Corp"},
			{Field: "qty", Old: "5", New: "9"},
		},
	})
	res.Changes.Conflicts = append(res.Changes.Conflicts, engine.Change{
		Op: engine.OpConflict, Key: "SUP-2", Reason: "timestamps equal",
	})
	res.Summary = engine.Summary{Updates: 1, Conflicts: 1, Applied: 1}

	logger.Record(context.Background(), res)

	details := f.appends["'change_details'!A1"]
	require.Len(t, details, 1)
	require.Len(t, details[0], 3, "one row per field change plus the conflict")
	assert.Equal(t, "update", details[0][0][2])
	assert.Equal(t, "name", details[0][0][5])
	assert.Equal(t, "Acme Corp", details[0][0][7])
	assert.Equal(t, "conflict", details[0][2][2])

	summaries := f.appends["'run_summary'!A1"]
	require.Len(t, summaries, 1)
	row := summaries[0][0]
	assert.Equal(t, "2026-03-01 10:30:00", row[0])
	assert.Equal(t, "abc12345", row[1])
	assert.Equal(t, "ccp", row[2])
	assert.Equal(t, "ok", row[12])
}

func TestAuditLogger_AbortedRunStillSummarized(t *testing.T) {
	f := newFakeSheet(t)
	logger := newTestAuditLogger(t, f)

	logger.Record(context.Background(), &engine.RunResult{
		RunID:     "ff00ff00",
		Unit:      "suppliers",
		Mode:      engine.ModePush,
		StartedAt: time.Now(),
		Aborted:   true,
		Error:     "remote read: pagination: page at token \"p3\": boom",
	})

	summaries := f.appends["'run_summary'!A1"]
	require.Len(t, summaries, 1)
	row := summaries[0][0]
	assert.Equal(t, "aborted", row[12])
	assert.Contains(t, row[13], "pagination")
}

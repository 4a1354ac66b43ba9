package archive

import (
	"context"
	"testing"
	"time"

	"tablesync/core/archive/mocks"
	"tablesync/core/engine"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestStore_Record(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "runs", mock.MatchedBy(func(name string) bool {
		return name == "runs/suppliers/2026-03-01/abc12345.json"
	}), mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)

	store := NewStore(client, "runs", zap.NewNop())
	store.Record(context.Background(), &engine.RunResult{
		RunID:     "abc12345",
		Unit:      "suppliers",
		Mode:      engine.ModePush,
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})

	client.AssertExpectations(t)
}

func TestStore_RecordUploadFailureIsSwallowed(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError)

	store := NewStore(client, "runs", zap.NewNop())

	// Must not panic or propagate: archiving is best-effort.
	store.Record(context.Background(), &engine.RunResult{RunID: "ff00ff00", Unit: "ccp"})
	client.AssertExpectations(t)
}

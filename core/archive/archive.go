package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"tablesync/core/engine"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Store archives the full JSON report of every run to object storage, one
// object per run. It implements audit.Logger; failures are logged and
// swallowed so archiving can never abort a sync run.
type Store struct {
	client Client
	bucket string
	log    *zap.Logger
}

// NewStore creates an archive store over the given client and bucket.
func NewStore(client Client, bucket string, log *zap.Logger) *Store {
	return &Store{client: client, bucket: bucket, log: log}
}

// Record uploads the run report as runs/<unit>/<date>/<run_id>.json.
func (s *Store) Record(ctx context.Context, res *engine.RunResult) {
	payload, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		s.log.Warn("archive: marshal run report failed", zap.Error(err))
		return
	}

	objName := fmt.Sprintf("runs/%s/%s/%s.json",
		res.Unit,
		res.StartedAt.UTC().Format("2006-01-02"),
		res.RunID,
	)

	_, err = s.client.PutObject(ctx, s.bucket, objName, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		s.log.Warn("archive: upload run report failed",
			zap.String("object", objName),
			zap.Error(err),
		)
		return
	}
	s.log.Debug("archived run report", zap.String("object", objName))
}

// EnsureBucket creates the archive bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"diagnostics-dashboard/upload"
)

const uploadBatchesCollection = "upload_batches"

const (
	defaultBatchLimit = 20
	maxBatchLimit     = 100
)

// clampBatchLimit maps a requested page size into [1, maxBatchLimit];
// non-positive values get the default.
func clampBatchLimit(limit int) int {
	if limit <= 0 {
		return defaultBatchLimit
	}
	if limit > maxBatchLimit {
		return maxBatchLimit
	}
	return limit
}

// FirestoreDB wraps a Firestore client and keeps the audit trail of upload
// batches. It implements upload.Journal.
type FirestoreDB struct {
	client *firestore.Client
}

// NewFirestoreDB creates a new Firestore client for the given project ID.
func NewFirestoreDB(ctx context.Context, projectID string) (*FirestoreDB, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &FirestoreDB{client: client}, nil
}

// Close releases underlying Firestore resources.
func (db *FirestoreDB) Close() error {
	return db.client.Close()
}

// BatchStarted stores the initial batch document.
func (db *FirestoreDB) BatchStarted(ctx context.Context, b *upload.Batch) error {
	if b == nil {
		return fmt.Errorf("nil batch")
	}
	if b.BatchID == "" {
		return fmt.Errorf("missing batch_id")
	}
	_, err := db.client.Collection(uploadBatchesCollection).Doc(b.BatchID).Set(ctx, b)
	if err != nil {
		return fmt.Errorf("create upload batch (%s): %w", b.BatchID, err)
	}
	return nil
}

// BatchFinished merges the final status into the batch document.
func (db *FirestoreDB) BatchFinished(ctx context.Context, b *upload.Batch) error {
	if b == nil {
		return fmt.Errorf("nil batch")
	}
	updates := map[string]interface{}{
		"status":        string(b.Status),
		"uploaded":      b.Uploaded,
		"error_message": b.ErrorMsg,
		"finished_at":   b.FinishedAt,
	}
	_, err := db.client.Collection(uploadBatchesCollection).Doc(b.BatchID).Set(ctx, updates, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("update upload batch (%s): %w", b.BatchID, err)
	}
	return nil
}

// GetUploadBatch fetches a batch by id. A missing document returns (nil, nil).
func (db *FirestoreDB) GetUploadBatch(ctx context.Context, batchID string) (*upload.Batch, error) {
	snap, err := db.client.Collection(uploadBatchesCollection).Doc(batchID).Get(ctx)
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get upload batch (%s): %w", batchID, err)
	}
	var b upload.Batch
	if err := snap.DataTo(&b); err != nil {
		return nil, fmt.Errorf("decode upload batch (%s): %w", batchID, err)
	}
	return &b, nil
}

// ListUploadBatchesByService returns the most recent batches for a service,
// newest first.
func (db *FirestoreDB) ListUploadBatchesByService(ctx context.Context, serviceID string, limit int) ([]*upload.Batch, error) {
	serviceID = strings.TrimSpace(serviceID)
	if serviceID == "" {
		return nil, fmt.Errorf("empty service_id")
	}
	limit = clampBatchLimit(limit)

	q := db.client.Collection(uploadBatchesCollection).
		Where("service_id", "==", serviceID).
		OrderBy("started_at", firestore.Desc).
		Limit(limit)

	it := q.Documents(ctx)
	defer it.Stop()

	batches := make([]*upload.Batch, 0)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list upload batches for %s: %w", serviceID, err)
		}
		var b upload.Batch
		if err := snap.DataTo(&b); err != nil {
			return nil, fmt.Errorf("decode upload batch (%s): %w", snap.Ref.ID, err)
		}
		batches = append(batches, &b)
	}
	return batches, nil
}

package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BucketStore writes objects to a Cloud Storage bucket. Firebase Storage
// buckets are plain GCS buckets, so the same handle serves both.
type BucketStore struct {
	bucket *storage.BucketHandle
}

// NewBucketStore wraps an existing bucket handle.
func NewBucketStore(bucket *storage.BucketHandle) *BucketStore {
	return &BucketStore{bucket: bucket}
}

// FirebaseOptions selects the Firebase project and bucket to write to.
type FirebaseOptions struct {
	ProjectID       string
	Bucket          string // required, e.g. "my-project.appspot.com"
	CredentialsFile string // optional; ADC is used when empty
}

// OpenFirebaseBucket initializes a Firebase app and returns a BucketStore for
// its storage bucket, relying on Application Default Credentials unless a
// credentials file is given.
func OpenFirebaseBucket(ctx context.Context, opts FirebaseOptions) (*BucketStore, error) {
	if opts.Bucket == "" {
		return nil, ErrNoBucket
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     opts.ProjectID,
		StorageBucket: opts.Bucket,
	}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase app.Storage: %w", err)
	}

	bucket, err := client.Bucket(opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("open storage bucket: %w", err)
	}
	return NewBucketStore(bucket), nil
}

// Put streams content into the object at obj.Path. The write is only
// committed when the writer closes cleanly; a failed copy cancels it.
func (s *BucketStore) Put(ctx context.Context, obj Object, content io.Reader) error {
	if err := checkPath(obj.Path); err != nil {
		return err
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.bucket.Object(obj.Path).NewWriter(wctx)
	w.ContentType = obj.ContentType
	if len(obj.Metadata) > 0 {
		w.Metadata = obj.Metadata
	}

	if _, err := io.Copy(w, content); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", obj.Path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object %s: %w", obj.Path, err)
	}
	return nil
}

// List returns the objects whose names start with prefix.
func (s *BucketStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	out := make([]ObjectInfo, 0)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects under %s: %w", prefix, err)
		}
		out = append(out, ObjectInfo{
			Path:        attrs.Name,
			Size:        attrs.Size,
			ContentType: attrs.ContentType,
			Metadata:    attrs.Metadata,
			Updated:     attrs.Updated,
		})
	}
	return out, nil
}

// Name returns the bucket name.
func (s *BucketStore) Name() string {
	return s.bucket.BucketName()
}

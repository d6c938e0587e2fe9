// Package upload forwards a user's selected files for one service to object
// storage, one file at a time, and tracks the per-service uploading flag.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"diagnostics-dashboard/dicommeta"
	"diagnostics-dashboard/objstore"
)

var (
	// ErrBatchFailed is the only failure kind a batch reports, whatever the cause.
	ErrBatchFailed = errors.New("upload batch failed")
	// ErrNoFiles is returned for an empty selection; nothing is touched.
	ErrNoFiles = errors.New("no files selected")
)

// Notification is the user-visible outcome of a batch.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

var (
	Success = Notification{Title: "Success", Description: "Files uploaded successfully", Variant: "default"}
	Failure = Notification{Title: "Error", Description: "Failed to upload files", Variant: "destructive"}
)

// File is one user-selected file. Open is called once, right before the
// file's transfer starts.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// BatchStatus is the lifecycle state of a recorded batch.
type BatchStatus string

const (
	BatchUploading BatchStatus = "uploading"
	BatchUploaded  BatchStatus = "uploaded"
	BatchFailed    BatchStatus = "error"
)

// Batch is the audit record of one file-selection event for one service.
type Batch struct {
	BatchID    string      `firestore:"batch_id" json:"batch_id"`
	ServiceID  string      `firestore:"service_id" json:"service_id"`
	FileNames  []string    `firestore:"file_names" json:"file_names"`
	Status     BatchStatus `firestore:"status" json:"status"`
	Uploaded   int         `firestore:"uploaded" json:"uploaded"`
	ErrorMsg   string      `firestore:"error_message" json:"error_message"`
	StartedAt  time.Time   `firestore:"started_at" json:"started_at"`
	FinishedAt time.Time   `firestore:"finished_at" json:"finished_at"`
}

// Journal persists batch records. Failures are logged and never change the
// outcome of the batch itself.
type Journal interface {
	BatchStarted(ctx context.Context, b *Batch) error
	BatchFinished(ctx context.Context, b *Batch) error
}

// Uploader runs upload batches.
type Uploader struct {
	store   objstore.Store
	status  *StatusStore
	journal Journal
	log     zerolog.Logger
}

// NewUploader builds an Uploader. journal may be nil.
func NewUploader(store objstore.Store, status *StatusStore, journal Journal, logger zerolog.Logger) *Uploader {
	if status == nil {
		status = NewStatusStore()
	}
	return &Uploader{
		store:   store,
		status:  status,
		journal: journal,
		log:     logger.With().Str("component", "uploader").Logger(),
	}
}

// Status exposes the uploader's status store.
func (u *Uploader) Status() *StatusStore {
	return u.status
}

// Upload writes files to input/{serviceID}/{name} strictly in order, each
// transfer completing before the next starts. The first failure stops the
// batch; files already written stay written. The service's uploading flag is
// set for the duration and always cleared on return.
func (u *Uploader) Upload(ctx context.Context, serviceID string, files []File) (Notification, error) {
	if len(files) == 0 {
		return Notification{}, ErrNoFiles
	}

	u.status.Set(serviceID, true)
	defer u.status.Set(serviceID, false)

	batch := newBatch(serviceID, files)
	u.recordStart(ctx, batch)

	for _, f := range files {
		if err := u.putFile(ctx, serviceID, f); err != nil {
			u.log.Error().Err(err).
				Str("service_id", serviceID).
				Str("batch_id", batch.BatchID).
				Int("uploaded", batch.Uploaded).
				Int("total", len(files)).
				Msg("upload error")

			batch.Status = BatchFailed
			batch.ErrorMsg = err.Error()
			u.recordFinish(ctx, batch)
			return Failure, fmt.Errorf("%w: %w", ErrBatchFailed, err)
		}
		batch.Uploaded++
	}

	batch.Status = BatchUploaded
	u.recordFinish(ctx, batch)

	u.log.Info().
		Str("service_id", serviceID).
		Str("batch_id", batch.BatchID).
		Int("files", len(files)).
		Msg("upload batch complete")
	return Success, nil
}

func (u *Uploader) putFile(ctx context.Context, serviceID string, f File) error {
	if f.Open == nil {
		return fmt.Errorf("open %s: no content", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	obj := objstore.Object{
		Path:        objstore.ObjectPath(serviceID, f.Name),
		ContentType: f.ContentType,
	}

	if rs, ok := rc.(io.ReadSeeker); ok && dicommeta.LooksLikeDicom(f.Name, f.ContentType) {
		meta, err := u.annotate(rs, f)
		if err != nil {
			return err
		}
		obj.Metadata = meta
	}

	if err := u.store.Put(ctx, obj, rc); err != nil {
		return fmt.Errorf("put %s: %w", obj.Path, err)
	}
	return nil
}

// annotate reads DICOM header tags from rs and rewinds it. Parse failures
// only drop the metadata; an error is returned only if rewinding fails.
func (u *Uploader) annotate(rs io.ReadSeeker, f File) (map[string]string, error) {
	size := f.Size
	if size <= 0 {
		end, err := rs.Seek(0, io.SeekEnd)
		if err == nil {
			size = end
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind %s: %w", f.Name, err)
		}
	}

	info, perr := dicommeta.Inspect(rs, size)
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind %s: %w", f.Name, err)
	}
	if perr != nil {
		u.log.Debug().Err(perr).Str("file", f.Name).Msg("dicom header not readable")
		return nil, nil
	}
	return info.Metadata(), nil
}

func newBatch(serviceID string, files []File) *Batch {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return &Batch{
		BatchID:   uuid.NewString(),
		ServiceID: serviceID,
		FileNames: names,
		Status:    BatchUploading,
		StartedAt: time.Now().UTC(),
	}
}

func (u *Uploader) recordStart(ctx context.Context, b *Batch) {
	if u.journal == nil {
		return
	}
	if err := u.journal.BatchStarted(ctx, b); err != nil {
		u.log.Warn().Err(err).Str("batch_id", b.BatchID).Msg("journal batch start")
	}
}

func (u *Uploader) recordFinish(ctx context.Context, b *Batch) {
	b.FinishedAt = time.Now().UTC()
	if u.journal == nil {
		return
	}
	// Recorded even when the request context is already cancelled.
	if err := u.journal.BatchFinished(context.WithoutCancel(ctx), b); err != nil {
		u.log.Warn().Err(err).Str("batch_id", b.BatchID).Msg("journal batch finish")
	}
}

package domain

import "context"

// MediaStore stores uploaded images out-of-band and returns a stable
// reference that is persisted on the event record but never interpreted.
// Deletion is best-effort: a failed delete leaves an orphaned object behind,
// which is recoverable by garbage collection and must not fail the calling
// operation.
type MediaStore interface {
	Upload(ctx context.Context, upload *MediaUpload) (ref string, err error)
	Delete(ctx context.Context, ref string) error
}

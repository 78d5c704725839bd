package repositories

import (
	"context"
	"io"
)

// ReceiptStorage persists uploaded deposit receipts and returns an opaque reference.
type ReceiptStorage interface {
	Save(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	// Delete removes the object stored under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

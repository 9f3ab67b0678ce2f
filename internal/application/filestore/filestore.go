// Package filestore persists uploaded ID images and hands back stable
// references that the record, the admin email and cleanup all share.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"grantapp/internal/application/models"
)

// ErrInvalidFile is returned when an upload has no content or an unknown slot.
var ErrInvalidFile = errors.New("invalid file")

// Store is a durable, path-addressable image store.
//
// Delete is idempotent: a missing reference is not an error. Any other
// error is reported only so the caller can log it.
type Store interface {
	Store(ctx context.Context, slot models.Slot, up *models.Upload) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

var slotDirs = map[models.Slot]string{
	models.SlotFront: "uploads/front_id",
	models.SlotBack:  "uploads/back_id",
}

// newKey builds "uploads/<slot>_id/<uuid><ext>" from the sniffed type.
func newKey(slot models.Slot, data []byte) (string, string, error) {
	dir, ok := slotDirs[slot]
	if !ok {
		return "", "", fmt.Errorf("%w: unknown slot %q", ErrInvalidFile, slot)
	}
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty upload", ErrInvalidFile)
	}
	mt := mimetype.Detect(data)
	return path.Join(dir, uuid.NewString()+mt.Extension()), mt.String(), nil
}

// validRef rejects references that could escape the store root.
func validRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "/") || strings.Contains(ref, "\\") {
		return false
	}
	clean := path.Clean(ref)
	return clean == ref && !strings.HasPrefix(clean, "../") && clean != ".."
}

// Cleanup deletes every non-empty reference, logging failures instead of
// returning them.
func Cleanup(ctx context.Context, store Store, logger *slog.Logger, refs ...string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := store.Delete(ctx, ref); err != nil && logger != nil {
			logger.WarnContext(ctx, "failed to delete stored file",
				"ref", ref,
				"error", err,
			)
		}
	}
}

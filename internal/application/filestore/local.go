package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"grantapp/internal/application/models"
	"grantapp/pkg/platform/sentinel"
)

// Local stores files under a root directory. Writes go to a temp file in the
// target directory and are renamed into place, so a reference is never
// visible before its content is complete.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Local{root: root}, nil
}

func (l *Local) Store(_ context.Context, slot models.Slot, up *models.Upload) (string, error) {
	if up == nil {
		return "", fmt.Errorf("%w: no upload", ErrInvalidFile)
	}
	ref, _, err := newKey(slot, up.Data)
	if err != nil {
		return "", err
	}

	target := l.path(ref)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create slot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(up.Data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("publish upload: %w", err)
	}
	return ref, nil
}

func (l *Local) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	if !validRef(ref) {
		return nil, fmt.Errorf("%w: bad reference %q", ErrInvalidFile, ref)
	}
	f, err := os.Open(l.path(ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open %s: %w", ref, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", ref, err)
	}
	return f, nil
}

func (l *Local) Delete(_ context.Context, ref string) error {
	if !validRef(ref) {
		return fmt.Errorf("%w: bad reference %q", ErrInvalidFile, ref)
	}
	err := os.Remove(l.path(ref))
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("delete %s: %w", ref, err)
}

func (l *Local) path(ref string) string {
	return filepath.Join(l.root, filepath.FromSlash(ref))
}

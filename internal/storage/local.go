package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// ErrS3NotConfigured is returned when an s3:// reference reaches a storage
// without S3 access.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// LocalStorage serves plain filesystem paths.
type LocalStorage struct {
	tempDir string
}

// NewLocalStorage creates the temporary directory if needed. An empty
// tempDir selects a directory below os.TempDir().
func NewLocalStorage(tempDir string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "algo-restore")
	}

	if err := os.MkdirAll(tempDir, 0o750); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	return &LocalStorage{tempDir: tempDir}, nil
}

// TempDir returns the temporary directory path.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// Fetch checks that ref exists and returns it unchanged.
func (s *LocalStorage) Fetch(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}

	if IsS3(ref) {
		return "", ErrS3NotConfigured
	}

	info, err := os.Stat(ref)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", ref, err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("fetch %s: is a directory", ref)
	}

	return ref, nil
}

// Publish copies localPath to ref, creating parent directories.
func (s *LocalStorage) Publish(ctx context.Context, localPath, ref string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	if IsS3(ref) {
		return ErrS3NotConfigured
	}

	if filepath.Clean(localPath) == filepath.Clean(ref) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(ref), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	src, err := os.Open(localPath) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer src.Close()

	dst, err := os.Create(ref)
	if err != nil {
		return fmt.Errorf("create %s: %w", ref, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(ref)

		return fmt.Errorf("write %s: %w", ref, err)
	}

	return dst.Close()
}

// List returns the regular files in dirRef.
func (s *LocalStorage) List(ctx context.Context, dirRef string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	if IsS3(dirRef) {
		return nil, ErrS3NotConfigured
	}

	entries, err := os.ReadDir(dirRef)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dirRef, err)
	}

	var refs []string

	for _, e := range entries {
		if e.Type().IsRegular() {
			refs = append(refs, filepath.Join(dirRef, e.Name()))
		}
	}

	sort.Strings(refs)

	return refs, nil
}

// TempPath reserves a unique file in the temporary directory.
func (s *LocalStorage) TempPath(name string) (string, error) {
	f, err := os.CreateTemp(s.tempDir, "*_"+filepath.Base(name))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return f.Name(), nil
}

// CleanupTemp removes the specified files, returning the first error.
func (s *LocalStorage) CleanupTemp(ctx context.Context, paths []string) error {
	var firstErr error

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = fmt.Errorf("remove temp file %s: %w", p, err)
		}
	}

	return firstErr
}

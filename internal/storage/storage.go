// Package storage resolves input and output locations for the restore
// commands. Plain paths are served from local disk; s3://bucket/key
// references are downloaded to and uploaded from a temporary directory.
package storage

import (
	"context"
	"path"
	"path/filepath"
	"strings"
)

const s3Scheme = "s3://"

// Storage moves audio files between their reference location and local disk.
type Storage interface {
	// Fetch makes ref available on local disk and returns the path. Paths
	// inside the temporary directory should be released with CleanupTemp.
	Fetch(ctx context.Context, ref string) (localPath string, err error)

	// Publish stores the local file at ref.
	Publish(ctx context.Context, localPath, ref string) error

	// List returns the file references directly below dirRef, sorted.
	List(ctx context.Context, dirRef string) ([]string, error)

	// TempPath returns a fresh local path for an intermediate file whose
	// name ends in name.
	TempPath(name string) (string, error)

	// CleanupTemp removes temporary files, continuing past failures.
	CleanupTemp(ctx context.Context, paths []string) error
}

// IsS3 reports whether ref is an s3:// reference.
func IsS3(ref string) bool {
	return strings.HasPrefix(ref, s3Scheme)
}

// ParseS3 splits s3://bucket/key into bucket and key.
func ParseS3(ref string) (bucket, key string, ok bool) {
	if !IsS3(ref) {
		return "", "", false
	}

	bucket, key, _ = strings.Cut(strings.TrimPrefix(ref, s3Scheme), "/")
	if bucket == "" {
		return "", "", false
	}

	return bucket, key, true
}

// Join appends name to the directory reference dir.
func Join(dir, name string) string {
	if IsS3(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}

	return filepath.Join(dir, name)
}

// Base returns the last element of ref.
func Base(ref string) string {
	if IsS3(ref) {
		return path.Base(ref)
	}

	return filepath.Base(ref)
}

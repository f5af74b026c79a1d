package storage

import "context"

// Open returns an S3Storage when s3cfg is non-nil and a LocalStorage
// otherwise.
func Open(ctx context.Context, tempDir string, s3cfg *S3Config) (Storage, error) {
	if s3cfg == nil {
		local, err := NewLocalStorage(tempDir)
		if err != nil {
			return nil, err
		}

		return local, nil
	}

	remote, err := NewS3Storage(ctx, tempDir, *s3cfg)
	if err != nil {
		return nil, err
	}

	return remote, nil
}

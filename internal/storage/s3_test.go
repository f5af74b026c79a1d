package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listResponse = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>test-bucket</Name>
  <Prefix>in/</Prefix>
  <KeyCount>3</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>in/</Key><Size>0</Size></Contents>
  <Contents><Key>in/b.wav</Key><Size>4</Size></Contents>
  <Contents><Key>in/a.flac</Key><Size>4</Size></Contents>
</ListBucketResult>`

func newMockS3(t *testing.T, handler http.HandlerFunc) *S3Storage {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s, err := NewS3Storage(context.Background(), t.TempDir(), S3Config{
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	})
	require.NoError(t, err)

	return s
}

func TestS3Storage_Fetch(t *testing.T) {
	s := newMockS3(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/test-bucket/in/take1.wav", r.URL.Path)

		w.Header().Set("Content-Length", "4")
		_, _ = w.Write([]byte("RIFF"))
	})

	local, err := s.Fetch(context.Background(), "s3://test-bucket/in/take1.wav")
	require.NoError(t, err)

	assert.Equal(t, s.TempDir(), filepath.Dir(local))
	assert.True(t, strings.HasSuffix(local, "take1.wav"))

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))
}

func TestS3Storage_Publish(t *testing.T) {
	var gotBody []byte

	s := newMockS3(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/test-bucket/out/take1.wav", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		gotBody = body

		w.WriteHeader(http.StatusOK)
	})

	src := filepath.Join(t.TempDir(), "take1.wav")
	require.NoError(t, os.WriteFile(src, []byte("test content"), 0o600))

	require.NoError(t, s.Publish(context.Background(), src, "s3://test-bucket/out/take1.wav"))
	assert.True(t, bytes.Contains(gotBody, []byte("test content")))
}

func TestS3Storage_List(t *testing.T) {
	s := newMockS3(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "2", r.URL.Query().Get("list-type"))
		assert.Equal(t, "in/", r.URL.Query().Get("prefix"))

		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(listResponse))
	})

	refs, err := s.List(context.Background(), "s3://test-bucket/in")
	require.NoError(t, err)
	assert.Equal(t, []string{"s3://test-bucket/in/a.flac", "s3://test-bucket/in/b.wav"}, refs)
}

func TestS3Storage_FallsBackToLocal(t *testing.T) {
	s := newMockS3(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected for local paths")
		w.WriteHeader(http.StatusInternalServerError)
	})

	dir := t.TempDir()
	src := filepath.Join(dir, "a.wav")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	local, err := s.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, src, local)

	refs, err := s.List(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{src}, refs)
}

func TestS3Storage_FetchError(t *testing.T) {
	s := newMockS3(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := s.Fetch(context.Background(), "s3://test-bucket/missing.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download s3://test-bucket/missing.wav")
}

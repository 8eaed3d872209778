package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]map[string]string
	types   map[string]string
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, meta: map[string]map[string]string{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = body
	f.meta[key] = in.Metadata
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func TestPutUploadsUnderPrefix(t *testing.T) {
	local := filepath.Join(t.TempDir(), "7.webp")
	require.NoError(t, os.WriteFile(local, []byte("RIFFpage"), 0o644))

	fake := newFakeS3()
	u := NewS3UploaderWithClient(fake, "scans", "/series/vol1/")
	require.NoError(t, u.Put(context.Background(), local, 7, "image/webp"))

	key := "scans/series/vol1/7.webp"
	assert.Equal(t, []byte("RIFFpage"), fake.objects[key])
	assert.Equal(t, "7", fake.meta[key]["page-index"])
	assert.Equal(t, "image/webp", fake.types[key])
}

func TestPutWithoutContentType(t *testing.T) {
	local := filepath.Join(t.TempDir(), "2.bin")
	require.NoError(t, os.WriteFile(local, []byte("data"), 0o644))

	fake := newFakeS3()
	u := NewS3UploaderWithClient(fake, "scans", "")
	require.NoError(t, u.Put(context.Background(), local, 2, ""))
	assert.Equal(t, "application/octet-stream", fake.types["scans/2.bin"])
}

func TestKeyWithoutPrefix(t *testing.T) {
	u := NewS3UploaderWithClient(newFakeS3(), "scans", "")
	assert.Equal(t, "3.png", u.Key("/tmp/out/3.png"))
}

func TestPutReportsFailures(t *testing.T) {
	fake := newFakeS3()
	u := NewS3UploaderWithClient(fake, "scans", "")

	err := u.Put(context.Background(), filepath.Join(t.TempDir(), "missing.webp"), 1, "image/webp")
	assert.Error(t, err)

	local := filepath.Join(t.TempDir(), "1.webp")
	require.NoError(t, os.WriteFile(local, []byte("x"), 0o644))
	fake.err = errors.New("access denied")
	err = u.Put(context.Background(), local, 1, "image/webp")
	assert.ErrorContains(t, err, "access denied")
}

func TestOptionsEnabled(t *testing.T) {
	assert.False(t, Options{}.Enabled())
	assert.True(t, Options{Bucket: "b"}.Enabled())
}

func TestWithPrefixNestsKeys(t *testing.T) {
	u := NewS3UploaderWithClient(newFakeS3(), "scans", "library")
	assert.Equal(t, "library/One Piece/output/4.webp", u.WithPrefix("One Piece/output").Key("/x/4.webp"))
	assert.Equal(t, "library/4.webp", u.Key("/x/4.webp"))
	assert.Equal(t, "solo/1.png", NewS3UploaderWithClient(newFakeS3(), "scans", "").WithPrefix("/solo/").Key("1.png"))
}

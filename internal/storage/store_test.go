package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureFilename(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":             "photo.jpg",
		"My Report.PDF":         "My_Report.PDF",
		"../../etc/passwd":      "passwd",
		`C:\Users\qa\scan.png`:  "scan.png",
		"naïve café.txt":        "naive_cafe.txt",
		"..hidden":              "hidden",
		"รูปภาพ.png":            "png",
		"":                      "",
		"weird$%name!(1).gif":   "weirdname1.gif",
	}
	for in, want := range cases {
		assert.Equal(t, want, SecureFilename(in), "input %q", in)
	}
}

func TestExt(t *testing.T) {
	assert.Equal(t, "jpeg", Ext("IMG.JPEG"))
	assert.Equal(t, "gz", Ext("archive.tar.gz"))
	assert.Equal(t, "", Ext("README"))
	assert.Equal(t, "", Ext("trailing."))
}

func TestLocalStoreSaveAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Check(context.Background()))

	addr, err := store.Save(context.Background(), "N1_001_photo.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "N1_001_photo.jpg"), addr)

	data, err := os.ReadFile(addr)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	// Same name twice is refused rather than overwritten
	_, err = store.Save(context.Background(), "N1_001_photo.jpg", strings.NewReader("other"))
	require.Error(t, err)

	require.NoError(t, store.Remove(context.Background(), addr))
	require.NoError(t, store.Remove(context.Background(), addr))
	_, err = os.Stat(addr)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreHonorsCancelledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Save(ctx, "late.txt", strings.NewReader("x"))
	require.ErrorIs(t, err, context.Canceled)
}

type fakeS3 struct {
	objects map[string]string
	headErr error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	if _, exists := f.objects[key]; exists && aws.ToString(in.IfNoneMatch) == "*" {
		return nil, errors.New("PreconditionFailed")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func TestS3Store(t *testing.T) {
	client := &fakeS3{objects: map[string]string{}}
	store := &S3Store{Client: client, Bucket: "quality", Prefix: "sqcb/"}
	ctx := context.Background()

	addr, err := store.Save(ctx, "SQ-1_001_report.pdf", strings.NewReader("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "s3://quality/sqcb/SQ-1_001_report.pdf", addr)
	assert.Equal(t, "pdf", client.objects["quality/sqcb/SQ-1_001_report.pdf"])

	_, err = store.Save(ctx, "SQ-1_001_report.pdf", strings.NewReader("again"))
	require.Error(t, err)

	require.NoError(t, store.Remove(ctx, addr))
	assert.Empty(t, client.objects)
	require.Error(t, store.Remove(ctx, "/tmp/not-s3"))

	require.NoError(t, store.Check(ctx))
	client.headErr = errors.New("forbidden")
	require.Error(t, store.Check(ctx))
}

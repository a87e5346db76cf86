package blob

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	u := NewUploader(nil, &S3Config{BucketName: "stems"})

	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	key := u.objectKey(ts, 0, "/data/photo.jpg")
	assert.Equal(t, fmt.Sprintf("images/image-%d-0.jpg", ts.UnixNano()), key)

	// extensionless assets default to .jpg
	key = u.objectKey(ts, 3, "/data/photo")
	assert.True(t, strings.HasSuffix(key, "-3.jpg"), key)

	// other extensions are preserved
	key = u.objectKey(ts, 1, "/data/photo.png")
	assert.True(t, strings.HasSuffix(key, "-1.png"), key)
}

func TestObjectKeyUniqueWithinBatch(t *testing.T) {
	u := NewUploader(nil, &S3Config{BucketName: "stems"})
	ts := time.Now()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		key := u.objectKey(ts, i, "photo.jpg")
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestPublicURL(t *testing.T) {
	u := NewUploader(nil, &S3Config{BucketName: "stems", Region: "eu-central-1"})
	assert.Equal(t,
		"https://stems.s3.eu-central-1.amazonaws.com/images/image-1-0.jpg",
		u.PublicURL("images/image-1-0.jpg"))

	// custom endpoint switches to path style
	u = NewUploader(nil, &S3Config{BucketName: "stems", Endpoint: "http://localhost:9000/"})
	assert.Equal(t,
		"http://localhost:9000/stems/images/image-1-0.jpg",
		u.PublicURL("images/image-1-0.jpg"))
}

func TestSelectPartSize(t *testing.T) {
	mb := int64(1024 * 1024)

	// small file, one part
	partSize, partCount := selectPartSize(3*mb, defaultPartSize)
	assert.Equal(t, defaultPartSize, partSize)
	assert.Equal(t, 1, partCount)

	// exact multiple
	partSize, partCount = selectPartSize(32*mb, 16*mb)
	assert.Equal(t, 16*mb, partSize)
	assert.Equal(t, 2, partCount)

	// remainder adds a part
	partSize, partCount = selectPartSize(33*mb, 16*mb)
	assert.Equal(t, 16*mb, partSize)
	assert.Equal(t, 3, partCount)

	// undersized requests are clamped to the S3 minimum
	partSize, _ = selectPartSize(100*mb, 1*mb)
	assert.Equal(t, minPartSize, partSize)

	// part size doubles until the count fits the S3 cap
	partSize, partCount = selectPartSize(int64(maxParts)*minPartSize*3, minPartSize)
	assert.LessOrEqual(t, partCount, maxParts)
	assert.Greater(t, partSize, minPartSize)
}

func TestDivideAndCeil(t *testing.T) {
	assert.Equal(t, int64(0), divideAndCeil(10, 0))
	assert.Equal(t, int64(1), divideAndCeil(1, 10))
	assert.Equal(t, int64(1), divideAndCeil(10, 10))
	assert.Equal(t, int64(2), divideAndCeil(11, 10))
}

func TestUploadManyMissingAsset(t *testing.T) {
	u := NewUploader(nil, &S3Config{BucketName: "stems", Region: "eu-central-1"})

	// the asset check runs before any object store call
	urls, err := u.UploadMany(context.Background(), []string{"/does/not/exist.jpg"})
	assert.ErrorIs(t, err, ErrAssetNotFound)
	assert.Equal(t, []string{""}, urls)

	urls, err = u.UploadMany(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, urls)
}

func TestUploadErrorUnwrap(t *testing.T) {
	err := &UploadError{Key: "images/image-1-0.jpg", Err: ErrAssetNotFound}
	assert.ErrorIs(t, err, ErrAssetNotFound)
	assert.Contains(t, err.Error(), "images/image-1-0.jpg")
}

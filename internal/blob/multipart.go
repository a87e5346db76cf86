package blob

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/openforest/stemsync/internal/utils"
)

const (
	multipartThreshold = int64(32 * 1024 * 1024) // switch to multipart for larger assets
	defaultPartSize    = int64(16 * 1024 * 1024)
	minPartSize        = int64(5 * 1024 * 1024) // S3/MinIO minimum
	maxParts           = 10000
)

// putObjectMultipart uploads a large asset via initiate -> upload parts ->
// complete. A failure at any stage aborts the multipart upload so no
// partial object is ever finalized.
func (u *Uploader) putObjectMultipart(ctx context.Context, key, assetRef string, size int64) error {
	file, err := os.Open(assetRef)
	if err != nil {
		return err
	}
	defer file.Close()

	created, err := u.s3Client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      &u.config.BucketName,
		Key:         &key,
		ContentType: aws.String(utils.DetectContentType(assetRef)),
	})
	if err != nil {
		return err
	}
	uploadID := aws.ToString(created.UploadId)

	partSize, partCount := selectPartSize(size, defaultPartSize)

	completedParts := make([]types.CompletedPart, 0, partCount)
	for part := 1; part <= partCount; part++ {
		offset := int64(part-1) * partSize
		chunkSize := min(partSize, size-offset)
		sectionReader := io.NewSectionReader(file, offset, chunkSize)

		resp, err := u.s3Client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        &u.config.BucketName,
			Key:           &key,
			UploadId:      created.UploadId,
			PartNumber:    aws.Int32(int32(part)),
			Body:          sectionReader,
			ContentLength: aws.Int64(chunkSize),
		})
		if err != nil {
			u.abortMultipart(ctx, key, uploadID)
			return err
		}

		completedParts = append(completedParts, types.CompletedPart{
			ETag:       resp.ETag,
			PartNumber: aws.Int32(int32(part)),
		})
	}

	_, err = u.s3Client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   &u.config.BucketName,
		Key:      &key,
		UploadId: created.UploadId,
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completedParts,
		},
	})
	if err != nil {
		u.abortMultipart(ctx, key, uploadID)
		return err
	}
	return nil
}

func (u *Uploader) abortMultipart(ctx context.Context, key, uploadID string) {
	// best effort; the bucket lifecycle policy reaps leftovers
	_, err := u.s3Client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   &u.config.BucketName,
		Key:      &key,
		UploadId: &uploadID,
	})
	if err != nil {
		slog.Warn("blob abort multipart", "key", key, "error", err)
	}
}

func selectPartSize(size, partSize int64) (int64, int) {
	if partSize < minPartSize {
		partSize = minPartSize
	}

	partCount := int(divideAndCeil(size, partSize))
	for partCount > maxParts {
		partSize *= 2
		partCount = int(divideAndCeil(size, partSize))
	}

	return partSize, partCount
}

func divideAndCeil(numerator, denominator int64) int64 {
	if denominator == 0 {
		return 0
	}
	quotient := numerator / denominator
	if numerator%denominator != 0 {
		quotient++
	}
	return quotient
}

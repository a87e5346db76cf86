// Package blob uploads captured image assets to the S3 object store and
// returns their durable public URLs.
package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"github.com/openforest/stemsync/internal/utils"
	"golang.org/x/sync/errgroup"
)

const (
	maxUploadConcurrency = 4
	defaultKeyPrefix     = "images/"
	defaultAssetExt      = ".jpg"
)

var ErrAssetNotFound = errors.New("blob: asset file not found")

// UploadError is an object-store failure for a single asset. It aborts the
// sync attempt that triggered it; the local queue is never mutated on one.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("blob: upload %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// S3Config holds the object store connection settings.
type S3Config struct {
	BucketName string `json:"bucket" mapstructure:"bucket"`
	Region     string `json:"region" mapstructure:"region"`
	AccessKey  string `json:"access_key" mapstructure:"access_key"`
	SecretKey  string `json:"secret_key" mapstructure:"secret_key"`
	// Endpoint overrides the AWS endpoint for MinIO-style deployments.
	Endpoint string `json:"endpoint,omitempty" mapstructure:"endpoint"`
}

// Uploader writes assets to S3. It keeps no state between calls.
type Uploader struct {
	s3Client *s3.Client
	config   *S3Config
}

func NewUploader(s3Client *s3.Client, cfg *S3Config) *Uploader {
	return &Uploader{
		s3Client: s3Client,
		config:   cfg,
	}
}

func NewUploaderWithConfig(cfg *S3Config) (*Uploader, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   maxUploadConcurrency * 2,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: 60 * time.Second,
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
		config.WithRegion(cfg.Region),
		config.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	awsClient := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewUploader(awsClient, cfg), nil
}

// UploadOne reads the asset at assetRef, writes it to the object store
// under a freshly generated key and returns the durable URL.
func (u *Uploader) UploadOne(ctx context.Context, assetRef string) (string, error) {
	return u.upload(ctx, u.objectKey(time.Now(), 0, assetRef), assetRef)
}

// UploadMany uploads the given assets concurrently. The returned slice is
// always len(assetRefs) and index-aligned with the input; on error it still
// carries the URLs of the items that individually succeeded before the
// batch failure was reported (empty string where an item failed or was not
// attempted). Objects already written for a failed batch are not rolled
// back, and a retried batch generates fresh keys.
func (u *Uploader) UploadMany(ctx context.Context, assetRefs []string) ([]string, error) {
	urls := make([]string, len(assetRefs))
	if len(assetRefs) == 0 {
		return urls, nil
	}

	// one timestamp per batch, disambiguated by the item index
	batchStart := time.Now()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxUploadConcurrency)

	for i, ref := range assetRefs {
		eg.Go(func() error {
			url, err := u.upload(egCtx, u.objectKey(batchStart, i, ref), ref)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return urls, err
	}
	return urls, nil
}

func (u *Uploader) upload(ctx context.Context, key, assetRef string) (string, error) {
	if !utils.FileExists(assetRef) {
		return "", &UploadError{Key: key, Err: ErrAssetNotFound}
	}

	info, err := os.Stat(assetRef)
	if err != nil {
		return "", &UploadError{Key: key, Err: err}
	}

	tStart := time.Now()
	if info.Size() > multipartThreshold {
		err = u.putObjectMultipart(ctx, key, assetRef, info.Size())
	} else {
		err = u.putObject(ctx, key, assetRef, info.Size())
	}
	if err != nil {
		return "", &UploadError{Key: key, Err: err}
	}

	slog.Debug("blob upload",
		"key", key,
		"size", humanize.Bytes(uint64(info.Size())),
		"took", time.Since(tStart),
	)
	return u.PublicURL(key), nil
}

func (u *Uploader) putObject(ctx context.Context, key, assetRef string, size int64) error {
	file, err := os.Open(assetRef)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = u.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &u.config.BucketName,
		Key:           &key,
		Body:          file,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(utils.DetectContentType(assetRef)),
	})
	return err
}

// objectKey generates a collision-free key from a high-resolution timestamp
// plus the batch index.
func (u *Uploader) objectKey(ts time.Time, index int, assetRef string) string {
	ext := filepath.Ext(assetRef)
	if ext == "" {
		ext = defaultAssetExt
	}
	return fmt.Sprintf("%simage-%d-%d%s", defaultKeyPrefix, ts.UnixNano(), index, ext)
}

// PublicURL returns the durable URL for an uploaded key.
func (u *Uploader) PublicURL(key string) string {
	if u.config.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(u.config.Endpoint, "/"), u.config.BucketName, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.config.BucketName, u.config.Region, key)
}

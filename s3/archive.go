// Package s3 stores original documents in an S3-compatible bucket.
package s3

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fwojciec/harvest"
)

// UploadTimeout bounds a single upload.
const UploadTimeout = 10 * time.Minute

// Uploader is the subset of the S3 upload manager used by Archive.
type Uploader interface {
	Upload(ctx context.Context, input *awss3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Config describes the target bucket.
type Config struct {
	Bucket string
	Region string

	// Prefix is prepended to every key.
	Prefix string

	// Endpoint overrides the service endpoint, for S3-compatible stores.
	Endpoint string

	// AccessKey and SecretKey are optional static credentials. Without
	// them the default credential chain is used.
	AccessKey string
	SecretKey string
}

var _ harvest.Archive = (*Archive)(nil)

// Archive uploads files to a bucket.
type Archive struct {
	uploader Uploader
	bucket   string
	prefix   string
}

// NewArchive builds an Archive from the default AWS configuration.
func NewArchive(ctx context.Context, cfg Config) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, harvest.Errorf(harvest.ECONFIG, "S3 bucket name not set")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, harvest.WrapError(harvest.ECONFIG, err, "load aws config")
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewArchiveWithUploader(manager.NewUploader(client), cfg.Bucket, cfg.Prefix), nil
}

// NewArchiveWithUploader returns an Archive using the given uploader.
func NewArchiveWithUploader(u Uploader, bucket, prefix string) *Archive {
	return &Archive{uploader: u, bucket: bucket, prefix: prefix}
}

// ArchiveFile uploads the file at src to key. With move set the local file
// is removed after a successful upload.
func (a *Archive) ArchiveFile(ctx context.Context, src, key string, move bool) error {
	if key == "" {
		return harvest.Errorf(harvest.EINVALID, "invalid archive key: %q", key)
	}

	f, err := os.Open(src)
	if err != nil {
		return harvest.WrapError(harvest.ESTORAGE, err, "open source: %v", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	_, err = a.uploader.Upload(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.objectKey(key)),
		Body:   f,
	})
	if err != nil {
		return harvest.WrapError(harvest.EEXTERNAL, err, "s3 upload failed: %v", err)
	}

	if move {
		f.Close()
		if err := os.Remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return harvest.WrapError(harvest.ESTORAGE, err, "remove source: %v", err)
		}
	}
	return nil
}

func (a *Archive) objectKey(key string) string {
	if a.prefix == "" {
		return key
	}
	return path.Join(a.prefix, key)
}

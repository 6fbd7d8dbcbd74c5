package s3repo

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"png_compression/config"
	"png_compression/entity"
)

const traceName = "S3-Repo"

type S3Repository struct {
	sess *s3.Client
}

var _ entity.StorageRepository = (*S3Repository)(nil)

// NewS3Repository builds a client from cfg. With an Endpoint set (MinIO and
// friends) path-style addressing is used; static keys override the default
// credential chain.
func NewS3Repository(ctx context.Context, cfg config.S3) (*S3Repository, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...any) (aws.Endpoint, error) {
			return aws.Endpoint{
				PartitionID:       "aws",
				SigningRegion:     cfg.Region,
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
			}, nil
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(sdkConfig, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	})
	return &S3Repository{s3Client}, nil
}

// DownloadObject writes the object to w and returns its stored content type.
// A missing object is reported as a 404 DownloadError.
func (s3Repo *S3Repository) DownloadObject(ctx context.Context, bucket string, key string, w io.Writer) (string, error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "DownloadObject")
	defer span.End()

	span.SetAttributes(attribute.String("s3.bucket", bucket), attribute.String("s3.key", key))

	head, err := s3Repo.sess.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", downloadError(bucket, key, err)
	}

	downloader := manager.NewDownloader(s3Repo.sess)

	var buffer []byte
	bw := manager.NewWriteAtBuffer(buffer)

	if _, err := downloader.Download(ctx, bw, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return "", downloadError(bucket, key, err)
	}

	if _, err := w.Write(bw.Bytes()); err != nil {
		return "", err
	}

	return aws.ToString(head.ContentType), nil
}

func downloadError(bucket, key string, err error) error {
	dErr := &entity.DownloadError{URL: "s3://" + bucket + "/" + key}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() >= http.StatusBadRequest {
		dErr.Status = respErr.HTTPStatusCode()
		return dErr
	}

	dErr.Err = err
	return dErr
}

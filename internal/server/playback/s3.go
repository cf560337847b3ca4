package playback

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/streamkeeper/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Options describes the S3-compatible recording archive (MinIO in dev).
type S3Options struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
	Prefix       string
	URLValidity  time.Duration
}

// S3Recordings presigns GET URLs for recordings stored as
// <prefix><user id>/<stream id>.flv.
type S3Recordings struct {
	client   *s3.PresignClient
	bucket   string
	prefix   string
	validity time.Duration
}

func NewS3Recordings(ctx context.Context, opts S3Options) (*S3Recordings, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.User,
			opts.Password,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	validity := opts.URLValidity
	if validity <= 0 {
		validity = 15 * time.Minute
	}

	return &S3Recordings{
		client:   newS3PresignClient(client),
		bucket:   opts.Bucket,
		prefix:   opts.Prefix,
		validity: validity,
	}, nil
}

func (r *S3Recordings) ObjectKey(st *models.Stream) string {
	return r.prefix + st.UserID + "/" + st.ID + ".flv"
}

func (r *S3Recordings) RecordingURL(ctx context.Context, st *models.Stream) (string, error) {
	key := r.ObjectKey(st)

	req, err := presignGetObject(r.client, ctx, &s3.GetObjectInput{
		Bucket: &r.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(r.validity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

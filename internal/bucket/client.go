package bucket

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultLocalRegion = "us-east-1"

// HeadBucketAPI is the slice of the S3 client the prober needs.
type HeadBucketAPI interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// LocalOptions configures the local S3-compatible endpoint.
type LocalOptions struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// ClientFactory builds S3 clients for either mode.
type ClientFactory interface {
	Remote(ctx context.Context) (HeadBucketAPI, error)
	Local(ctx context.Context, opts LocalOptions) (HeadBucketAPI, error)
}

// AWSClientFactory builds clients with the AWS SDK.
type AWSClientFactory struct{}

// Remote uses the default credential chain and region.
func (AWSClientFactory) Remote(ctx context.Context) (HeadBucketAPI, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Local targets opts.Endpoint with path-style addressing and static
// credentials.
func (AWSClientFactory) Local(ctx context.Context, opts LocalOptions) (HeadBucketAPI, error) {
	if opts.Endpoint == "" {
		return nil, ErrNoLocalEndpoint
	}
	region := opts.Region
	if region == "" {
		region = defaultLocalRegion
	}

	creds := credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")
	cfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("load local bucket config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
	}), nil
}

package source

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/genefit/genefit-link/internal/config"
)

// Resolver turns handles into Files. Object storage clients are created lazily
// and reused for every handle of the same kind.
type Resolver struct {
	cfg        config.SourceConfig
	httpClient *nethttp.Client

	mu       sync.Mutex
	s3Client *s3.Client
}

// NewResolver creates a resolver. httpClient carries the proxy settings and is
// shared with the S3 and Azure SDKs.
func NewResolver(cfg config.SourceConfig, httpClient *nethttp.Client) *Resolver {
	if httpClient == nil {
		httpClient = nethttp.DefaultClient
	}
	return &Resolver{cfg: cfg, httpClient: httpClient}
}

// Resolve parses raw and returns a File ready for upload.
func (r *Resolver) Resolve(ctx context.Context, raw string) (File, error) {
	h, err := ParseHandle(raw)
	if err != nil {
		return nil, err
	}

	switch h.Kind {
	case KindLocal:
		return OpenLocal(h.Key)
	case KindS3:
		return r.resolveS3(ctx, h)
	case KindAzure:
		return r.resolveAzure(ctx, h)
	default:
		return nil, fmt.Errorf("unsupported handle kind %s", h.Kind)
	}
}

func (r *Resolver) s3(ctx context.Context) (*s3.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.s3Client != nil {
		return r.s3Client, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithHTTPClient(r.httpClient),
	}
	if r.cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(r.cfg.AWSRegion))
	}
	if r.cfg.AWSAccessKeyID != "" && r.cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(r.cfg.AWSAccessKeyID, r.cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	r.s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if r.cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(r.cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return r.s3Client, nil
}

func (r *Resolver) resolveS3(ctx context.Context, h Handle) (File, error) {
	client, err := r.s3(ctx)
	if err != nil {
		return nil, err
	}

	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(h.Bucket),
		Key:    aws.String(h.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", h.Raw, err)
	}

	return &s3File{client: client, handle: h, size: aws.ToInt64(head.ContentLength)}, nil
}

type s3File struct {
	client *s3.Client
	handle Handle
	size   int64
}

func (f *s3File) Name() string { return f.handle.BaseName() }
func (f *s3File) Size() int64  { return f.size }

func (f *s3File) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.handle.Bucket),
		Key:    aws.String(f.handle.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

func (r *Resolver) resolveAzure(ctx context.Context, h Handle) (File, error) {
	// SAS (if any) travels in the service URL query
	client, err := azblob.NewClientWithNoCredential(h.ServiceURL, &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Transport: r.httpClient,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	props, err := client.ServiceClient().NewContainerClient(h.Bucket).NewBlobClient(h.Key).GetProperties(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", h.Raw, err)
	}

	size := int64(-1)
	if props.ContentLength != nil {
		size = *props.ContentLength
	}
	return &azureFile{client: client, handle: h, size: size}, nil
}

type azureFile struct {
	client *azblob.Client
	handle Handle
	size   int64
}

func (f *azureFile) Name() string { return f.handle.BaseName() }
func (f *azureFile) Size() int64  { return f.size }

func (f *azureFile) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := f.client.DownloadStream(ctx, f.handle.Bucket, f.handle.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return resp.Body, nil
}

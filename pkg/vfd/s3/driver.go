// Package s3 provides a read-only storage driver over a single S3
// object. Probing and reading containers published to object storage
// works without downloading them: each read is a ranged GetObject.
// Writes are not supported.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/strata/internal/logger"
	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/transfer"
)

// DriverName is the name the driver registers under.
const DriverName = "s3"

// Config holds configuration for the S3 driver.
type Config struct {
	// Bucket and Key identify the object holding the container.
	Bucket string `mapstructure:"bucket"`
	Key    string `mapstructure:"key"`

	// Region is the bucket's region. Default: us-east-1.
	Region string `mapstructure:"region"`

	// Endpoint overrides the S3 endpoint (MinIO, Localstack).
	Endpoint string `mapstructure:"endpoint"`

	// AccessKeyID and SecretAccessKey select static credentials. When
	// empty the default AWS credential chain applies.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// UsePathStyle forces path-style addressing, required by most
	// S3-compatible servers.
	UsePathStyle bool `mapstructure:"use_path_style"`
}

// Driver is a read-only vfd.Driver over one S3 object. The object size
// is captured at open; bytes past it read as zero. EOA bookkeeping is
// local to the driver instance.
type Driver struct {
	mu     sync.Mutex
	client *s3.Client
	bucket string
	key    string
	size   vfd.Addr
	eoa    vfd.Addr
}

// New opens the S3 driver, resolving the object size with a HeadObject
// call. A missing object is treated as an empty store rather than an
// error, so signature probing against a not-yet-published container
// reports "not found" instead of failing.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, errors.New("s3 driver: bucket and key are required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3 driver: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	d := &Driver{client: client, bucket: cfg.Bucket, key: cfg.Key}

	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(cfg.Key),
	})
	switch {
	case isNotFoundError(err):
		logger.Debug("s3 driver: object absent, treating as empty",
			logger.KeyBucket, cfg.Bucket, logger.KeyKey, cfg.Key)
	case err != nil:
		return nil, fmt.Errorf("s3 driver: head %s/%s: %w", cfg.Bucket, cfg.Key, err)
	default:
		d.size = vfd.Addr(aws.ToInt64(head.ContentLength))
	}
	return d, nil
}

// Register makes the driver available under DriverName.
func Register() error {
	return vfd.RegisterDriver(DriverName, func(raw map[string]any) (vfd.Driver, error) {
		var cfg Config
		if err := mapstructure.Decode(raw, &cfg); err != nil {
			return nil, fmt.Errorf("s3 driver config: %w", err)
		}
		return New(context.Background(), cfg)
	})
}

func (d *Driver) Name() string { return DriverName }

func (d *Driver) ReadAt(ctx context.Context, class vfd.AllocClass, addr vfd.Addr, p []byte, opts *transfer.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}

	// Bytes past the object's end have no backing and read as zero; the
	// range request only covers what the object can serve.
	if addr >= d.size {
		for i := range p {
			p[i] = 0
		}
		return nil
	}
	backed := d.size - addr
	if backed > vfd.Addr(len(p)) {
		backed = vfd.Addr(len(p))
	}

	// S3 ranges are inclusive on both ends.
	rangeStr := fmt.Sprintf("bytes=%d-%d", addr, addr+backed-1)
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key),
		Range:  aws.String(rangeStr),
	})
	if err != nil {
		return fmt.Errorf("s3 driver: get %s/%s range %s: %w", d.bucket, d.key, rangeStr, err)
	}
	defer func() { _ = out.Body.Close() }()

	if _, err := io.ReadFull(out.Body, p[:backed]); err != nil {
		return fmt.Errorf("s3 driver: read body %s/%s: %w", d.bucket, d.key, err)
	}
	for i := backed; i < vfd.Addr(len(p)); i++ {
		p[i] = 0
	}
	return nil
}

func (d *Driver) WriteAt(ctx context.Context, class vfd.AllocClass, addr vfd.Addr, p []byte, opts *transfer.Options) error {
	return vfd.ErrNotSupported
}

func (d *Driver) EOA(class vfd.AllocClass) (vfd.Addr, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eoa, true
}

func (d *Driver) SetEOA(class vfd.AllocClass, addr vfd.Addr) error {
	d.mu.Lock()
	d.eoa = addr
	d.mu.Unlock()
	return nil
}

// EOF reports the object size captured at open.
func (d *Driver) EOF() (vfd.Addr, bool) {
	return d.size, true
}

// isNotFoundError reports whether err indicates a missing object.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if code == "NoSuchKey" || code == "NotFound" || code == "404" {
			return true
		}
	}
	return strings.Contains(err.Error(), "StatusCode: 404")
}

//go:build integration

package s3

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/sig"
	"github.com/marmos91/strata/pkg/vfd/transfer"
)

// localstackHelper manages the Localstack container for integration tests.
type localstackHelper struct {
	container testcontainers.Container
	endpoint  string
	client    *awss3.Client
}

// newLocalstackHelper starts a Localstack container or connects to an
// existing one via LOCALSTACK_ENDPOINT.
func newLocalstackHelper(t *testing.T) *localstackHelper {
	t.Helper()
	ctx := context.Background()

	if endpoint := os.Getenv("LOCALSTACK_ENDPOINT"); endpoint != "" {
		helper := &localstackHelper{endpoint: endpoint}
		helper.createClient(t)
		return helper
	}

	req := testcontainers.ContainerRequest{
		Image:        "localstack/localstack:3.0",
		ExposedPorts: []string{"4566/tcp"},
		Env: map[string]string{
			"SERVICES":              "s3",
			"DEFAULT_REGION":        "us-east-1",
			"EAGER_SERVICE_LOADING": "1",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("4566/tcp"),
			wait.ForHTTP("/_localstack/health").
				WithPort("4566/tcp").
				WithStartupTimeout(60*time.Second),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start localstack container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "4566")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	helper := &localstackHelper{
		container: container,
		endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
	helper.createClient(t)
	return helper
}

func (lh *localstackHelper) createClient(t *testing.T) {
	t.Helper()

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			"test", "test", "",
		)),
	)
	if err != nil {
		t.Fatalf("failed to load AWS config: %v", err)
	}

	lh.client = awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		o.BaseEndpoint = &lh.endpoint
		o.UsePathStyle = true
	})
}

func (lh *localstackHelper) createBucket(t *testing.T, bucket string) {
	t.Helper()
	_, err := lh.client.CreateBucket(context.Background(), &awss3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		t.Fatalf("failed to create bucket %s: %v", bucket, err)
	}
}

func (lh *localstackHelper) putObject(t *testing.T, bucket, key string, body []byte) {
	t.Helper()
	_, err := lh.client.PutObject(context.Background(), &awss3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		t.Fatalf("failed to put object %s/%s: %v", bucket, key, err)
	}
}

func (lh *localstackHelper) driverConfig(bucket, key string) Config {
	return Config{
		Bucket:          bucket,
		Key:             key,
		Region:          "us-east-1",
		Endpoint:        lh.endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		UsePathStyle:    true,
	}
}

func TestDriver_RangedReads(t *testing.T) {
	lh := newLocalstackHelper(t)
	lh.createBucket(t, "strata-it-reads")

	contents := bytes.Repeat([]byte("0123456789abcdef"), 256) // 4 KiB
	lh.putObject(t, "strata-it-reads", "container.st", contents)

	ctx := context.Background()
	d, err := New(ctx, lh.driverConfig("strata-it-reads", "container.st"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if eof, ok := d.EOF(); !ok || eof != vfd.Addr(len(contents)) {
		t.Errorf("EOF = (%d, %t), want (%d, true)", eof, ok, len(contents))
	}

	got := make([]byte, 32)
	if err := d.ReadAt(ctx, vfd.ClassRawData, 100, got, transfer.Default()); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, contents[100:132]) {
		t.Errorf("read %q, want %q", got, contents[100:132])
	}

	// A read straddling the object's end zero-fills the tail.
	got = make([]byte, 32)
	if err := d.ReadAt(ctx, vfd.ClassRawData, vfd.Addr(len(contents))-8, got, transfer.Default()); err != nil {
		t.Fatalf("ReadAt at tail: %v", err)
	}
	if !bytes.Equal(got[:8], contents[len(contents)-8:]) {
		t.Error("backed tail bytes do not match the object")
	}
	for i := 8; i < len(got); i++ {
		if got[i] != 0 {
			t.Fatalf("byte %d past object end = %#x, want zero", i, got[i])
		}
	}
}

func TestDriver_MissingObjectIsEmpty(t *testing.T) {
	lh := newLocalstackHelper(t)
	lh.createBucket(t, "strata-it-missing")

	d, err := New(context.Background(), lh.driverConfig("strata-it-missing", "absent.st"))
	if err != nil {
		t.Fatalf("New on a missing object: %v", err)
	}
	if eof, ok := d.EOF(); !ok || eof != 0 {
		t.Errorf("EOF = (%d, %t), want (0, true)", eof, ok)
	}
}

func TestDriver_SignatureSearch(t *testing.T) {
	lh := newLocalstackHelper(t)
	lh.createBucket(t, "strata-it-probe")

	contents := bytes.Repeat([]byte{0x55}, 2048)
	copy(contents[1024:], sig.Magic[:])
	lh.putObject(t, "strata-it-probe", "container.st", contents)

	d, err := New(context.Background(), lh.driverConfig("strata-it-probe", "container.st"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f, err := vfd.NewFile(d, vfd.FileConfig{})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	addr, found, err := sig.Locate(context.Background(), f, transfer.Default())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !found || addr != 1024 {
		t.Errorf("Locate = (%d, %t), want (1024, true)", addr, found)
	}
}

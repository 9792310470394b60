package util

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/m4tt-willi4ms/cctbx-project/config"
)

// S3 holds the settings used to open s3:// paths. Commands set it before
// reading any input.
var S3 = config.S3Config{Region: "us-east-1"}

// multiCloser closes a decompressor and the stream under it.
type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// gzipFile flushes the compressor before closing the file.
type gzipFile struct {
	*gzip.Writer
	f *os.File
}

func (g gzipFile) Close() error {
	return errors.Join(g.Writer.Close(), g.f.Close())
}

// OpenFile opens a local file, standard input ("-") or an object in S3
// given as s3://bucket/key. Paths ending in ".gz" are decompressed.
func OpenFile(ctx context.Context, path string) (io.ReadCloser, error) {
	var r io.ReadCloser
	if bucket, key, ok := parseS3(path); ok {
		body, err := openS3(ctx, bucket, key)
		if err != nil {
			return nil, err
		}
		r = body
	} else if path == "-" {
		r = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		r = f
	}
	if !strings.HasSuffix(path, ".gz") {
		return r, nil
	}
	gz, err := gzip.NewReader(r)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("'%s' is not gzipped: %w", path, err)
	}
	return multiCloser{gz, []io.Closer{gz, r}}, nil
}

// CreateFile creates a local file, or returns standard output for "-".
// Paths ending in ".gz" are compressed.
func CreateFile(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	return gzipFile{gzip.NewWriter(f), f}, nil
}

// parseS3 splits s3://bucket/key.
func parseS3(path string) (bucket, key string, ok bool) {
	rest, ok := strings.CutPrefix(path, "s3://")
	if !ok {
		return "", "", false
	}
	bucket, key, ok = strings.Cut(rest, "/")
	return bucket, key, ok && bucket != "" && key != ""
}

func openS3(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if S3.Region != "" {
		opts = append(opts, awsconfig.WithRegion(S3.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if S3.PathStyle {
			o.UsePathStyle = true
		}
		if S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(S3.Endpoint)
		}
	})
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

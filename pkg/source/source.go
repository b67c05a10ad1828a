// Package source opens leader files from the local filesystem or from S3.
package source

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

const s3Scheme = "s3://"

var (
	ErrNotFound      = errors.New("source not found")
	ErrS3NotEnabled  = errors.New("s3 locations need an s3 client")
	ErrInvalidS3Path = errors.New("invalid s3 location")
)

// S3Config holds the settings used to build an S3 client.
type S3Config struct {
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint,omitempty"`
	ForcePathStyle bool   `yaml:"force_path_style,omitempty"`
}

// NewS3Client returns an S3 client for cfg. Credentials come from the
// usual AWS environment and shared config.
func NewS3Client(cfg S3Config) (s3iface.S3API, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.ForcePathStyle {
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create aws session")
	}
	return s3.New(sess), nil
}

// Object is an opened leader file.
type Object struct {
	io.ReadCloser
	Location string
	Size     int64 // -1 when unknown
}

// Opener resolves locations: "s3://bucket/key" through S3, anything else
// as a local path.
type Opener struct {
	s3Api s3iface.S3API
}

// NewOpener returns an opener. s3Api may be nil when only local paths are
// used.
func NewOpener(s3Api s3iface.S3API) *Opener {
	return &Opener{s3Api: s3Api}
}

// IsS3 reports whether location names an S3 object.
func IsS3(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// ParseS3Location splits "s3://bucket/key" into bucket and key.
func ParseS3Location(location string) (string, string, error) {
	if !IsS3(location) {
		return "", "", errors.Wrapf(ErrInvalidS3Path, "%q has no s3:// prefix", location)
	}
	rest := strings.TrimPrefix(location, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", errors.Wrapf(ErrInvalidS3Path, "%q needs a bucket and a key", location)
	}
	return bucket, key, nil
}

// Open opens location for reading.
func (o *Opener) Open(ctx context.Context, location string) (*Object, error) {
	if IsS3(location) {
		return o.openS3(ctx, location)
	}

	f, err := os.Open(location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "%s", location)
		}
		return nil, errors.Wrapf(err, "failed to open %s", location)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to stat %s", location)
	}
	return &Object{ReadCloser: f, Location: location, Size: info.Size()}, nil
}

func (o *Opener) openS3(ctx context.Context, location string) (*Object, error) {
	if o.s3Api == nil {
		return nil, ErrS3NotEnabled
	}
	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}

	out, err := o.s3Api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == s3.ErrCodeNoSuchBucket) {
			return nil, errors.Wrapf(ErrNotFound, "%s", location)
		}
		return nil, errors.Wrapf(err, "failed to get %s", location)
	}

	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return &Object{ReadCloser: out.Body, Location: location, Size: size}, nil
}

// Put stores data at location, creating parent directories for local
// paths.
func (o *Opener) Put(ctx context.Context, location string, data []byte) error {
	if !IsS3(location) {
		if err := os.MkdirAll(filepath.Dir(location), 0750); err != nil {
			return errors.Wrapf(err, "failed to create directory for %s", location)
		}
		return errors.Wrapf(os.WriteFile(location, data, 0600), "failed to write %s", location)
	}

	if o.s3Api == nil {
		return ErrS3NotEnabled
	}
	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return err
	}
	_, err = o.s3Api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	return errors.Wrapf(err, "failed to put %s", location)
}

package remotestore

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/xelns/xelns-web/internal/xerrors"
)

// maxDocumentBytes bounds how much of the stored object is read.
const maxDocumentBytes = 64 << 20

// S3API is the subset of the S3 client the backend calls.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Backend stores the document as a single object.
type S3Backend struct {
	Client S3API
	Bucket string
	Key    string
}

func (b S3Backend) Read(ctx context.Context) ([]byte, error) {
	out, err := b.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.Bucket),
		Key:    aws.String(b.Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil
		}
		return nil, xerrors.Wrapf(err, "get S3 object s3://%s/%s", b.Bucket, b.Key)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(out.Body, maxDocumentBytes))
	if err != nil {
		return nil, xerrors.Wrapf(err, "read S3 object s3://%s/%s", b.Bucket, b.Key)
	}
	return raw, nil
}

func (b S3Backend) Write(ctx context.Context, doc []byte) error {
	_, err := b.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(b.Bucket),
		Key:          aws.String(b.Key),
		Body:         bytes.NewReader(doc),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("no-store, max-age=0"),
	})
	if err != nil {
		return xerrors.Wrapf(err, "put S3 object s3://%s/%s", b.Bucket, b.Key)
	}
	return nil
}

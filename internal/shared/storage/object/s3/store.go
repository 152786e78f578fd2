package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"mockmate/internal/shared/storage/object"
)

// api is the part of the S3 client the store calls.
type api interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store serves catalog files from one bucket under a fixed root prefix.
type Store struct {
	client api
	bucket string
	root   string
}

// New loads the default AWS credential chain and returns a Store for bucket.
func New(ctx context.Context, region, bucket, root string) (*Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newStore(s3.NewFromConfig(cfg), bucket, root), nil
}

func newStore(client api, bucket, root string) *Store {
	return &Store{client: client, bucket: bucket, root: strings.Trim(strings.TrimSpace(root), "/")}
}

// List pages through every object under prefix. Keys are returned relative to the root.
func (s *Store) List(ctx context.Context, prefix string) ([]object.Info, error) {
	full := join(s.root, prefix)
	if full != "" && !strings.HasSuffix(full, "/") {
		full += "/"
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(full),
	})

	var infos []object.Info
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list s3://%s/%s: %w", s.bucket, full, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			infos = append(infos, object.Info{
				Key:     s.relative(key),
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Open streams one object.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full := join(s.root, key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(full),
	})
	var missing *types.NoSuchKey
	if errors.As(err, &missing) {
		return nil, fmt.Errorf("s3 get s3://%s/%s: %w", s.bucket, full, object.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("s3 get s3://%s/%s: %w", s.bucket, full, err)
	}
	return out.Body, nil
}

func (s *Store) relative(key string) string {
	if s.root == "" {
		return key
	}
	return strings.TrimPrefix(key, s.root+"/")
}

func join(root, key string) string {
	key = strings.Trim(strings.TrimSpace(key), "/")
	switch {
	case root == "":
		return key
	case key == "":
		return root
	default:
		return root + "/" + key
	}
}

var _ object.Store = (*Store)(nil)

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// S3 is an S3-backed Store, adapted from the teacher's S3Store: same AWS
// SDK v2 client construction and conditional-put idempotence argument
// (cached objects are content-addressed, so a conflicting write is
// another writer racing us with byte-identical content). Remove(prefix)
// is new — the teacher's OCI cache never invalidated a subtree.
type S3 struct {
	client        *s3.Client
	bucket        string
	prefix        string
	lifecycleDays int
}

// NewS3 creates a new S3-backed store. Credentials, region, and endpoint
// are resolved via the standard AWS SDK default credential chain
// (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_REGION,
// AWS_ENDPOINT_URL, instance profiles, etc.), exactly as the teacher's
// NewS3Store documents. lifecycleDays, when positive, expires cached
// objects under prefix after that many days; zero disables it.
func NewS3(ctx context.Context, bucket, prefix string, forcePathStyle bool, lifecycleDays int) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = forcePathStyle
	})

	if prefix != "" {
		prefix = strings.TrimSuffix(prefix, "/") + "/"
	}

	return &S3{client: client, bucket: bucket, prefix: prefix, lifecycleDays: lifecycleDays}, nil
}

// Init creates the bucket if it doesn't already exist and applies the
// configured expiry lifecycle policy, if any.
func (s *S3) Init(ctx context.Context) error {
	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var baoby *types.BucketAlreadyOwnedByYou
		var bae *types.BucketAlreadyExists
		if errors.As(err, &baoby) || errors.As(err, &bae) {
			slog.Debug("bucket already exists", "bucket", s.bucket)
		} else {
			return fmt.Errorf("creating bucket: %w", err)
		}
	} else {
		slog.Debug("bucket created", "bucket", s.bucket)
	}

	if s.lifecycleDays > 0 {
		_, err := s.client.PutBucketLifecycleConfiguration(ctx, &s3.PutBucketLifecycleConfigurationInput{
			Bucket: aws.String(s.bucket),
			LifecycleConfiguration: &types.BucketLifecycleConfiguration{
				Rules: []types.LifecycleRule{
					{
						ID:         aws.String("nexus-cache-expiry"),
						Status:     types.ExpirationStatusEnabled,
						Filter:     &types.LifecycleRuleFilter{Prefix: aws.String(s.prefix)},
						Expiration: &types.LifecycleExpiration{Days: aws.Int32(int32(s.lifecycleDays))},
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("setting bucket lifecycle policy: %w", err)
		}
		slog.Info("bucket lifecycle policy applied", "bucket", s.bucket, "expiry_days", s.lifecycleDays)
	}

	return nil
}

func (s *S3) fullKey(key string) string {
	return s.prefix + key
}

func (s *S3) metaKey(key string) string {
	return s.fullKey(key) + ".meta.json"
}

func (s *S3) GetRaw(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, wrapUnavailable("GetRaw", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, wrapUnavailable("GetRaw", key, err)
	}
	return data, nil
}

func (s *S3) PutRaw(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.fullKey(key)),
		Body:        bytes.NewReader(data),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		if isConditionalPutConflict(err) {
			// Another writer already cached this key with byte-identical
			// content (raw files are content-addressed per package
			// version), so the conflict is harmless.
			slog.Debug("object already cached, skipping duplicate upload", "key", key)
			return nil
		}
		return wrapUnavailable("PutRaw", key, err)
	}
	return nil
}

func (s *S3) Remove(ctx context.Context, prefix string) error {
	fullPrefix := s.fullKey(prefix)
	var continuation *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(fullPrefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return wrapUnavailable("Remove", prefix, err)
		}
		ids := make([]types.ObjectIdentifier, 0, len(out.Contents))
		for _, obj := range out.Contents {
			// The listing is a plain string-prefix match that also returns
			// siblings such as "<prefix>-beta/..."; only the key itself, its
			// meta sidecar and keys under "<prefix>/" are deleted.
			k := aws.ToString(obj.Key)
			if k != fullPrefix && k != fullPrefix+".meta.json" && !strings.HasPrefix(k, fullPrefix+"/") {
				continue
			}
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}
		if len(ids) > 0 {
			if _, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &types.Delete{Objects: ids},
			}); err != nil {
				return wrapUnavailable("Remove", prefix, err)
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		continuation = out.NextContinuationToken
	}
	return nil
}

func (s *S3) GetMeta(ctx context.Context, key string) (map[string]any, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.metaKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, wrapUnavailable("GetMeta", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, wrapUnavailable("GetMeta", key, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, wrapUnavailable("GetMeta", key, fmt.Errorf("parsing meta: %w", err))
	}
	return fields, nil
}

func (s *S3) SetMeta(ctx context.Context, key string, fields map[string]any) error {
	existing, err := s.GetMeta(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing == nil {
		existing = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		existing[k] = v
	}
	data, err := json.Marshal(existing)
	if err != nil {
		return wrapUnavailable("SetMeta", key, fmt.Errorf("marshalling meta: %w", err))
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.metaKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return wrapUnavailable("SetMeta", key, err)
	}
	return nil
}

// isConditionalPutConflict returns true when the S3 PutObject error
// indicates the object already exists (412/409), same check as the
// teacher's s3.go.
func isConditionalPutConflict(err error) bool {
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode() == http.StatusPreconditionFailed ||
			re.HTTPStatusCode() == http.StatusConflict
	}
	return false
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}

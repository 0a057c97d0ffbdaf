package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/shopspring/decimal"
	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/store/model"
	"go.uber.org/zap"
)

const (
	defaultBucket = "assessments"
	keyPrefix     = "assessments"
	contentType   = "application/json"
)

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		useSSL: true,
		bucket: defaultBucket,
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// objectPutter is the part of the minio client the archiver uses.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioArchiver writes the result document of ready assessments to an
// S3 compatible bucket.
type MinioArchiver struct {
	cfg    *minioConfig
	client objectPutter
}

func NewMinioArchiver(opts ...MinioOpts) (*MinioArchiver, error) {
	cfg := newConfig(opts...)

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &MinioArchiver{cfg: cfg, client: minioClient}, nil
}

func newMinioArchiverWithClient(client objectPutter, opts ...MinioOpts) *MinioArchiver {
	return &MinioArchiver{cfg: newConfig(opts...), client: client}
}

type document struct {
	ID             string              `json:"id"`
	Owner          string              `json:"owner"`
	Symbol         string              `json:"symbol"`
	Amount         decimal.Decimal     `json:"amount"`
	RiskTolerance  string              `json:"risk_tolerance"`
	TimeHorizon    string              `json:"time_horizon"`
	Status         string              `json:"status"`
	AssessmentData *api.AssessmentData `json:"assessment_data,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      *time.Time          `json:"updated_at,omitempty"`
}

// ObjectKey is the location of an assessment inside the bucket.
func ObjectKey(a model.Assessment) string {
	return fmt.Sprintf("%s/%s/%s.json", keyPrefix, a.Owner, a.ID)
}

func (m *MinioArchiver) Archive(ctx context.Context, a model.Assessment) error {
	if a.Result == nil {
		return fmt.Errorf("assessment %s has no result to archive", a.ID)
	}

	body, err := json.Marshal(document{
		ID:             a.ID.String(),
		Owner:          a.Owner,
		Symbol:         a.Symbol,
		Amount:         a.Amount,
		RiskTolerance:  a.RiskTolerance,
		TimeHorizon:    a.TimeHorizon,
		Status:         a.Status,
		AssessmentData: &a.Result.Data,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	})
	if err != nil {
		return err
	}

	key := ObjectKey(a)
	info, err := m.client.PutObject(ctx, m.cfg.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to archive assessment %s: %w", a.ID, err)
	}

	zap.S().Named("archive").Debugw("assessment archived", "bucket", info.Bucket, "key", key, "size", info.Size)
	return nil
}

func (m *MinioArchiver) Type() string {
	return "minio"
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		if bucket != "" {
			c.bucket = bucket
		}
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}

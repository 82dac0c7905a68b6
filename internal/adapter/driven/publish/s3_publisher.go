package publish

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/repository"
)

// putObjectAPI é o subconjunto do cliente S3 usado aqui.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3PublisherImpl envia relatórios exportados para um bucket S3.
type S3PublisherImpl struct {
	client putObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3Publisher carrega a configuração AWS do perfil informado (ou a cadeia
// padrão, se vazio) e cria o publisher.
func NewS3Publisher(ctx context.Context, bucket, prefix, profile string, logger *zap.Logger) (repository.ReportPublisher, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	var opts []func(*config.LoadOptions) error
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for profile %s: %w", profile, err)
	}

	return newS3Publisher(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

func newS3Publisher(client putObjectAPI, bucket, prefix string, logger *zap.Logger) *S3PublisherImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3PublisherImpl{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// Publish faz upload do arquivo e retorna a URI s3:// do objeto criado.
func (p *S3PublisherImpl) Publish(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("error opening report %s: %w", localPath, err)
	}
	defer file.Close()

	key := filepath.Base(localPath)
	if p.prefix != "" {
		key = path.Join(p.prefix, key)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("error uploading %s to s3://%s/%s: %w", localPath, p.bucket, key, err)
	}

	uri := fmt.Sprintf("s3://%s/%s", p.bucket, key)
	p.logger.Debug("report published", zap.String("uri", uri))
	return uri, nil
}

package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	key         string
	bucket      string
	body        string
	contentType string
	err         error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, _ := io.ReadAll(params.Body)
	f.bucket = aws.ToString(params.Bucket)
	f.key = aws.ToString(params.Key)
	f.body = string(data)
	f.contentType = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func writeReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fintrack_20240105_100000.json")
	if err := os.WriteFile(path, []byte(`{"series":{}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPublish(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		wantKey string
	}{
		{"no prefix", "", "fintrack_20240105_100000.json"},
		{"prefix", "/reports/2024/", "reports/2024/fintrack_20240105_100000.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeS3{}
			publisher := newS3Publisher(client, "my-bucket", tt.prefix, nil)

			uri, err := publisher.Publish(context.Background(), writeReport(t))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if uri != "s3://my-bucket/"+tt.wantKey {
				t.Errorf("unexpected uri %s", uri)
			}
			if client.bucket != "my-bucket" || client.key != tt.wantKey {
				t.Errorf("unexpected object %s/%s", client.bucket, client.key)
			}
			if client.body != `{"series":{}}` {
				t.Errorf("unexpected body %q", client.body)
			}
			if !strings.HasPrefix(client.contentType, "application/json") {
				t.Errorf("unexpected content type %q", client.contentType)
			}
		})
	}
}

func TestPublish_Errors(t *testing.T) {
	publisher := newS3Publisher(&fakeS3{err: errors.New("access denied")}, "my-bucket", "", nil)

	if _, err := publisher.Publish(context.Background(), writeReport(t)); err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Errorf("expected upload error, got %v", err)
	}
	if _, err := publisher.Publish(context.Background(), filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewS3Publisher_RequiresBucket(t *testing.T) {
	if _, err := NewS3Publisher(context.Background(), "", "", "", nil); err == nil {
		t.Error("expected error without bucket")
	}
}

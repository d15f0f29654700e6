package storage

import (
	"context"
	"strings"
	"testing"
)

func TestNewS3Store_RequiresBucket(t *testing.T) {
	if _, err := NewS3Store(S3Config{}); err == nil {
		t.Error("NewS3Store() without bucket should fail")
	}
}

func TestS3Store_PresignedURL(t *testing.T) {
	store, err := NewS3Store(S3Config{
		Bucket:          "notes-media",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
	})
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}

	// Presigning is local, no network involved
	url, err := store.URL(context.Background(), "2026/08/29/test.png")
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}

	for _, want := range []string{"notes-media", "test.png", "X-Amz-Signature"} {
		if !strings.Contains(url, want) {
			t.Errorf("URL() = %q, missing %q", url, want)
		}
	}
}

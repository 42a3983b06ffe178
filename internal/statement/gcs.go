package statement

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// FetchGCS downloads a statement file from a gs://bucket/object URI.
func FetchGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return nil, fmt.Errorf("FetchGCS: invalid GCS URI: %s", gcsURI)
	}

	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("FetchGCS: invalid GCS URI (no object path): %s", gcsURI)
	}
	bucketName, objectPath := parts[0], parts[1]

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchGCS: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchGCS: reading bytes: %w", err)
	}
	return data, nil
}

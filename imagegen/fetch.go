package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxImageBytes bounds how much image data a generation task will accept.
const maxImageBytes = 32 << 20

// FetchImage materializes a provider image URL into bytes. Data URLs are
// decoded locally; plain HTTP URLs are downloaded.
func FetchImage(ctx context.Context, client *http.Client, imageURL string) ([]byte, string, error) {
	if strings.HasPrefix(imageURL, "data:") {
		return DecodeDataURL(imageURL)
	}
	return downloadImage(ctx, client, imageURL)
}

// DecodeDataURL decodes a base64 data URL into bytes plus its content type.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, "", fmt.Errorf("imagegen: not a data URL")
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("imagegen: malformed data URL")
	}

	contentType, _, _ := strings.Cut(meta, ";")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("imagegen: unsupported data URL encoding")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("imagegen: failed to decode data URL: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("imagegen: data URL is empty")
	}

	return data, contentType, nil
}

func downloadImage(ctx context.Context, client *http.Client, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("imagegen: failed to build download request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("imagegen: image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("imagegen: image download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("imagegen: reading image body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("imagegen: image download returned no data")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return data, contentType, nil
}

// extensionFor maps an image content type to an object key extension.
func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "svg"):
		return ".svg"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return ".jpg"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	case strings.Contains(contentType, "gif"):
		return ".gif"
	default:
		return ".png"
	}
}

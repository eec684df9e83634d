// reference/csv_downloader.go
package reference

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// downloadClient fetches reference files published over HTTP.
var downloadClient = &http.Client{
	Timeout: 30 * time.Second,
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// readSource returns the whole content of src, a local path or an http(s) URL.
func readSource(ctx context.Context, src string) (string, error) {
	if !isRemote(src) {
		raw, err := os.ReadFile(src)
		if err != nil {
			return "", fmt.Errorf("failed to read reference file %s: %w", src, err)
		}
		return string(raw), nil
	}
	return download(ctx, src)
}

func download(ctx context.Context, url string) (string, error) {
	log.Printf("Reference: downloading %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := downloadClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make GET request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download reference file from %s: received status code %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read reference file body from %s: %w", url, err)
	}
	log.Printf("Reference: downloaded %d bytes from %s", len(body), url)
	return string(body), nil
}

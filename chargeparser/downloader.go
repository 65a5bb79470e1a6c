// Package chargeparser provides functionality for downloading and parsing a
// hospital standard-charge file into charge items.
package chargeparser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/chargemaster-api/logging"
	"golang.org/x/text/encoding/charmap"
)

// maxFileSize bounds what we are willing to read from a source
const maxFileSize = 512 * 1024 * 1024

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// fetchSource reads the charge file from an http(s) URL or a local path and
// returns its content as UTF-8.
func fetchSource(ctx context.Context, source string, timeout time.Duration) ([]byte, error) {
	var body []byte
	var err error

	if isRemote(source) {
		body, err = download(ctx, source, timeout)
	} else {
		body, err = readLocal(source)
	}
	if err != nil {
		return nil, err
	}

	return toUTF8(body)
}

func download(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	client := &http.Client{
		Timeout: timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	response, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() {
		if err = response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: unexpected status %s", url, response.Status)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logging.Debug(fmt.Sprintf("%s downloaded without errors", url), "bytes", len(body))
	return body, nil
}

func readLocal(path string) ([]byte, error) {
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open charge file %s: %w", cleanPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("charge file %s is a directory", cleanPath)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("charge file %s is too large: %d bytes", cleanPath, info.Size())
	}

	// #nosec G304 -- path comes from configuration, not from requests
	body, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read charge file %s: %w", cleanPath, err)
	}
	return body, nil
}

// toUTF8 keeps valid UTF-8 as is and decodes anything else as ISO-8859-1,
// which is what hospitals exporting from older billing systems publish.
func toUTF8(body []byte) ([]byte, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	if utf8.Valid(body) {
		return body, nil
	}

	decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ISO-8859-1 content: %w", err)
	}
	logging.Debug("Charge file decoded from ISO-8859-1")
	return decoded, nil
}

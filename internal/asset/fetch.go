package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// maxAssetBytes caps a single download.
const maxAssetBytes = 512 << 20

var (
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrAssetTooLarge     = errors.New("asset exceeds size limit")
)

// NetworkError reports that the asset bytes could not be retrieved.
type NetworkError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching %s: %v", e.Source, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsURL returns true if the argument looks like a URL.
func IsURL(arg string) bool {
	arg = strings.TrimSpace(arg)
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// normalizeURL trims whitespace and surrounding quotes and checks the scheme.
func normalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	u, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("missing host")
	}
	return u.String(), nil
}

// ProgressFunc receives download progress. total is -1 when the server sent
// no length.
type ProgressFunc func(read, total int64)

// Fetch returns the raw bytes of src, issuing one GET for URLs and reading
// the file otherwise. All failures are *NetworkError. There is no retry.
func Fetch(ctx context.Context, client *http.Client, src string) ([]byte, error) {
	return FetchWithProgress(ctx, client, src, nil)
}

// FetchWithProgress is Fetch reporting body progress to fn as it downloads.
func FetchWithProgress(ctx context.Context, client *http.Client, src string, fn ProgressFunc) ([]byte, error) {
	if !IsURL(src) {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, &NetworkError{Source: src, Err: err}
		}
		return data, nil
	}

	u, err := normalizeURL(src)
	if err != nil {
		return nil, &NetworkError{Source: src, Err: err}
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &NetworkError{Source: u, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{Source: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Source: u, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	var body io.Reader = io.LimitReader(resp.Body, maxAssetBytes+1)
	if fn != nil {
		body = &progressReader{r: body, total: resp.ContentLength, fn: fn}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &NetworkError{Source: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	if len(data) > maxAssetBytes {
		return nil, &NetworkError{Source: u, StatusCode: resp.StatusCode, Err: ErrAssetTooLarge}
	}
	return data, nil
}

type progressReader struct {
	r     io.Reader
	read  int64
	total int64
	fn    ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.read += int64(n)
		pr.fn(pr.read, pr.total)
	}
	return n, err
}

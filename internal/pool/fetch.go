package pool

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/feelpp/aptforge/pkg/constants"
	"github.com/feelpp/aptforge/pkg/errors"
	"github.com/feelpp/aptforge/pkg/logging"
)

// Fetcher downloads pool artifacts that the local tree no longer carries,
// retrying with backoff when the file server misbehaves.
type Fetcher struct {
	client *retryablehttp.Client
}

// NewFetcher configures the retrying HTTP client used for artifact
// downloads.
func NewFetcher() *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = constants.FetchRetryMax
	client.RetryWaitMin = constants.FetchRetryWaitMin
	client.RetryWaitMax = constants.FetchRetryWaitMax
	client.Logger = nil
	return &Fetcher{client: client}
}

// Fetch downloads url into dest and verifies the SHA256 checksum when one
// is known. A 404 comes back as a not found error so callers can tell a
// vanished artifact from a flaky server.
func (f *Fetcher) Fetch(ctx context.Context, url, dest, checksum string) error {
	logging.FromContext(ctx).Debug().
		Str("url", url).
		Str("dest", dest).
		Msg("Fetching artifact")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.WrapIO("fetch", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return errors.WrapIO("fetch", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.NewNotFoundError("artifact", url)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.NewIOError("fetch", url,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	if err := os.MkdirAll(filepath.Dir(dest), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(dest), err)
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", dest, err)
	}

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, hasher), resp.Body); err != nil {
		out.Close()
		return errors.WrapIO("fetch", url, err)
	}
	if err := out.Close(); err != nil {
		return errors.WrapIO("write", dest, err)
	}

	if checksum != "" {
		if sum := fmt.Sprintf("%x", hasher.Sum(nil)); sum != checksum {
			os.Remove(dest)
			return errors.NewIOError("fetch", url,
				fmt.Errorf("checksum mismatch: got %s, want %s", sum, checksum))
		}
	}
	return nil
}

// Package fetch downloads large remote artifacts with digest verification
// and byte-range resumption. The destination path only ever holds a fully
// verified artifact; in-progress bytes live in a ".partial" side file.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ErrDigestMismatch is returned when a completed transfer does not match the
// expected SHA256 digest. The partial file has been deleted; the caller must
// retry from scratch.
var ErrDigestMismatch = errors.New("artifact digest mismatch")

// PartialSuffix is appended to the destination path to form the side file
// holding bytes received so far.
const PartialSuffix = ".partial"

// chunkSize bounds how much of the response body is buffered per read.
const chunkSize = 1 << 20

// ProgressFunc observes transfer progress. total is 0 when the server did
// not report a content length.
type ProgressFunc func(transferred, total int64)

// Fetcher downloads artifacts over HTTP.
type Fetcher struct {
	client   *http.Client
	progress ProgressFunc
	log      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the default HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithProgress registers a progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(f *Fetcher) { f.progress = fn }
}

// New creates a Fetcher. The default client has no overall timeout since
// artifact transfers legitimately run for a long time.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		log: slog.With("component", "fetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url to dest, verifying the artifact against expectedSHA256.
//
// If dest already exists with a matching digest the call returns immediately
// with no network I/O. A stale partial side file smaller than the remote size
// is resumed via a byte-range request; otherwise the transfer restarts from
// byte zero. A network error mid-transfer leaves the partial file in place
// for a later resume attempt. A digest mismatch after completion deletes the
// partial file and returns ErrDigestMismatch.
func (f *Fetcher) Fetch(ctx context.Context, url, dest, expectedSHA256 string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("create destination directory: %w", err)
	}

	if _, err := os.Stat(dest); err == nil {
		actual, err := SHA256File(dest)
		if err == nil && actual == expectedSHA256 {
			f.log.Info("artifact already downloaded and verified", "dest", dest)
			return dest, nil
		}
		f.log.Warn("existing artifact failed verification, re-fetching",
			"dest", dest, "expected", expectedSHA256, "actual", actual)
		if err := os.Remove(dest); err != nil {
			return "", fmt.Errorf("remove stale artifact: %w", err)
		}
	}

	total, err := f.contentLength(ctx, url)
	if err != nil {
		return "", fmt.Errorf("probe artifact size: %w", err)
	}

	partial := dest + PartialSuffix
	var offset int64
	if fi, err := os.Stat(partial); err == nil {
		if total > 0 && fi.Size() < total {
			offset = fi.Size()
			f.log.Info("resuming partial download", "partial", partial, "offset", offset, "total", total)
		} else {
			f.log.Info("discarding stale partial file", "partial", partial, "size", fi.Size())
		}
	}

	if err := f.transfer(ctx, url, partial, offset, total); err != nil {
		// The partial file is retained: this is the resumability point.
		return "", fmt.Errorf("transfer %s: %w", url, err)
	}

	actual, err := SHA256File(partial)
	if err != nil {
		return "", fmt.Errorf("verify download: %w", err)
	}
	if actual != expectedSHA256 {
		os.Remove(partial)
		return "", fmt.Errorf("%w: expected %s, got %s", ErrDigestMismatch, expectedSHA256, actual)
	}

	if err := os.Rename(partial, dest); err != nil {
		return "", fmt.Errorf("finalize artifact: %w", err)
	}
	f.log.Info("artifact downloaded and verified", "dest", dest, "sha256", actual)
	return dest, nil
}

// contentLength issues a HEAD request to determine the artifact size.
func (f *Fetcher) contentLength(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("head request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("head %s: http %d", url, resp.StatusCode)
	}
	if resp.ContentLength < 0 {
		return 0, nil
	}
	return resp.ContentLength, nil
}

// transfer streams the response body into the partial file in bounded
// chunks, appending from offset when the server honors the range request.
func (f *Fetcher) transfer(ctx context.Context, url, partial string, offset, total int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	flags := os.O_CREATE | os.O_WRONLY
	switch {
	case offset > 0 && resp.StatusCode == http.StatusPartialContent:
		flags |= os.O_APPEND
	case resp.StatusCode == http.StatusOK:
		// Server ignored the range request (or none was sent): start over.
		offset = 0
		flags |= os.O_TRUNC
	default:
		return fmt.Errorf("get %s: http %d", url, resp.StatusCode)
	}

	out, err := os.OpenFile(partial, flags, 0644)
	if err != nil {
		return fmt.Errorf("open partial file: %w", err)
	}

	buf := make([]byte, chunkSize)
	transferred := offset
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				return fmt.Errorf("write partial file: %w", werr)
			}
			transferred += int64(n)
			if f.progress != nil {
				f.progress(transferred, total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			out.Close()
			return fmt.Errorf("read body: %w", rerr)
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close partial file: %w", err)
	}

	// A short body with a known length is a truncated transfer; report it
	// so the next attempt resumes instead of verifying garbage.
	if total > 0 && transferred < total {
		return fmt.Errorf("short transfer: got %d of %d bytes", transferred, total)
	}
	return nil
}

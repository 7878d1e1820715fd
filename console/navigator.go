package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// Navigator follows a link whose response the server fully controls, the
// way a browser navigates to a file download.
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// Downloader is a Navigator that saves the response body into Dir under
// the filename the server sends in Content-Disposition.
type Downloader struct {
	Client *Client
	Dir    string

	last string
}

// NewDownloader creates a Downloader saving into dir.
func NewDownloader(c *Client, dir string) *Downloader {
	return &Downloader{Client: c, Dir: dir}
}

// Last returns the path of the most recent saved file.
func (d *Downloader) Last() string { return d.last }

// Navigate downloads target. The file is written next to its final path and
// renamed into place once complete.
func (d *Downloader) Navigate(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if d.Client.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.Client.apiKey)
	}

	resp, err := d.Client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return checkStatus(resp, body)
	}

	name := attachmentName(resp.Header.Get("Content-Disposition"), target)
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	dest := filepath.Join(d.Dir, name)

	tmp, err := os.CreateTemp(d.Dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create download file: %w", err)
	}
	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp.Name())
		if copyErr != nil {
			return fmt.Errorf("write download: %w", copyErr)
		}
		return fmt.Errorf("write download: %w", closeErr)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save download: %w", err)
	}

	d.last = dest
	slog.Info("download saved", "path", dest, "bytes", n)
	return nil
}

// attachmentName picks a safe local filename from a Content-Disposition
// header, falling back to the last segment of the URL path.
func attachmentName(disposition, target string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := filepath.Base(params["filename"]); name != "." && name != "/" && name != "" {
			return name
		}
	}
	if u, err := url.Parse(target); err == nil {
		if name := path.Base(u.Path); name != "." && name != "/" && name != "" {
			return name
		}
	}
	return "download"
}

package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	apperrors "github.com/arco-rh/arco-client/internal/errors"
)

// Download fetches a binary payload and hands it to the file sink, returning
// where it was stored. An empty filename falls back to the server's
// Content-Disposition name, then to the last path segment.
//
// Non-success statuses fail with MsgDownload. A 401 only clears the session when
// Config.DownloadExpiresSession is set.
func (g *Gateway) Download(ctx context.Context, urlPath, filename string) (string, error) {
	if g.files == nil {
		return "", errors.New("download: no file sink configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.resolve(urlPath, nil), nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	g.decorate(ctx, req, callOptions{})

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		err = g.transportError(ctx, err)
		g.observe(ctx, req, 0, time.Since(start), err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		err = apperrors.Download(resp.StatusCode)
		g.observe(ctx, req, resp.StatusCode, time.Since(start), err)
		if resp.StatusCode == http.StatusUnauthorized && g.cfg.DownloadExpiresSession {
			g.expireSession(ctx, req)
		}
		return "", err
	}

	name := downloadName(filename, resp.Header.Get("Content-Disposition"), urlPath)
	saved, err := g.files.Save(ctx, name, resp.Body)
	if err != nil {
		if ctx.Err() == nil {
			err = g.transportError(ctx, err)
		}
		g.observe(ctx, req, resp.StatusCode, time.Since(start), err)
		return "", fmt.Errorf("save download %s: %w", name, err)
	}

	g.observe(ctx, req, resp.StatusCode, time.Since(start), nil)
	g.logger.InfoContext(ctx, "file downloaded", "path", saved)
	return saved, nil
}

func downloadName(suggested, disposition, urlPath string) string {
	if s := strings.TrimSpace(suggested); s != "" {
		return s
	}
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := strings.TrimSpace(params["filename"]); name != "" {
				return name
			}
		}
	}
	rel, _, _ := strings.Cut(urlPath, "?")
	base := path.Base(rel)
	if base == "." || base == "/" {
		return "download"
	}
	return base
}

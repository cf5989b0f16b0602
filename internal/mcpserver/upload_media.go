package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/docsadmin/internal/media"
)

const maxFetchSize = 25 << 20

type uploadMediaResult struct {
	URL      string `json:"url"`
	Folder   string `json:"folder"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Markdown string `json:"markdown"`
}

// fetched is an asset pulled from a URL before it reaches the media store.
type fetched struct {
	data        []byte
	contentType string
}

type fetcher struct {
	client    *http.Client
	checkHost func(host string) error
}

func newFetcher() *fetcher {
	f := &fetcher{checkHost: checkBlockedHost}
	f.client = &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return f.checkHost(req.URL.Hostname())
		},
	}
	return f
}

func (s *Server) uploadMedia(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var asset *fetched
	if strings.HasPrefix(rawURL, "data:") {
		asset, err = decodeDataURI(rawURL)
	} else {
		asset, err = s.fetcher.fetch(ctx, rawURL)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	detected := mimetype.Detect(asset.data)
	if asset.contentType == "" || asset.contentType == "application/octet-stream" {
		asset.contentType = detected.String()
	}

	filename := req.GetString("filename", "")
	if filename == "" {
		filename = filenameFromURL(rawURL, detected.Extension())
	}

	res, err := s.media.Upload(ctx, media.UploadInput{
		Reader:       bytes.NewReader(asset.data),
		Size:         int64(len(asset.data)),
		Folder:       req.GetString("folder", media.AutoFolder),
		ContentType:  asset.contentType,
		OriginalName: filename,
	})
	if err != nil {
		return toolError("upload media", err), nil
	}

	snippet := fmt.Sprintf("[%s](%s)", filename, res.URL)
	if res.Folder == media.Images || res.Folder == media.Gifs {
		snippet = "!" + snippet
	}
	return jsonResult(uploadMediaResult{
		URL:      res.URL,
		Folder:   res.Folder,
		Type:     res.Type,
		Size:     res.Size,
		Markdown: snippet,
	})
}

// decodeDataURI parses a data:[<mediatype>][;base64],<data> URI.
func decodeDataURI(uri string) (*fetched, error) {
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	if len(data) > maxFetchSize {
		return nil, fmt.Errorf("file too large: exceeds %d bytes", maxFetchSize)
	}

	ct := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	return &fetched{data: data, contentType: ct}, nil
}

// fetch downloads an asset from an http(s) URL.
func (f *fetcher) fetch(ctx context.Context, rawURL string) (*fetched, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}
	if err := f.checkHost(parsed.Hostname()); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxFetchSize {
		return nil, fmt.Errorf("file too large: exceeds %d bytes", maxFetchSize)
	}

	ct := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	return &fetched{data: data, contentType: ct}, nil
}

// checkBlockedHost rejects loopback, link-local and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	if ip.IsLinkLocalUnicast() {
		return fmt.Errorf("blocked host: link-local address %s", host)
	}
	return nil
}

// filenameFromURL takes the last URL path segment, falling back to a UUID
// with the detected extension.
func filenameFromURL(rawURL, ext string) string {
	if !strings.HasPrefix(rawURL, "data:") {
		if parsed, err := url.Parse(rawURL); err == nil {
			base := path.Base(parsed.Path)
			if base != "" && base != "." && base != "/" && strings.Contains(base, ".") {
				return base
			}
		}
	}
	if ext == "" {
		ext = ".bin"
	}
	return uuid.New().String() + ext
}

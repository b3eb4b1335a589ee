package mcpserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/montage/internal/editor"
)

const (
	maxAssetSize  = 25 << 20 // 25 MB
	fetchTimeout  = 30 * time.Second
	maxRedirects  = 5
	acceptedTypes = "png, jpg, jpeg, gif, webp, mp3, wav"
)

// mediaTypes maps the MIME types accepted from generators to extensions.
var mediaTypes = map[string]string{
	"image/png":   ".png",
	"image/jpeg":  ".jpg",
	"image/gif":   ".gif",
	"image/webp":  ".webp",
	"audio/mpeg":  ".mp3",
	"audio/wave":  ".wav",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
}

var (
	unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

	errBlockedHost = errors.New("blocked host")
)

// payload is generated media received by upload_asset.
type payload struct {
	data []byte
	// ext is derived from the URL path or declared MIME type; may be empty.
	ext string
}

func (s *Server) uploadAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var p payload
	if strings.HasPrefix(src, "data:") {
		p, err = decodeDataURI(src)
	} else {
		p, err = fetchHTTP(ctx, src)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := req.GetString("filename", "")
	if name != "" {
		name = unsafeNameRe.ReplaceAllString(filepath.Base(name), "_")
		p.ext = strings.ToLower(filepath.Ext(name))
	}
	if err := checkPayload(p); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var item editor.AssetItem
	if name != "" {
		item, err = s.editor.AddMedia(ctx, name, p.data)
	} else {
		item, err = s.editor.AddGeneratedMedia(ctx, p.ext, p.data)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save asset: %v", err)), nil
	}
	return s.maybePlace(ctx, req, item), nil
}

// checkPayload enforces the size limit, the accepted types and that the
// content looks like its extension.
func checkPayload(p payload) error {
	if len(p.data) > maxAssetSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", len(p.data), maxAssetSize)
	}
	if !accepted(p.ext) {
		return fmt.Errorf("unsupported file extension: %q (allowed: %s)", p.ext, acceptedTypes)
	}
	return validateMagicBytes(p.data, p.ext)
}

func accepted(ext string) bool {
	if ext == ".jpeg" {
		return true
	}
	for _, e := range mediaTypes {
		if e == ext {
			return true
		}
	}
	return false
}

// decodeDataURI parses a data:<mediatype>;base64,<data> URI.
func decodeDataURI(uri string) (payload, error) {
	meta, encoded, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return payload{}, errors.New("invalid data URI: missing comma separator")
	}
	meta, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return payload{}, errors.New("only base64 data URIs are supported")
	}

	mime, _, _ := strings.Cut(meta, ";")
	ext, ok := mediaTypes[mime]
	if !ok {
		return payload{}, fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(encoded); err != nil {
			return payload{}, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	return payload{data: data, ext: ext}, nil
}

// fetchHTTP downloads generated media. Connections to loopback, link-local
// and unspecified addresses are refused after DNS resolution, including
// on redirects.
func fetchHTTP(ctx context.Context, rawURL string) (payload, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return payload{}, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return payload{}, fmt.Errorf("unsupported scheme: %s (only http/https)", u.Scheme)
	}
	if strings.EqualFold(u.Hostname(), "metadata.google.internal") {
		return payload{}, fmt.Errorf("%w: %s", errBlockedHost, u.Hostname())
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: guardDial}
	client := &http.Client{
		Timeout:   fetchTimeout,
		Transport: &http.Transport{DialContext: dialer.DialContext, Proxy: nil},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects (max %d)", maxRedirects)
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return payload{}, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return payload{}, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return payload{}, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return payload{}, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxAssetSize {
		return payload{}, fmt.Errorf("file too large: exceeds %d bytes", maxAssetSize)
	}

	ext := strings.ToLower(path.Ext(resp.Request.URL.Path))
	if ext == "" {
		mime, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
		ext = mediaTypes[strings.TrimSpace(mime)]
	}
	return payload{data: data, ext: ext}, nil
}

// guardDial runs for every connection attempt with the resolved address.
func guardDial(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("%w: unresolved address %s", errBlockedHost, host)
	}
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return fmt.Errorf("%w: %s", errBlockedHost, ip)
	}
	return nil
}

// validateMagicBytes verifies file content matches the declared extension.
func validateMagicBytes(data []byte, ext string) error {
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	if ext == ".mp3" && isMPEGFrame(data) {
		return nil
	}

	detected := http.DetectContentType(data)
	mime, _, _ := strings.Cut(detected, ";")
	if mediaTypes[mime] != ext {
		return fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected)
	}
	return nil
}

// isMPEGFrame reports whether data starts with an MPEG audio frame sync,
// which MP3 files without an ID3 tag begin with.
func isMPEGFrame(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

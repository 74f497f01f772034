package cards

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/disintegration/imaging"
)

const maxLogoBytes = 5 * 1024 * 1024

// LogoSource resolves a logo reference into PNG bytes. It never fails: a nil
// result means the card is drawn without a logo.
type LogoSource interface {
	Fetch(ctx context.Context, ref string) []byte
}

// LogoFetcher loads logos over http(s) or from the local filesystem.
type LogoFetcher struct {
	client *http.Client
	logg   *logger.Logger
}

func NewLogoFetcher(timeout time.Duration, logg *logger.Logger) *LogoFetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogoFetcher{client: &http.Client{Timeout: timeout}, logg: logg}
}

// Fetch returns the logo re-encoded as PNG, or nil on any failure.
func (f *LogoFetcher) Fetch(ctx context.Context, ref string) []byte {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	data, err := f.load(ctx, ref)
	if err == nil {
		data, err = normalizeLogo(data)
	}
	if err != nil {
		f.logg.Warn(f.logg.WithFields(ctx, map[string]any{
			"logo_ref": ref,
			"error":    err.Error(),
		}), "logo.fetch_failed")
		return nil
	}
	return data
}

func (f *LogoFetcher) load(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, err
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("logo request returned %s", resp.Status)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
	}

	path := strings.TrimPrefix(ref, "file://")
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return io.ReadAll(io.LimitReader(file, maxLogoBytes))
}

// normalizeLogo decodes any supported raster format and re-encodes it as PNG.
func normalizeLogo(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding logo: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding logo: %w", err)
	}
	return buf.Bytes(), nil
}

package landing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/mkoziy/workforce/warehouse/internal/ratelimit"
	"github.com/mkoziy/workforce/warehouse/internal/typederrors"
)

// SourceConfig lists remote files to download before landing.
type SourceConfig struct {
	URLs      []string         `yaml:"urls" json:"urls" mapstructure:"urls"`
	Timeout   time.Duration    `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
	RateLimit ratelimit.Config `yaml:"rate_limit" json:"rate_limit" mapstructure:"rate_limit"`
}

// HTTPExtractor downloads source files into the landing directory. Files
// already present are not fetched again.
type HTTPExtractor struct {
	httpClient *http.Client
	limiter    ratelimit.Limiter
	urls       []string
	logger     *slog.Logger
}

// NewHTTPExtractor creates an extractor for the configured URLs.
func NewHTTPExtractor(cfg SourceConfig, logger *slog.Logger) *HTTPExtractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPExtractor{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    ratelimit.NewLimiter(cfg.RateLimit),
		urls:       cfg.URLs,
		logger:     logger.With("component", "extractor"),
	}
}

// Extract downloads every configured URL into dir.
func (e *HTTPExtractor) Extract(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return typederrors.NewExtractionError(err, dir, "create landing directory")
	}

	for _, raw := range e.urls {
		name, err := fileName(raw)
		if err != nil {
			return typederrors.NewExtractionError(err, raw, "invalid source url")
		}
		dest := filepath.Join(dir, name)
		if _, err := os.Stat(dest); err == nil {
			e.logger.Debug("source file present, skipping download", "file", name)
			continue
		}

		n, err := e.download(ctx, raw, dest)
		if err != nil {
			return typederrors.NewExtractionError(err, raw, "download %s", name)
		}
		e.logger.Info("source file downloaded", "file", name, "bytes", n)
	}
	return nil
}

func (e *HTTPExtractor) download(ctx context.Context, src, dest string) (int64, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write body: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return n, fmt.Errorf("move into place: %w", err)
	}
	return n, nil
}

func fileName(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("no file name in %q", raw)
	}
	return name, nil
}

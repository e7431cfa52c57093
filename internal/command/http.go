package command

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/FlorianHeigl/fastest-pkg/internal/safety"
)

// HTTPProber measures throughput in-process instead of shelling out to curl.
type HTTPProber struct {
	client    *http.Client
	logger    *slog.Logger
	userAgent string
}

// NewHTTPProber creates an HTTPProber sending userAgent with every request.
// The client follows redirects and does not verify certificates.
func NewHTTPProber(userAgent string, logger *slog.Logger) *HTTPProber {
	return &HTTPProber{
		client:    safety.NewProbeClient(0),
		logger:    logger,
		userAgent: userAgent,
	}
}

// Probe downloads url to io.Discard and returns bytes per second. Failed
// transfers are reported as ok == false.
func (p *HTTPProber) Probe(ctx context.Context, url string) (float64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, false, err
	}
	req.Header.Set("User-Agent", p.userAgent)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, false, ctx.Err()
		}
		p.logger.Debug("probe request failed", "url", url, "error", err)
		return 0, false, nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		p.logger.Debug("probe got unexpected status", "url", url, "status", resp.StatusCode)
		return 0, false, nil
	}

	n, err := io.Copy(io.Discard, resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return 0, false, ctx.Err()
		}
		p.logger.Debug("probe transfer failed", "url", url, "error", err)
		return 0, false, nil
	}

	if n == 0 || elapsed <= 0 {
		return 0, false, nil
	}
	return float64(n) / elapsed.Seconds(), true, nil
}

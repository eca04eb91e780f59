package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hamed0406/uplinkwatch/internal/domain"
)

// HTTPChecker fetches spec.URL. A check passes only when the status code is
// 2xx/3xx AND at least one body byte arrives — a status line alone is not
// proof the uplink carried a real response (captive portals lie).
type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{},
	}
}

func (h *HTTPChecker) Check(ctx context.Context, spec domain.CheckSpec) domain.CheckResult {
	cctx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	res := domain.CheckResult{
		Category:  domain.CategoryHTTP,
		Name:      spec.Name,
		CheckedAt: time.Now().UTC(),
	}

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, spec.URL, nil)
	if err != nil {
		res.Reason = err.Error()
		return res
	}

	start := time.Now()
	resp, err := h.Client.Do(req)
	res.LatencyMS = time.Since(start).Seconds() * 1000
	if err != nil {
		res.Reason = classify(err)
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		res.Reason = domain.ReasonBadStatus
		return res
	}

	buf := make([]byte, 1)
	n, rerr := io.ReadFull(resp.Body, buf)
	res.LatencyMS = time.Since(start).Seconds() * 1000
	if n == 0 {
		if rerr != nil && rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
			res.Reason = classify(rerr)
		} else {
			res.Reason = domain.ReasonEmptyBody
		}
		return res
	}

	res.Success = true
	return res
}

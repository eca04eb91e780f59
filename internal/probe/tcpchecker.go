package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/hamed0406/uplinkwatch/internal/domain"
)

// TCPChecker completes a handshake to spec.Host:spec.Port and closes the
// connection immediately. Nothing is read or written.
type TCPChecker struct{}

func NewTCPChecker() *TCPChecker {
	return &TCPChecker{}
}

func (t *TCPChecker) Check(ctx context.Context, spec domain.CheckSpec) domain.CheckResult {
	cctx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	addr := net.JoinHostPort(spec.Host, strconv.Itoa(spec.Port))
	var dlr net.Dialer

	start := time.Now()
	conn, err := dlr.DialContext(cctx, "tcp", addr)
	latency := time.Since(start).Seconds() * 1000

	res := domain.CheckResult{
		Category:  domain.CategoryTCP,
		Name:      spec.Name,
		LatencyMS: latency,
		CheckedAt: time.Now().UTC(),
	}
	if err != nil {
		res.Reason = classify(err)
		return res
	}
	_ = conn.Close()
	res.Success = true
	return res
}

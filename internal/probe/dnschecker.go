package probe

import (
	"context"
	"net"
	"time"

	"github.com/hamed0406/uplinkwatch/internal/domain"
)

// DNSChecker asks a specific nameserver (spec.Host) to resolve a fixed
// benign query name. Success is any address coming back within the timeout;
// which addresses they are does not matter.
type DNSChecker struct {
	QueryName string
}

func NewDNSChecker(queryName string) *DNSChecker {
	return &DNSChecker{QueryName: queryName}
}

func (d *DNSChecker) Check(ctx context.Context, spec domain.CheckSpec) domain.CheckResult {
	cctx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	server := net.JoinHostPort(spec.Host, "53")
	r := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var dlr net.Dialer
			return dlr.DialContext(ctx, network, server)
		},
	}

	start := time.Now()
	ips, err := r.LookupIP(cctx, "ip", d.QueryName)
	latency := time.Since(start).Seconds() * 1000

	res := domain.CheckResult{
		Category:  domain.CategoryDNS,
		Name:      spec.Name,
		LatencyMS: latency,
		CheckedAt: time.Now().UTC(),
	}
	if err != nil {
		res.Reason = classify(err)
		return res
	}
	if len(ips) == 0 {
		res.Reason = domain.ReasonDNSError
		return res
	}
	res.Success = true
	return res
}

package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/hamed0406/uplinkwatch/internal/domain"
)

// Checker executes one check described by a CheckSpec. A checker never
// returns an error: failures are data in the result.
type Checker interface {
	Check(ctx context.Context, spec domain.CheckSpec) domain.CheckResult
}

// classify maps transport errors onto the well-known reason strings; anything
// unrecognized keeps its raw error text.
func classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return domain.ReasonTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.ReasonTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return domain.ReasonRefused
	}
	var de *net.DNSError
	if errors.As(err, &de) {
		return domain.ReasonDNSError
	}
	// url.Error and friends wrap the text; keep it readable
	return strings.TrimSpace(err.Error())
}

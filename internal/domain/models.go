package domain

import "time"

// Category identifies which kind of reachability probe a check performs.
type Category string

const (
	CategoryDNS  Category = "dns"
	CategoryTCP  Category = "tcp"
	CategoryHTTP Category = "http"
)

// Categories lists every probe category in a stable order.
var Categories = []Category{CategoryDNS, CategoryTCP, CategoryHTTP}

// CheckSpec is the static descriptor of one reachability check. Specs are
// built once at startup and never mutated afterwards.
type CheckSpec struct {
	Category Category      `json:"category" yaml:"category"`
	Name     string        `json:"name" yaml:"name"`
	Host     string        `json:"host,omitempty" yaml:"host,omitempty"` // DNS: nameserver IP; TCP: host to dial
	Port     int           `json:"port,omitempty" yaml:"port,omitempty"`
	URL      string        `json:"url,omitempty" yaml:"url,omitempty"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// CheckResult is the outcome of running a single CheckSpec. Results live for
// one cycle only; failed ones ride along in the assessment for diagnostics.
type CheckResult struct {
	Category  Category  `json:"category"`
	Name      string    `json:"name"`
	Success   bool      `json:"success"`
	LatencyMS float64   `json:"latency_ms"`
	Reason    string    `json:"reason,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Well-known failure reasons. Anything else is a raw error string.
const (
	ReasonTimeout   = "timeout"
	ReasonRefused   = "refused"
	ReasonDNSError  = "dns_error"
	ReasonBadStatus = "bad_status"
	ReasonEmptyBody = "empty_body"
)

// CategoryOutcome aggregates the results of one category within a cycle.
type CategoryOutcome struct {
	Category Category `json:"category"`
	Run      int      `json:"run"`
	Passed   int      `json:"passed"`
}

// Ratio returns passed/run in [0,1]. A category with no checks run
// contributes 0 — its weight still counts in the score denominator.
func (o CategoryOutcome) Ratio() float64 {
	if o.Run == 0 {
		return 0
	}
	return float64(o.Passed) / float64(o.Run)
}

package domain

import (
	"math"
	"time"
)

// Verdict is the binary online/offline classification of the uplink.
type Verdict string

const (
	VerdictOnline  Verdict = "online"
	VerdictOffline Verdict = "offline"
)

// HealthAssessment is produced once per monitoring cycle: a weighted
// confidence score over the category outcomes, the derived verdict, and the
// failed checks kept for diagnostics.
type HealthAssessment struct {
	Verdict    Verdict                      `json:"verdict"`
	Score      float64                      `json:"score"` // [0,1]
	Categories map[Category]CategoryOutcome `json:"categories"`
	Failed     []CheckResult                `json:"failed,omitempty"`
	CheckedAt  time.Time                    `json:"checked_at"`
}

// Online reports whether the verdict classified the uplink as reachable.
func (a HealthAssessment) Online() bool { return a.Verdict == VerdictOnline }

// Percent returns the score as a percentage rounded to one decimal, the form
// external consumers see.
func (a HealthAssessment) Percent() float64 {
	return math.Round(a.Score*1000) / 10
}

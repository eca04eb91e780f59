package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the watchdog needs at startup. Policy knobs
// (weights, threshold, attempt limits, delays) are plain fields so tuning
// them never touches engine logic.
type Config struct {
	Addr        string // API bind address
	LogDir      string // logs directory
	DatabaseURL string // empty means in-memory state store

	Target string // identity of the monitored uplink, used as the state key

	// Probe policy
	DNSWeight  float64
	TCPWeight  float64
	HTTPWeight float64
	Threshold  float64 // verdict online iff score >= Threshold
	CheckTimeout  time.Duration
	RetryAttempts int           // HTTP check retries
	RetryBackoff  time.Duration // backoff between retries
	Concurrency   int           // max checks in flight

	// Recovery policy
	MaxAttempts     int
	Window          time.Duration // rolling attempt window
	SettleDelay     time.Duration // power-off to power-on gap
	ValidationDelay time.Duration // power-on to re-probe gap

	// Scheduling
	Interval time.Duration

	// Collaborators
	SlackWebhook string
	PlugURL      string // power actuator base URL; empty disables actuation

	// API access
	PublicAPIKeys []string
	AdminAPIKeys  []string
	PublicRPM     int
	PublicBurst   int
	AdminRPM      int
	AdminBurst    int

	BatteryFile string // optional YAML check battery override
}

func FromEnv() Config {
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	target := os.Getenv("UPLINK_TARGET")
	if target == "" {
		target = "uplink"
	}

	return Config{
		Addr:        addr,
		LogDir:      logDir,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Target:      target,

		DNSWeight:  envFloat("DNS_WEIGHT", 0.20),
		TCPWeight:  envFloat("TCP_WEIGHT", 0.45),
		HTTPWeight: envFloat("HTTP_WEIGHT", 0.35),
		Threshold:  envFloat("THRESHOLD", 0.60),

		CheckTimeout:  envDurationMS("CHECK_TIMEOUT_MS", 5*time.Second),
		RetryAttempts: envInt("RETRY_ATTEMPTS", 1),
		RetryBackoff:  envDurationMS("RETRY_BACKOFF_MS", 300*time.Millisecond),
		Concurrency:   envInt("MAX_CONCURRENT_CHECKS", 8),

		MaxAttempts:     envInt("MAX_RECOVERY_ATTEMPTS", 3),
		Window:          time.Duration(envInt("WINDOW_HOURS", 2)) * time.Hour,
		SettleDelay:     time.Duration(envInt("SETTLE_DELAY_S", 30)) * time.Second,
		ValidationDelay: time.Duration(envInt("VALIDATION_DELAY_S", 60)) * time.Second,

		Interval: time.Duration(envInt("INTERVAL_MIN", 5)) * time.Minute,

		SlackWebhook: os.Getenv("SLACK_WEBHOOK"),
		PlugURL:      os.Getenv("PLUG_URL"),

		PublicAPIKeys: splitKeys(os.Getenv("PUBLIC_API_KEYS")),
		AdminAPIKeys:  splitKeys(os.Getenv("ADMIN_API_KEYS")),
		PublicRPM:     envInt("PUBLIC_RPM", 120),
		PublicBurst:   envInt("PUBLIC_BURST", 60),
		AdminRPM:      envInt("ADMIN_RPM", 60),
		AdminBurst:    envInt("ADMIN_BURST", 30),

		BatteryFile: os.Getenv("BATTERY_FILE"),
	}
}

// Validate catches misconfiguration before the first cycle. Errors here are
// fatal at initialization and can never occur at cycle time.
func (c Config) Validate() error {
	sum := c.DNSWeight + c.TCPWeight + c.HTTPWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("config: category weights sum to %v, want 1.0", sum)
	}
	if c.DNSWeight < 0 || c.TCPWeight < 0 || c.HTTPWeight < 0 {
		return fmt.Errorf("config: negative category weight")
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("config: threshold %v outside (0,1]", c.Threshold)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config: max recovery attempts %d, want >= 1", c.MaxAttempts)
	}
	if c.Window <= 0 {
		return fmt.Errorf("config: non-positive attempt window %v", c.Window)
	}
	if c.CheckTimeout <= 0 {
		return fmt.Errorf("config: non-positive check timeout %v", c.CheckTimeout)
	}
	return nil
}

func splitKeys(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envFloat(name string, def float64) float64 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDurationMS(name string, def time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

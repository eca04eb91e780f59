// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hamed0406/uplinkwatch/internal/config"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		fail(err.Error())
	}
	ok(fmt.Sprintf("weights %.2f/%.2f/%.2f, threshold %.2f",
		cfg.DNSWeight, cfg.TCPWeight, cfg.HTTPWeight, cfg.Threshold))

	if len(cfg.AdminAPIKeys) == 0 {
		warn("ADMIN_API_KEYS is empty (admin routes run unauthenticated; dev only).")
	}
	if len(cfg.PublicAPIKeys) == 0 {
		warn("PUBLIC_API_KEYS is empty (read routes run unauthenticated; dev only).")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for _, name := range []string{"ADMIN_API_KEYS", "PUBLIC_API_KEYS"} {
		if v := os.Getenv(name); strings.Contains(strings.TrimSpace(v), " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if cfg.PlugURL == "" {
		warn("PLUG_URL empty — watchdog will detect outages but never power-cycle.")
	} else {
		ok("PLUG_URL=" + cfg.PlugURL)
	}

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty — recovery state is in-memory and resets on restart.")
	} else {
		ok("DATABASE_URL present")
	}

	if cfg.BatteryFile != "" {
		if _, err := config.LoadBattery(cfg.BatteryFile, cfg.CheckTimeout); err != nil {
			fail("BATTERY_FILE invalid: " + err.Error())
		}
		ok("BATTERY_FILE=" + cfg.BatteryFile)
	}

	if cfg.SlackWebhook == "" {
		warn("SLACK_WEBHOOK empty — no notifications will be sent.")
	}

	ok("preflight passed")
}

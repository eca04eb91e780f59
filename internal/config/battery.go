package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/uplinkwatch/internal/domain"
)

// DNSQueryName is the benign name every DNS check resolves.
const DNSQueryName = "google.com"

// DefaultBattery is the built-in check set: four independently operated
// resolvers, five major sites on ports 80 and 443, and three HTTP endpoints.
func DefaultBattery(timeout time.Duration) []domain.CheckSpec {
	var specs []domain.CheckSpec

	resolvers := []struct{ ip, name string }{
		{"8.8.8.8", "Google"},
		{"1.1.1.1", "Cloudflare"},
		{"9.9.9.9", "Quad9"},
		{"208.67.222.222", "OpenDNS"},
	}
	for _, r := range resolvers {
		specs = append(specs, domain.CheckSpec{
			Category: domain.CategoryDNS,
			Name:     "DNS " + r.name,
			Host:     r.ip,
			Timeout:  timeout,
		})
	}

	hosts := []struct{ host, name string }{
		{"google.com", "Google"},
		{"amazon.com", "Amazon"},
		{"cloudflare.com", "Cloudflare"},
		{"github.com", "GitHub"},
		{"microsoft.com", "Microsoft"},
	}
	for _, h := range hosts {
		for _, port := range []int{80, 443} {
			specs = append(specs, domain.CheckSpec{
				Category: domain.CategoryTCP,
				Name:     fmt.Sprintf("TCP %s:%d", h.name, port),
				Host:     h.host,
				Port:     port,
				Timeout:  timeout,
			})
		}
	}

	for _, u := range []string{
		"http://www.google.com",
		"http://www.cloudflare.com",
		"http://www.apple.com",
	} {
		specs = append(specs, domain.CheckSpec{
			Category: domain.CategoryHTTP,
			Name:     "HTTP " + u,
			URL:      u,
			Timeout:  timeout,
		})
	}

	return specs
}

type batteryFile struct {
	Checks []batteryEntry `yaml:"checks"`
}

type batteryEntry struct {
	Category       string `yaml:"category"`
	Name           string `yaml:"name"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LoadBattery reads a YAML check battery. An entry without a timeout falls
// back to the given default.
func LoadBattery(path string, defTimeout time.Duration) ([]domain.CheckSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read battery file: %w", err)
	}
	var f batteryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse battery file: %w", err)
	}
	if len(f.Checks) == 0 {
		return nil, fmt.Errorf("battery file %s declares no checks", path)
	}

	specs := make([]domain.CheckSpec, 0, len(f.Checks))
	for i, e := range f.Checks {
		timeout := defTimeout
		if e.TimeoutSeconds > 0 {
			timeout = time.Duration(e.TimeoutSeconds) * time.Second
		}
		spec := domain.CheckSpec{
			Name:    e.Name,
			Host:    e.Host,
			Port:    e.Port,
			URL:     e.URL,
			Timeout: timeout,
		}
		switch domain.Category(e.Category) {
		case domain.CategoryDNS:
			spec.Category = domain.CategoryDNS
			if spec.Host == "" {
				return nil, fmt.Errorf("battery check %d: dns check needs a host", i)
			}
		case domain.CategoryTCP:
			spec.Category = domain.CategoryTCP
			if spec.Host == "" || spec.Port == 0 {
				return nil, fmt.Errorf("battery check %d: tcp check needs host and port", i)
			}
		case domain.CategoryHTTP:
			spec.Category = domain.CategoryHTTP
			if spec.URL == "" {
				return nil, fmt.Errorf("battery check %d: http check needs a url", i)
			}
		default:
			return nil, fmt.Errorf("battery check %d: unknown category %q", i, e.Category)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Battery resolves the effective check set: the YAML file when configured,
// otherwise the built-in defaults. An empty result is a startup error.
func (c Config) Battery() ([]domain.CheckSpec, error) {
	if c.BatteryFile != "" {
		return LoadBattery(c.BatteryFile, c.CheckTimeout)
	}
	specs := DefaultBattery(c.CheckTimeout)
	if len(specs) == 0 {
		return nil, fmt.Errorf("empty check battery")
	}
	return specs, nil
}

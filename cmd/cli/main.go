package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Small operator console for the watchdog API. Reads API_BASE and API_KEY
// from the environment.
//
//	watchdog-cli status     latest assessment
//	watchdog-cli recovery   governor snapshot
//	watchdog-cli check      request an immediate cycle (admin key)
func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	key := os.Getenv("API_KEY")

	cmd := "status"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "status":
		show(api+"/api/health", key)
	case "recovery":
		show(api+"/api/recovery", key)
	case "check":
		trigger(api+"/api/check", key)
	default:
		fmt.Fprintln(os.Stderr, "usage: watchdog-cli [status|recovery|check]")
		os.Exit(2)
	}
}

func show(url, key string) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		fail(err)
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		fmt.Println("no assessment yet; the first cycle has not completed")
		return
	}
	if resp.StatusCode != http.StatusOK {
		fail(fmt.Errorf("API returned %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fail(err)
	}
	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fail(err)
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
}

func trigger(url, key string) {
	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		fail(err)
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		fmt.Println("check requested; poll `watchdog-cli status` for the result")
		return
	}
	fail(fmt.Errorf("API returned %s (admin key required?)", resp.Status))
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

package actuator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPPlug drives a Tasmota-compatible smart plug over its HTTP command
// interface: GET /cm?cmnd=Power+On|Off|(query). The modem hangs off this
// plug's relay.
type HTTPPlug struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPPlug(baseURL string) *HTTPPlug {
	if baseURL == "" {
		return nil
	}
	return &HTTPPlug{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type plugResponse struct {
	Power string `json:"POWER"`
}

func (p *HTTPPlug) SetPower(ctx context.Context, on bool) error {
	cmd := "Power Off"
	if on {
		cmd = "Power On"
	}
	resp, err := p.command(ctx, cmd)
	if err != nil {
		return err
	}
	want := PowerOff
	if on {
		want = PowerOn
	}
	if resp != want {
		return errors.New("plug did not confirm " + string(want))
	}
	return nil
}

func (p *HTTPPlug) GetPower(ctx context.Context) (PowerState, error) {
	state, err := p.command(ctx, "Power")
	if err != nil {
		return PowerUnknown, err
	}
	return state, nil
}

func (p *HTTPPlug) command(ctx context.Context, cmd string) (PowerState, error) {
	u := p.BaseURL + "/cm?cmnd=" + url.QueryEscape(cmd)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return PowerUnknown, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return PowerUnknown, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return PowerUnknown, errors.New("plug returned " + resp.Status)
	}

	var body plugResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return PowerUnknown, err
	}
	switch strings.ToUpper(body.Power) {
	case "ON":
		return PowerOn, nil
	case "OFF":
		return PowerOff, nil
	default:
		return PowerUnknown, nil
	}
}

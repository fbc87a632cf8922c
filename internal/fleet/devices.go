// Package fleet exposes typed device operations for the dashboard, layered on
// the API call coordinator. Failures surface through the coordinator's call
// state, not as errors.
package fleet

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/Teton-ai/smith-sub002/internal/apiclient"
)

// Device is a fleet device as reported by the API.
type Device struct {
	ID           int        `json:"id"`
	SerialNumber string     `json:"serial_number"`
	Labels       []string   `json:"labels"`
	Online       bool       `json:"online"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	Release      string     `json:"release,omitempty"`
}

// Service performs device operations through the coordinator and applies the
// dashboard's excluded-labels filter from the remote configuration.
type Service struct {
	coord   *apiclient.Coordinator
	configs apiclient.ConfigSource
}

// NewService creates a device service.
func NewService(coord *apiclient.Coordinator, configs apiclient.ConfigSource) *Service {
	return &Service{coord: coord, configs: configs}
}

// List returns the visible devices. Devices carrying an excluded label are
// hidden. ok is false when the underlying call failed; the failure is
// observable via State.
func (s *Service) List(ctx context.Context) (devices []Device, ok bool) {
	if !s.coord.CallJSON(ctx, "GET", "/devices", nil, &devices) {
		return nil, false
	}
	return s.filterExcluded(ctx, devices), true
}

// Get returns a single device by serial number.
func (s *Service) Get(ctx context.Context, serial string) (*Device, bool) {
	var device Device
	path := fmt.Sprintf("/devices/%s", url.PathEscape(serial))
	if !s.coord.CallJSON(ctx, "GET", path, nil, &device) {
		return nil, false
	}
	return &device, true
}

// UpdateLabels replaces the labels of a device.
func (s *Service) UpdateLabels(ctx context.Context, serial string, labels []string) bool {
	path := fmt.Sprintf("/devices/%s", url.PathEscape(serial))
	body := map[string][]string{"labels": labels}
	return s.coord.CallJSON(ctx, "PATCH", path, body, nil)
}

// State returns the coordinator's current loading/error snapshot.
func (s *Service) State() apiclient.CallState {
	return s.coord.State()
}

// filterExcluded drops devices that carry any label listed in the
// DASHBOARD_EXCLUDED_LABELS configuration value. With no configuration
// available, nothing is hidden.
func (s *Service) filterExcluded(ctx context.Context, devices []Device) []Device {
	cfg, err := s.configs.Get(ctx)
	if err != nil || cfg.ExcludedLabels == "" {
		return devices
	}

	excluded := parseExcludedLabels(cfg.ExcludedLabels)
	visible := make([]Device, 0, len(devices))
	for _, d := range devices {
		if !slices.ContainsFunc(d.Labels, func(l string) bool {
			return slices.Contains(excluded, l)
		}) {
			visible = append(visible, d)
		}
	}
	return visible
}

func parseExcludedLabels(raw string) []string {
	parts := strings.Split(raw, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	return labels
}

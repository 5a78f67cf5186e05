// Package hris pulls the external employee roster used to reconcile device
// users against HR records. The original system talks to Odoo over JSON-RPC;
// no Odoo client exists in this stack, so this package generalizes the
// integration behind a plain HTTP/JSON contract any HRIS system can expose.
package hris

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
)

// Employee is one HRIS record relevant to device enrollment.
type Employee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Config configures the HRIS HTTP client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client fetches the active employee list from the configured HRIS
// endpoint.
type Client struct {
	http *resty.Client
}

// New builds an HRIS client against cfg.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		c.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Client{http: c}
}

// ListEmployees returns every active employee with a non-empty
// identification, mirroring the original's filter on hr.employee records
// where identification_id != False.
func (c *Client) ListEmployees(ctx context.Context) ([]Employee, error) {
	var employees []Employee
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&employees).
		Get("/employees")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPeripheralFailure, "fetch HRIS employee list", err)
	}
	if resp.IsError() {
		return nil, apperr.New(apperr.KindPeripheralFailure, fmt.Sprintf("HRIS returned %s", resp.Status()))
	}

	out := make([]Employee, 0, len(employees))
	for _, e := range employees {
		if e.ID != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

package utils

import (
	"fmt"
	"net/http"
	"time"
)

// Probe statuses reported by the health endpoint.
const (
	ProbeOK            = "ok"
	ProbeError         = "error"
	ProbeNotConfigured = "not_configured"
)

// CheckResult is one dependency's contribution to the composite health check.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// APIProber performs bounded liveness checks against the third-party APIs
// the service depends on. Base URLs are fields so tests can point probes at
// local servers.
type APIProber struct {
	Client *http.Client

	AnthropicBase string
	ResendBase    string
	CalendlyBase  string
	NotionBase    string
}

func NewAPIProber(timeout time.Duration) *APIProber {
	return &APIProber{
		Client:        &http.Client{Timeout: timeout},
		AnthropicBase: "https://api.anthropic.com",
		ResendBase:    "https://api.resend.com",
		CalendlyBase:  "https://api.calendly.com",
		NotionBase:    "https://api.notion.com",
	}
}

func (p *APIProber) check(req *http.Request) CheckResult {
	resp, err := p.Client.Do(req)
	if err != nil {
		return CheckResult{Status: ProbeError, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return CheckResult{Status: ProbeOK}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return CheckResult{Status: ProbeError, Message: "credential rejected"}
	}
	return CheckResult{Status: ProbeError, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
}

// CheckAnthropic validates the AI generation key.
func (p *APIProber) CheckAnthropic(key string) CheckResult {
	if key == "" {
		return CheckResult{Status: ProbeNotConfigured}
	}
	req, err := http.NewRequest(http.MethodGet, p.AnthropicBase+"/v1/models", nil)
	if err != nil {
		return CheckResult{Status: ProbeError, Message: err.Error()}
	}
	req.Header.Set("x-api-key", key)
	req.Header.Set("anthropic-version", "2023-06-01")
	return p.check(req)
}

// CheckResend validates the email-send key.
func (p *APIProber) CheckResend(key string) CheckResult {
	if key == "" {
		return CheckResult{Status: ProbeNotConfigured}
	}
	req, err := http.NewRequest(http.MethodGet, p.ResendBase+"/domains", nil)
	if err != nil {
		return CheckResult{Status: ProbeError, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+key)
	return p.check(req)
}

// CheckCalendly validates the calendar-integration key.
func (p *APIProber) CheckCalendly(key string) CheckResult {
	if key == "" {
		return CheckResult{Status: ProbeNotConfigured}
	}
	req, err := http.NewRequest(http.MethodGet, p.CalendlyBase+"/users/me", nil)
	if err != nil {
		return CheckResult{Status: ProbeError, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+key)
	return p.check(req)
}

// CheckNotion validates the inbox-provider key.
func (p *APIProber) CheckNotion(key string) CheckResult {
	if key == "" {
		return CheckResult{Status: ProbeNotConfigured}
	}
	req, err := http.NewRequest(http.MethodGet, p.NotionBase+"/v1/users/me", nil)
	if err != nil {
		return CheckResult{Status: ProbeError, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Notion-Version", "2022-06-28")
	return p.check(req)
}

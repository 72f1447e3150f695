package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/metroequip/rentflow/rental/contract"
)

const maxVerifyResponseBytes = 1 << 20

// HTTPConfig configures the remote verification service client.
type HTTPConfig struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// HTTPGateway asks a remote verification service over JSON/HTTP. A
// transport failure surfaces as an error; the orchestrator treats it as
// a failed verification and never retries.
type HTTPGateway struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type verifyRequest struct {
	Check  string            `json:"check"`
	Params map[string]string `json:"params"`
}

type verifyResponse struct {
	Passed bool              `json:"passed"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func NewHTTPGateway(cfg HTTPConfig) (*HTTPGateway, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("verification base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid verification base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPGateway{
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (g *HTTPGateway) VerifyLicense(ctx context.Context, licenseNumber string) (contractx.Verification, error) {
	return g.ask(ctx, "business_license", map[string]string{
		"license_number": licenseNumber,
	})
}

func (g *HTTPGateway) VerifySite(ctx context.Context, address, category, weightClass string) (contractx.Verification, error) {
	return g.ask(ctx, "site_safety", map[string]string{
		"address":      address,
		"category":     category,
		"weight_class": weightClass,
	})
}

func (g *HTTPGateway) VerifyOperator(ctx context.Context, operatorLicense, requiredCert string) (contractx.Verification, error) {
	return g.ask(ctx, "operator_credentials", map[string]string{
		"operator_license": operatorLicense,
		"required_cert":    requiredCert,
	})
}

func (g *HTTPGateway) VerifyInsurance(ctx context.Context, policyNumber string, minCoverage float64) (contractx.Verification, error) {
	return g.ask(ctx, "insurance_coverage", map[string]string{
		"policy_number": policyNumber,
		"min_coverage":  fmt.Sprintf("%.2f", minCoverage),
	})
}

func (g *HTTPGateway) ask(ctx context.Context, check string, params map[string]string) (contractx.Verification, error) {
	body, err := json.Marshal(verifyRequest{Check: check, Params: params})
	if err != nil {
		return contractx.Verification{}, fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return contractx.Verification{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return contractx.Verification{}, fmt.Errorf("execute verify request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxVerifyResponseBytes))
	if err != nil {
		return contractx.Verification{}, fmt.Errorf("read verify response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return contractx.Verification{}, fmt.Errorf("verify http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed verifyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return contractx.Verification{}, fmt.Errorf("decode verify response: %w", err)
	}
	return contractx.Verification{
		Passed: parsed.Passed,
		Detail: parsed.Detail,
		Fields: parsed.Fields,
	}, nil
}

/*
http.go - Chain-bridge HTTP adapter

PURPOSE:
  Implements Client against a chain bridge: a sidecar node that holds the
  signing key and exposes the contract operations as JSON over HTTP. The
  bridge owns gas, nonces and transaction signing; this adapter only needs
  the typed Result contract.

ENDPOINTS:
  GET  /health                         liveness probe
  GET  /participants/{id}              existence check
  POST /participants                   registerParticipant
  POST /participants/{id}/wallet       updateWallet
  POST /participants/{id}/status       recordStatusChange
  POST /participants/{id}/leave        recordLeaveApproval
  POST /participants/{id}/payments     recordPayment

TIMEOUTS:
  Every call is bounded by the configured timeout. A ledger call is
  attempted exactly once per domain operation; retries are the caller's
  decision, not this adapter's.
*/
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *BridgeClient must satisfy Client.
var _ Client = (*BridgeClient)(nil)

// BridgeClient talks to a chain bridge node over HTTP.
type BridgeClient struct {
	baseURL string
	http    *http.Client
}

// NewBridgeClient creates a client for the bridge at baseURL. The timeout
// bounds every individual call, the probe included.
func NewBridgeClient(baseURL string, timeout time.Duration) *BridgeClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BridgeClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// IsAvailable probes the bridge health endpoint. Never returns an error:
// any transport failure or non-200 reads as unavailable.
func (c *BridgeClient) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		zap.L().Debug("ledger probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Exists reports whether the participant is registered on the contract.
func (c *BridgeClient) Exists(ctx context.Context, participantID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/participants/"+url.PathEscape(participantID), nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Exists bool `json:"exists"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return false, fmt.Errorf("decode exists response: %w", err)
		}
		return body.Exists, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("bridge returned status %d", resp.StatusCode)
	}
}

// RegisterParticipant records a new participant on the contract.
func (c *BridgeClient) RegisterParticipant(ctx context.Context, p RegisterParams) (Result, error) {
	payload := map[string]any{
		"id":         p.ID,
		"name":       p.Name,
		"role":       p.Role,
		"department": p.Department,
		"hireDate":   p.HireDate.Format("2006-01-02"),
	}
	if p.Wallet != nil {
		payload["wallet"] = *p.Wallet
	}
	return c.post(ctx, "/participants", payload)
}

// UpdateWallet binds or replaces the participant's wallet address.
func (c *BridgeClient) UpdateWallet(ctx context.Context, participantID, wallet string) (Result, error) {
	return c.post(ctx, "/participants/"+url.PathEscape(participantID)+"/wallet",
		map[string]any{"wallet": wallet})
}

// RecordStatusChange mirrors an employment status transition.
func (c *BridgeClient) RecordStatusChange(ctx context.Context, participantID, newStatus, reason string) (Result, error) {
	return c.post(ctx, "/participants/"+url.PathEscape(participantID)+"/status",
		map[string]any{"status": newStatus, "reason": reason})
}

// RecordLeaveApproval mirrors an approved leave request.
func (c *BridgeClient) RecordLeaveApproval(ctx context.Context, participantID string, days int, reason string) (Result, error) {
	return c.post(ctx, "/participants/"+url.PathEscape(participantID)+"/leave",
		map[string]any{"days": days, "reason": reason})
}

// RecordPayment mirrors a payroll payment.
func (c *BridgeClient) RecordPayment(ctx context.Context, participantID string, amount decimal.Decimal) (Result, error) {
	return c.post(ctx, "/participants/"+url.PathEscape(participantID)+"/payments",
		map[string]any{"amount": amount.String()})
}

// post sends a mutating call and decodes the Result envelope. A non-2xx
// response with a decodable body still yields the bridge's Reason.
func (c *BridgeClient) post(ctx context.Context, path string, payload any) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("decode bridge response (status %d): %w", resp.StatusCode, err)
	}
	if !res.Success && res.Reason == "" {
		res.Reason = fmt.Sprintf("bridge returned status %d", resp.StatusCode)
	}
	return res, nil
}

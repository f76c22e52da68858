/*
 * Copyright 2025 QuickBars.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package pairing implements the one-shot HTTP pairing protocol against
// the companion app, and the state machine the operator UI drives
// through it. These are direct network calls, not bus-correlated.
package pairing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/quickbars/bridge/pkg/logger"
	"github.com/quickbars/bridge/pkg/models"
)

const (
	pairCodeTimeout    = 15 * time.Second
	confirmTimeout     = 15 * time.Second
	credentialsTimeout = 15 * time.Second
	pingTimeout        = 5 * time.Second
)

// LocalMetadata identifies the hub to the companion app during pairing.
type LocalMetadata struct {
	Instance string `json:"ha_instance,omitempty"`
	Name     string `json:"ha_name,omitempty"`
	BaseURL  string `json:"ha_url,omitempty"`
}

// Client speaks the companion app's pairing endpoints.
type Client struct {
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a pairing client. A nil httpClient uses the default
// transport; per-call deadlines come from the operation, not the client.
func NewClient(httpClient *http.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{httpClient: httpClient, logger: log}
}

// RequestPairingCode asks the companion app to display a pairing code
// and returns the session id the later confirm call must present.
func (c *Client) RequestPairingCode(ctx context.Context, host string, port int) (*models.PairCode, error) {
	var code models.PairCode

	status, err := c.requestJSON(ctx, http.MethodGet, endpoint(host, port, "/api/pair/code"), nil, &code, pairCodeTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	if status >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: pair code request returned %d", ErrUnreachable, status)
	}

	c.logger.Debug().
		Str("host", host).Int("port", port).
		Str("code", maskCode(code.Code)).Str("sid", maskSID(code.SID)).Int("ttl", code.TTL).
		Msg("Pairing code issued")

	return &code, nil
}

type confirmRequest struct {
	Code string `json:"code"`
	SID  string `json:"sid"`
	LocalMetadata
}

// ConfirmPairing submits the user-entered code. The returned identity is
// the permanent correlation key for this companion app; a response
// without one aborts the whole flow.
func (c *Client) ConfirmPairing(
	ctx context.Context, host string, port int, code, sid string, meta LocalMetadata,
) (*models.PairConfirmation, error) {
	body := confirmRequest{Code: code, SID: sid, LocalMetadata: meta}

	c.logger.Debug().
		Str("host", host).Int("port", port).
		Str("code", maskCode(code)).Str("sid", maskSID(sid)).
		Msg("Confirming pairing")

	var confirmation models.PairConfirmation

	status, err := c.requestJSON(
		ctx, http.MethodPost, endpoint(host, port, "/api/pair/confirm"), &body, &confirmation, confirmTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	switch {
	case status >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: pair confirm returned %d", ErrUnreachable, status)
	case status >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w (status %d)", ErrInvalidCode, status)
	}

	if confirmation.ID == "" {
		return nil, ErrNoStableIdentity
	}

	if confirmation.Port == 0 {
		confirmation.Port = port
	}

	return &confirmation, nil
}

type credentialsRequest struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// PushCredentials hands the companion app a hub base URL and access
// token. A rejection carries the remote's verbatim reason for the
// operator to act on; it is not interpreted here.
func (c *Client) PushCredentials(ctx context.Context, host string, port int, baseURL, token string) error {
	body := credentialsRequest{URL: baseURL, Token: token}

	var result models.CredentialsResult

	status, err := c.requestJSON(
		ctx, http.MethodPost, endpoint(host, port, "/api/ha/credentials"), &body, &result, credentialsTimeout)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	if status >= http.StatusBadRequest {
		return fmt.Errorf("%w: credentials push returned %d", ErrUnreachable, status)
	}

	if !result.OK {
		return fmt.Errorf("%w: %s", ErrCredentialsRejected, result.Reason)
	}

	return nil
}

// Ping probes the companion app's HTTP liveness endpoint. Fallback only;
// the primary liveness probe is the bus-level ping.
func (c *Client) Ping(ctx context.Context, host string, port int) bool {
	status, err := c.requestJSON(ctx, http.MethodGet, endpoint(host, port, "/api/ping"), nil, nil, pingTimeout)

	return err == nil && status < http.StatusBadRequest
}

// requestJSON performs one JSON round trip. A non-nil error means the
// exchange itself failed (transport, encode, decode); HTTP status
// classification is the caller's business.
func (c *Client) requestJSON(
	ctx context.Context, method, url string, body, out any, timeout time.Duration,
) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody *bytes.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}

		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Str("method", method).Str("url", url).
			Dur("elapsed", time.Since(start)).Err(err).Msg("HTTP request failed")

		return 0, err
	}

	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug().Str("method", method).Str("url", url).
		Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("HTTP request completed")

	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

func endpoint(host string, port int, path string) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + path
}

// maskCode hides a transient pairing code in logs: "D3D4" -> "D***4".
func maskCode(code string) string {
	if code == "" {
		return "<none>"
	}

	return code[:1] + "***" + code[len(code)-1:]
}

// maskSID hides a pairing session id in logs: "jGvjjfZyyH" -> "jGv***yH".
func maskSID(sid string) string {
	if sid == "" {
		return "<none>"
	}

	if len(sid) <= 4 {
		return "***"
	}

	return sid[:3] + "***" + sid[len(sid)-2:]
}

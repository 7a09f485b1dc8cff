// Package notify builds push payloads for new matches, sends them through the
// Expo push API, and records the delivery outcome.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	expoPushURL = "https://exp.host/--/api/v2/push/send"
	httpTimeout = 15 * time.Second
)

// Payload is the provider-agnostic shape of one push message.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Receipt is the provider's verdict on one send. Provider-side rejections
// (expired token, unregistered device, malformed token) are data on the
// receipt, never Go errors; only transport problems error out of Send.
type Receipt struct {
	Delivered bool
	Code      string // provider status, e.g. "ok", "DeviceNotRegistered"
	Message   string
}

// ExpoClient sends push notifications through the Expo push service. An
// empty AccessToken is fine for unauthenticated projects; when set it is
// passed as a bearer token.
type ExpoClient struct {
	AccessToken string
	BaseURL     string
	client      *http.Client
}

// NewExpoClient constructs a client with a shared HTTP client.
func NewExpoClient(accessToken string) *ExpoClient {
	return &ExpoClient{
		AccessToken: accessToken,
		BaseURL:     expoPushURL,
		client:      &http.Client{Timeout: httpTimeout},
	}
}

type expoRequest struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound,omitempty"`
}

type expoResponse struct {
	Data struct {
		Status  string `json:"status"` // "ok" or "error"
		ID      string `json:"id"`
		Message string `json:"message"`
		Details struct {
			Error string `json:"error"` // e.g. "DeviceNotRegistered"
		} `json:"details"`
	} `json:"data"`
}

// Send delivers one push message to token. A Receipt with Delivered=false is
// a normal outcome; the returned error is non-nil only when the provider
// could not be reached or answered garbage.
func (c *ExpoClient) Send(ctx context.Context, token string, payload Payload) (Receipt, error) {
	if token == "" {
		return Receipt{Code: "EmptyToken", Message: "no push token on target"}, nil
	}

	body, err := json.Marshal(expoRequest{
		To:    token,
		Title: payload.Title,
		Body:  payload.Body,
		Data:  payload.Data,
		Sound: "default",
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("http POST: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Receipt{}, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// The provider answered; a 4xx/5xx here is its verdict, not ours.
		return Receipt{
			Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message: truncate(string(respBody), 500),
		}, nil
	}

	var apiResp expoResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return Receipt{}, fmt.Errorf("json unmarshal: %w", err)
	}

	if apiResp.Data.Status == "ok" {
		return Receipt{Delivered: true, Code: "ok", Message: apiResp.Data.ID}, nil
	}
	code := apiResp.Data.Details.Error
	if code == "" {
		code = "ProviderError"
	}
	return Receipt{Code: code, Message: apiResp.Data.Message}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

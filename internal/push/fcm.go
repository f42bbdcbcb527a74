// Package push delivers alert notifications through Firebase Cloud Messaging.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/farm-weather-alerts/internal/common"
	"github.com/i474232898/farm-weather-alerts/internal/i18n"
)

// MessageType tags every alert payload so the app can route it.
const MessageType = "weather_alert"

// ErrDeliveryFailed is returned when the push provider rejects a message.
var ErrDeliveryFailed = errors.New("push delivery failed")

var errNoServerKey = errors.New("fcm server key is not configured")

// FCMClient sends high-priority notifications with the FCM legacy HTTP API.
type FCMClient struct {
	baseURL   string
	serverKey string
	client    *http.Client
	circuit   *gobreaker.CircuitBreaker
}

func NewFCMClient(client *http.Client, serverKey string) *FCMClient {
	return &FCMClient{
		baseURL:   "https://fcm.googleapis.com/fcm/send",
		serverKey: serverKey,
		client:    client,
		circuit:   common.NewBreaker("fcm"),
	}
}

type fcmRequest struct {
	To           string               `json:"to"`
	Priority     string               `json:"priority"`
	Notification i18n.RenderedMessage `json:"notification"`
	Data         map[string]string    `json:"data"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

// Send delivers msg to a single device token. category travels in the data
// payload next to the fixed type tag.
func (c *FCMClient) Send(ctx context.Context, token string, msg i18n.RenderedMessage, category string) error {
	if c.serverKey == "" {
		return errNoServerKey
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: empty device token", ErrDeliveryFailed)
	}

	body, err := json.Marshal(fcmRequest{
		To:           token,
		Priority:     "high",
		Notification: msg,
		Data: map[string]string{
			"type":     MessageType,
			"category": category,
		},
	})
	if err != nil {
		return fmt.Errorf("encode fcm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := common.DoRequest(ctx, c.client, c.circuit, req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	var out fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// A 2xx without a parsable body is treated as accepted.
		return nil
	}
	if out.Failure > 0 {
		reason := "unknown"
		if len(out.Results) > 0 && out.Results[0].Error != "" {
			reason = out.Results[0].Error
		}
		return fmt.Errorf("%w: %s", ErrDeliveryFailed, reason)
	}
	return nil
}

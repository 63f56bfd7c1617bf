package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// SMSGateway sends messages through a JSON-over-HTTP SMS gateway.
type SMSGateway struct {
	client   *http.Client
	url      string
	apiKey   string
	senderID string
}

// NewSMSGatewayFromEnv builds the gateway client from SMS_GATEWAY_URL,
// SMS_GATEWAY_API_KEY and SMS_SENDER_ID. Returns nil when no gateway URL
// is configured, which the dispatcher treats as a no-op provider.
func NewSMSGatewayFromEnv() *SMSGateway {
	url := os.Getenv("SMS_GATEWAY_URL")
	if url == "" {
		return nil
	}
	return &SMSGateway{
		client:   &http.Client{Timeout: 15 * time.Second},
		url:      url,
		apiKey:   os.Getenv("SMS_GATEWAY_API_KEY"),
		senderID: os.Getenv("SMS_SENDER_ID"),
	}
}

type smsPayload struct {
	To       string `json:"to"`
	Message  string `json:"message"`
	SenderID string `json:"sender_id,omitempty"`
}

func (g *SMSGateway) SendSMS(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(smsPayload{To: to, Message: body, SenderID: g.senderID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

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

// gatewayMessage is the wire shape posted to the push and SMS gateways
type gatewayMessage struct {
	RecipientID uint    `json:"recipient_id"`
	Payload     Payload `json:"payload"`
}

// HTTPSender posts payloads to an external notification gateway. The
// same implementation serves both channels; only the gateway URL
// differs. Transport errors are returned verbatim, without classifying
// permanent versus transient failures.
type HTTPSender struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSender creates a sender targeting the given gateway URL
func NewHTTPSender(baseURL string) *HTTPSender {
	return &HTTPSender{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Send implements Sender
func (s *HTTPSender) Send(ctx context.Context, recipientID uint, payload Payload) error {
	body, err := json.Marshal(gatewayMessage{RecipientID: recipientID, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

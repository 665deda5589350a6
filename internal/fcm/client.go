package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrMissingServerKey = errors.New("FCM server key is not configured")
	// ErrUnregistered means the token is gone for good and should be
	// deactivated.
	ErrUnregistered = errors.New("push token is no longer registered")
)

type Client struct {
	endpoint   string
	serverKey  string
	httpClient *http.Client
}

type Notification struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	Icon               string `json:"icon,omitempty"`
	Badge              string `json:"badge,omitempty"`
	Tag                string `json:"tag,omitempty"`
	RequireInteraction bool   `json:"requireInteraction"`
	ClickAction        string `json:"click_action,omitempty"`
}

// Message is the legacy HTTP payload without its target.
type Message struct {
	Notification Notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type sendRequest struct {
	To string `json:"to"`
	Message
}

type sendResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

func NewClient(endpoint, serverKey string) *Client {
	return &Client{
		endpoint:  endpoint,
		serverKey: serverKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether a server key is set.
func (c *Client) Configured() bool {
	return c.serverKey != ""
}

// Send delivers msg to a single registration token and returns the message id.
func (c *Client) Send(ctx context.Context, token string, msg Message) (string, error) {
	if c.serverKey == "" {
		return "", ErrMissingServerKey
	}

	jsonData, err := json.Marshal(sendRequest{To: token, Message: msg})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "key="+c.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("FCM API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result sendResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(result.Results) == 0 {
		return "", fmt.Errorf("FCM returned no result")
	}

	switch r := result.Results[0]; r.Error {
	case "":
		return r.MessageID, nil
	case "NotRegistered", "InvalidRegistration", "MismatchSenderId":
		return "", fmt.Errorf("%w: %s", ErrUnregistered, r.Error)
	default:
		return "", fmt.Errorf("FCM delivery error: %s", r.Error)
	}
}

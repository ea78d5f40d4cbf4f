// Package botclient talks to the remote conversation service.
package botclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"bazachat/internal/models"
)

// Sender delivers one chat payload to the remote conversation service.
// Any non-2xx response or transport error is reported as an error.
type Sender interface {
	Send(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

// Client is the resty-backed Sender for the real backend.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a conversation service client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("conversation service baseURL cannot be empty")
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json; charset=utf-8").
		SetTimeout(timeout)

	log.Info().Str("baseURL", baseURL).Dur("timeout", timeout).Msg("Conversation service client configured")

	return &Client{httpClient: httpClient}, nil
}

// Send posts the payload to /chat and decodes the reply.
func (c *Client) Send(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&models.ChatResponse{}).
		Post("/chat")

	if err != nil {
		log.Error().Err(err).Str("recipientID", req.RecipientID).Msg("Conversation service request failed")
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	if resp.IsError() {
		log.Error().
			Int("statusCode", resp.StatusCode()).
			Str("responseBody", string(resp.Body())).
			Str("recipientID", req.RecipientID).
			Msg("Conversation service returned an error")
		return nil, fmt.Errorf("chat request error: status %s, body: %s", resp.Status(), resp.String())
	}

	return resp.Result().(*models.ChatResponse), nil
}

package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arsmn/go-smsir/smsir"

	"github.com/Alijeyrad/medcenter_backend/config"
)

var (
	ErrMissingAPIKey   = errors.New("sms: api key required when sms is enabled")
	ErrMissingTemplate = errors.New("sms: template id required when sms is enabled")
	ErrInvalidInput    = errors.New("sms: invalid input")
)

type sendFunc func(ctx context.Context, req *smsir.UltraFastSendRequest) error

// Client sends templated codes through sms.ir. A disabled client accepts
// every call and sends nothing.
type Client struct {
	send       sendFunc
	templateID string
	enabled    bool
}

func NewFromConfig(cfg config.SMSConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{}, nil
	}

	if cfg.SMSIR.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(cfg.SMSIR.TemplateID) == "" {
		return nil, ErrMissingTemplate
	}

	client := smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey)

	return &Client{
		send: func(ctx context.Context, req *smsir.UltraFastSendRequest) error {
			_, err := client.Verification.UltraFastSend(ctx, req)
			return err
		},
		templateID: cfg.SMSIR.TemplateID,
		enabled:    true,
	}, nil
}

// SendCode delivers code to phone using the configured template, which must
// declare a "code" parameter.
func (c *Client) SendCode(ctx context.Context, phone, code string) error {
	if !c.enabled {
		return nil
	}

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("%w: phone number is required", ErrInvalidInput)
	}
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	req := &smsir.UltraFastSendRequest{
		Mobile:     phone,
		TemplateID: c.templateID,
		Parameters: []smsir.UltraFastParameter{
			{Key: "code", Value: code},
		},
	}

	if err := c.send(ctx, req); err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}

	return nil
}

func (c *Client) IsEnabled() bool {
	return c.enabled
}

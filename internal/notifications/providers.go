package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"tabour/pkg/logger"
)

// Provider is the actual SMS gateway behind the worker. The real
// gateway is an external contract; the kinds below cover local
// development and testing.
type Provider interface {
	Send(ctx context.Context, phone, message string) error
}

func NewProvider(kind string, log *logger.Logger) Provider {
	switch kind {
	case "", "stub", "log":
		return logProvider{logger: log}
	case "noop":
		return noopProvider{}
	case "fail":
		return failProvider{}
	case "webhook":
		url := os.Getenv("SMS_WEBHOOK_URL")
		token := os.Getenv("SMS_WEBHOOK_TOKEN")
		if url == "" {
			return logProvider{logger: log}
		}
		return webhookProvider{url: url, token: token}
	default:
		return logProvider{logger: log}
	}
}

type logProvider struct {
	logger *logger.Logger
}

func (p logProvider) Send(ctx context.Context, phone, message string) error {
	p.logger.WithFields(map[string]interface{}{
		"phone":   phone,
		"message": message,
	}).Info("sms delivered (log provider)")
	return nil
}

type noopProvider struct{}

func (noopProvider) Send(ctx context.Context, phone, message string) error {
	return nil
}

type failProvider struct{}

func (failProvider) Send(ctx context.Context, phone, message string) error {
	return errors.New("provider failure")
}

type webhookProvider struct {
	url   string
	token string
}

func (p webhookProvider) Send(ctx context.Context, phone, message string) error {
	payload := map[string]string{
		"phone":   phone,
		"message": message,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("provider rejected request")
	}
	return nil
}

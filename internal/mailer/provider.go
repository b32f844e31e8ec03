package mailer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	resendAPIURL   = "https://api.resend.com"
	sendgridAPIURL = "https://api.sendgrid.com"
)

var ErrAPIKeyRequired = errors.New("provider API key not configured")

// Email is one outbound message. HTML is required; Text is optional.
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// SendResult reports which provider accepted the message.
type SendResult struct {
	MessageID string
	Provider  string
}

type Provider interface {
	Name() string
	Send(email *Email) (*SendResult, error)
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// ResendProvider posts to the Resend transactional API.
type ResendProvider struct {
	APIKey string
	APIURL string
}

func NewResendProvider(apiKey string) *ResendProvider {
	return &ResendProvider{APIKey: apiKey, APIURL: resendAPIURL}
}

func (p *ResendProvider) Name() string { return "resend" }

func (p *ResendProvider) Send(email *Email) (*SendResult, error) {
	if p.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	payload := map[string]interface{}{
		"from":    email.From,
		"to":      email.To,
		"subject": email.Subject,
		"html":    email.HTML,
	}
	if email.Text != "" {
		payload["text"] = email.Text
	}

	body, err := postJSON(p.APIURL+"/emails", p.APIKey, payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse resend response: %w", err)
	}

	return &SendResult{MessageID: result.ID, Provider: p.Name()}, nil
}

// SendGridProvider posts to the SendGrid v3 mail API.
type SendGridProvider struct {
	APIKey string
	APIURL string
}

func NewSendGridProvider(apiKey string) *SendGridProvider {
	return &SendGridProvider{APIKey: apiKey, APIURL: sendgridAPIURL}
}

func (p *SendGridProvider) Name() string { return "sendgrid" }

func (p *SendGridProvider) Send(email *Email) (*SendResult, error) {
	if p.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	toList := make([]map[string]string, len(email.To))
	for i, addr := range email.To {
		toList[i] = map[string]string{"email": addr}
	}

	content := []map[string]string{
		{"type": "text/html", "value": email.HTML},
	}
	if email.Text != "" {
		// SendGrid requires text/plain before text/html.
		content = append([]map[string]string{{"type": "text/plain", "value": email.Text}}, content...)
	}

	payload := map[string]interface{}{
		"personalizations": []map[string]interface{}{{"to": toList}},
		"from":             map[string]string{"email": email.From},
		"subject":          email.Subject,
		"content":          content,
	}

	if _, err := postJSON(p.APIURL+"/v3/mail/send", p.APIKey, payload); err != nil {
		return nil, err
	}
	return &SendResult{Provider: p.Name()}, nil
}

func postJSON(url, apiKey string, payload map[string]interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

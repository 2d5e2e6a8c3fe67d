package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// metaPayload mirrors the Meta WhatsApp Business webhook envelope, down to
// the single message the assistant cares about.
type metaPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					From string `json:"from"`
					ID   string `json:"id"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseMetaPayload extracts the first text message from a Meta webhook body.
// Status-only notifications (no messages) return false.
func ParseMetaPayload(data []byte) (Inbound, bool) {
	var payload metaPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Inbound{}, false
	}
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return Inbound{}, false
	}
	value := payload.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return Inbound{}, false
	}
	msg := value.Messages[0]
	if strings.TrimSpace(msg.From) == "" {
		return Inbound{}, false
	}

	in := Inbound{
		From:      msg.From,
		To:        value.Metadata.PhoneNumberID,
		Body:      msg.Text.Body,
		MessageID: msg.ID,
		Provider:  ProviderMeta,
	}
	if len(value.Contacts) > 0 {
		in.ProfileName = value.Contacts[0].Profile.Name
	}
	return in, true
}

// MetaConfig holds Graph API credentials for outbound sends.
type MetaConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
}

// MetaSender delivers messages through the Meta Graph API.
type MetaSender struct {
	cfg    MetaConfig
	client *http.Client
}

func NewMetaSender(cfg MetaConfig) *MetaSender {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://graph.facebook.com/v18.0"
	}
	return &MetaSender{
		cfg: cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SendText posts a text message to the recipient through the Graph API.
func (s *MetaSender) SendText(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("graph api status %d: %s", res.StatusCode, string(detail))
	}
	return nil
}

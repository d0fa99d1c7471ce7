package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Sender posts rendered messages to a Brevo-compatible transactional email
// endpoint. An empty API key puts the sender in dry-run mode: the message is
// logged and reported as delivered, which keeps dev setups working without
// an account.
type Sender struct {
	APIURL    string
	APIKey    string
	FromName  string
	FromEmail string
	Client    *http.Client
}

func NewSender(apiURL, apiKey, fromName, fromEmail string) *Sender {
	return &Sender{
		APIURL:    apiURL,
		APIKey:    apiKey,
		FromName:  fromName,
		FromEmail: fromEmail,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	Sender      party   `json:"sender"`
	To          []party `json:"to"`
	Subject     string  `json:"subject"`
	HTMLContent string  `json:"htmlContent"`
}

type party struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Send delivers one message. Callers treat errors as non-fatal.
func (s *Sender) Send(ctx context.Context, to, subject, html string) error {
	if s.APIKey == "" {
		log.Printf("email: dry-run delivery to %s subject=%q", to, subject)
		return nil
	}
	body, err := json.Marshal(sendRequest{
		Sender:      party{Name: s.FromName, Email: s.FromEmail},
		To:          []party{{Email: to}},
		Subject:     subject,
		HTMLContent: html,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email api %s: %s", resp.Status, msg)
	}
	log.Printf("email: sent to %s subject=%q", to, subject)
	return nil
}

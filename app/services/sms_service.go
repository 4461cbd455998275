// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/appform-bd/cardapply/config"
	"github.com/appform-bd/cardapply/utils"
)

// SMSService handles SMS sending operations
type SMSService interface {
	SendOTP(ctx context.Context, recipient, message string, applicationID *int64) error
	SendSMS(ctx context.Context, recipient, message string, applicationID *int64) error
	SendBulk(ctx context.Context, recipients []string, message string, applicationID *int64) error
}

// SMSServiceImpl implements SMSService
type SMSServiceImpl struct {
	config *config.SMSConfig
	client *http.Client
}

// SMSRequest represents the request payload for the SMS gateway API
type SMSRequest struct {
	SrcNum         string `json:"srcNum"`                // Format: 880**********
	Recipient      string `json:"recipient"`             // Format: 880**********
	Body           string `json:"body"`                  // Message content
	ReferenceID    *int64 `json:"referenceId,omitempty"` // Optional application reference
	RetryCount     int    `json:"retryCount"`            // Number of retries
	Type           int    `json:"type"`                  // Always 1
	ValidityPeriod int    `json:"validityPeriod"`        // Validity in seconds
}

// SMSResponse represents individual message result from the SMS gateway API
type SMSResponse struct {
	MessageID   int64  `json:"messageId"`
	SrcNum      string `json:"srcNum"`
	Recipient   string `json:"recipient"`
	ReferenceID *int64 `json:"referenceId,omitempty"`
	Status      string `json:"status"`
	StatusCode  int    `json:"statusCode"`
}

// NewSMSService creates a new SMS service instance
func NewSMSService(cfg *config.SMSConfig) SMSService {
	return &SMSServiceImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SendOTP sends an OTP message via SMS
func (s *SMSServiceImpl) SendOTP(ctx context.Context, recipient, message string, applicationID *int64) error {
	return s.SendSMS(ctx, recipient, message, applicationID)
}

// SendSMS sends an SMS message
func (s *SMSServiceImpl) SendSMS(ctx context.Context, recipient, message string, applicationID *int64) error {
	return s.SendBulk(ctx, []string{recipient}, message, applicationID)
}

// SendBulk sends an SMS message to multiple recipients in a single API call (batch)
func (s *SMSServiceImpl) SendBulk(ctx context.Context, recipients []string, message string, applicationID *int64) error {
	if len(recipients) == 0 {
		return nil
	}
	requests := make([]SMSRequest, 0, len(recipients))
	for _, r := range recipients {
		requests = append(requests, SMSRequest{
			SrcNum:         s.config.SourceNumber,
			Recipient:      toInternationalMobile(r),
			Body:           message,
			ReferenceID:    applicationID,
			RetryCount:     s.config.RetryCount,
			Type:           1,
			ValidityPeriod: s.config.ValidityPeriod,
		})
	}

	requestBody, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("failed to marshal SMS bulk request: %w", err)
	}

	url := fmt.Sprintf("https://%s/api/v3.0.1/send", s.config.ProviderDomain)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS bulk request: %w", err)
	}
	defer resp.Body.Close()

	var results []SMSResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return fmt.Errorf("failed to decode SMS bulk response: %w", err)
	}
	for _, r := range results {
		if r.StatusCode != 200 || r.Status != "ACCEPTED" {
			return fmt.Errorf("SMS delivery failed for %s: %s (%d)", r.Recipient, r.Status, r.StatusCode)
		}
	}
	return nil
}

// toInternationalMobile converts a local 01XXXXXXXXX number to the 880-prefixed
// form the gateway expects. Already-prefixed numbers pass through unchanged.
func toInternationalMobile(mobile string) string {
	if len(mobile) == 11 && mobile[:2] == "01" {
		return "88" + mobile
	}
	return mobile
}

// MockSMSService implements SMSService for testing
type MockSMSService struct {
	SentMessages []MockSMSMessage
}

// MockSMSMessage represents a mock SMS message
type MockSMSMessage struct {
	Recipient   string
	Message     string
	ReferenceID *int64
	SentAt      time.Time
}

// NewMockSMSService creates a new mock SMS service
func NewMockSMSService() SMSService {
	return &MockSMSService{
		SentMessages: make([]MockSMSMessage, 0),
	}
}

// SendOTP sends a mock OTP message
func (m *MockSMSService) SendOTP(ctx context.Context, recipient, message string, applicationID *int64) error {
	return m.SendSMS(ctx, recipient, message, applicationID)
}

// SendSMS sends a mock SMS message
func (m *MockSMSService) SendSMS(ctx context.Context, recipient, message string, applicationID *int64) error {
	return m.SendBulk(ctx, []string{recipient}, message, applicationID)
}

func (m *MockSMSService) SendBulk(ctx context.Context, recipients []string, message string, applicationID *int64) error {
	for _, r := range recipients {
		mockMessage := MockSMSMessage{
			Recipient:   r,
			Message:     message,
			ReferenceID: applicationID,
			SentAt:      utils.UTCNow(),
		}
		fmt.Println("Mock SMS message sent:", mockMessage)
		m.SentMessages = append(m.SentMessages, mockMessage)
	}
	return nil
}

// GetSentMessages returns all sent mock messages
func (m *MockSMSService) GetSentMessages() []MockSMSMessage {
	return m.SentMessages
}

// ClearSentMessages clears the sent messages list
func (m *MockSMSService) ClearSentMessages() {
	m.SentMessages = make([]MockSMSMessage, 0)
}

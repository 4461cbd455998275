// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"fmt"
	"log"
)

// NotificationService handles sending notifications to applicants via SMS
type NotificationService interface {
	SendSMS(mobile, message string) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	smsProvider SMSProvider
}

// SMSProvider interface for SMS sending
type SMSProvider interface {
	SendSMS(mobile, message string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(smsProvider SMSProvider) NotificationService {
	return &NotificationServiceImpl{
		smsProvider: smsProvider,
	}
}

// SendSMS sends an SMS message to the specified mobile number
func (s *NotificationServiceImpl) SendSMS(mobile, message string) error {
	if s.smsProvider == nil {
		return fmt.Errorf("SMS provider not configured")
	}

	// Validate mobile format: 11-digit local numbers starting with 01
	if len(mobile) != 11 || mobile[:2] != "01" {
		return fmt.Errorf("invalid mobile number format: %s", mobile)
	}

	return s.smsProvider.SendSMS(mobile, message)
}

// GatewaySMSProvider bridges the notification service to the SMS gateway client
type GatewaySMSProvider struct {
	smsService SMSService
}

// NewGatewaySMSProvider creates a provider backed by the configured SMS gateway
func NewGatewaySMSProvider(smsService SMSService) SMSProvider {
	return &GatewaySMSProvider{smsService: smsService}
}

func (p *GatewaySMSProvider) SendSMS(mobile, message string) error {
	return p.smsService.SendSMS(context.Background(), mobile, message, nil)
}

type MockSMSProvider struct{}

func NewMockSMSProvider() SMSProvider {
	return &MockSMSProvider{}
}

func (p *MockSMSProvider) SendSMS(mobile, message string) error {
	log.Printf("SMS sent to %s: %s", mobile, message)
	return nil
}

package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Sender delivers one text message and returns the gateway's message id.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// TwilioSender posts to the Twilio Messages API.
type TwilioSender struct {
	httpClient *resty.Client
	accountSID string
	from       string
	logger     *zap.Logger
}

type TwilioOptions struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	Timeout    time.Duration
	RetryCount int
}

func NewTwilioSender(opts TwilioOptions, logger *zap.Logger) *TwilioSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetBasicAuth(opts.AccountSID, opts.AuthToken).
		SetHeader("Accept", "application/json")

	return &TwilioSender{
		httpClient: client,
		accountSID: opts.AccountSID,
		from:       opts.From,
		logger:     logger,
	}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	var (
		result  twilioMessage
		failure twilioError
	)
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   to,
			"From": s.from,
			"Body": body,
		}).
		SetResult(&result).
		SetError(&failure).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", s.accountSID))
	if err != nil {
		return "", fmt.Errorf("send sms: %w", err)
	}
	if resp.IsError() {
		s.logger.Warn("sms rejected",
			zap.String("to", to),
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("code", failure.Code),
			zap.String("msg", failure.Message),
		)
		return "", fmt.Errorf("sms gateway error: %s (status: %d)", failure.Message, resp.StatusCode())
	}
	return result.SID, nil
}

package sms

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"parampara-foods/utils"
)

// Sender delivers a text message to an E.164 phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioSender struct {
	api  messageCreator
	from string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{api: client.Api, from: from}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	if msg != nil && msg.Sid != nil {
		utils.Zlog.Info("sms sent", zap.String("to", to), zap.String("sid", *msg.Sid))
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them. Used when
// Twilio is not configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, body string) error {
	utils.Zlog.Warn("sms delivery not configured, message logged only",
		zap.String("to", to), zap.String("body", body))
	return nil
}

// NewSender picks Twilio when credentials are present.
func NewSender(accountSID, authToken, from string) Sender {
	if accountSID == "" || authToken == "" || from == "" {
		return LogSender{}
	}
	return NewTwilioSender(accountSID, authToken, from)
}

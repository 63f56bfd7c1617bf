package provider

import (
	"context"
	"fmt"
)

// SMSSender is the minimal contract an SMS transport must satisfy.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EmailSender is the minimal contract an email transport must satisfy.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Dispatcher routes a message to the transport matching its channel.
// A nil transport means the provider is not configured; per the channel
// contract that is a silent no-op, not an error.
type Dispatcher struct {
	SMS   SMSSender
	Email EmailSender
}

// Send dispatches body to the given recipient. The bool reports whether a
// provider actually accepted the message; (false, nil) means the send was
// a no-op because the channel's provider is unconfigured.
func (d Dispatcher) Send(ctx context.Context, channel, to, subject, body string) (bool, error) {
	switch channel {
	case "sms":
		if d.SMS == nil {
			return false, nil
		}
		if err := d.SMS.SendSMS(ctx, to, body); err != nil {
			return false, err
		}
		return true, nil
	case "email":
		if d.Email == nil {
			return false, nil
		}
		if err := d.Email.SendEmail(ctx, to, subject, body); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported channel %q", channel)
	}
}

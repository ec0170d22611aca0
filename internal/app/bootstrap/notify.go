package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/wolfman30/clinic-scheduling-agent/internal/bookings"
	"github.com/wolfman30/clinic-scheduling-agent/internal/events"
	"github.com/wolfman30/clinic-scheduling-agent/internal/notify"
)

// buildNotifier returns nil when neither email nor the booking events queue is configured.
func (b *builder) buildNotifier(ctx context.Context) (bookings.Notifier, error) {
	var sender notify.EmailSender
	switch b.cfg.EmailProvider {
	case "", "none":
	case "sendgrid":
		sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    b.cfg.SendGridAPIKey,
			FromEmail: b.cfg.EmailFromAddress,
			FromName:  b.cfg.EmailFromName,
		}, b.logger)
		if sg == nil {
			return nil, fmt.Errorf("bootstrap: sendgrid api key is required")
		}
		sender = sg
	case "ses":
		awsCfg, err := b.aws(ctx)
		if err != nil {
			return nil, err
		}
		sender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: b.cfg.EmailFromAddress,
			FromName:  b.cfg.EmailFromName,
		}, b.logger)
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", b.cfg.EmailProvider)
	}

	var opts []notify.BookingNotifierOption
	if queueURL := strings.TrimSpace(b.cfg.BookingEventsQueueURL); queueURL != "" {
		awsCfg, err := b.aws(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, notify.WithPublisher(events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), queueURL)))
		b.logger.Info("booking events enabled", "queue_url", queueURL)
	}

	if sender == nil {
		if len(opts) == 0 {
			return nil, nil
		}
		sender = notify.NewStubEmailSender(b.logger)
	}
	opts = append(opts, notify.WithClinicName(b.cfg.EmailFromName))
	b.logger.Info("booking notifications enabled", "email_provider", b.cfg.EmailProvider)
	return notify.NewBookingNotifier(sender, b.logger.Component("notify"), opts...), nil
}

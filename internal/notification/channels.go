package notification

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RealtimeClient posts broadcasts to an external realtime service.
type RealtimeClient struct {
	poster *Poster
	url    string
}

// NewRealtimeClient creates a RealtimeClient posting to url.
func NewRealtimeClient(poster *Poster, url string) *RealtimeClient {
	return &RealtimeClient{poster: poster, url: url}
}

// Broadcast sends msg in one call.
func (c *RealtimeClient) Broadcast(ctx context.Context, msg BroadcastMessage) error {
	return c.poster.Post(ctx, c.url, msg)
}

// PushClient posts web-push notifications.
type PushClient struct {
	poster *Poster
	url    string
}

// NewPushClient creates a PushClient posting to url.
func NewPushClient(poster *Poster, url string) *PushClient {
	return &PushClient{poster: poster, url: url}
}

// SendPush delivers one push notification.
func (c *PushClient) SendPush(ctx context.Context, msg PushMessage) error {
	return c.poster.Post(ctx, c.url, msg)
}

// EmailClient posts rendered emails to the mail service.
type EmailClient struct {
	poster *Poster
	url    string
	from   string
}

// NewEmailClient creates an EmailClient. from fills messages that leave it empty.
func NewEmailClient(poster *Poster, url, from string) *EmailClient {
	return &EmailClient{poster: poster, url: url, from: from}
}

// SendEmail delivers one email.
func (c *EmailClient) SendEmail(ctx context.Context, msg EmailMessage) error {
	if msg.From == "" {
		msg.From = c.from
	}
	return c.poster.Post(ctx, c.url, msg)
}

// SMSClient posts text messages, throttled to the provider's rate.
type SMSClient struct {
	poster  *Poster
	url     string
	limiter *rate.Limiter
}

// NewSMSClient creates an SMSClient. perSecond <= 0 disables throttling.
func NewSMSClient(poster *Poster, url string, perSecond float64) *SMSClient {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond))
	}
	return &SMSClient{poster: poster, url: url, limiter: rate.NewLimiter(limit, burst)}
}

// SendSMS waits for a rate slot and delivers one message.
func (c *SMSClient) SendSMS(ctx context.Context, msg SMSMessage) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("sms rate limit wait: %w", err)
	}
	return c.poster.Post(ctx, c.url, msg)
}

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Deliverer hands a composed notification to the outside world and reports
// whether it was shown.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) (bool, error)
}

// LogDeliverer writes notifications to a logger. It always succeeds.
type LogDeliverer struct {
	Log zerolog.Logger
}

// Deliver implements Deliverer.
func (d LogDeliverer) Deliver(_ context.Context, n Notification) (bool, error) {
	d.Log.Info().
		Str("title", n.Title).
		Str("priority", string(n.Priority)).
		Strs("actions", n.Actions).
		Msg(n.Body)
	return true, nil
}

// Webhook POSTs notifications as JSON to a URL.
type Webhook struct {
	url    string
	client *resty.Client
}

// NewWebhook returns a deliverer posting to url.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Webhook{
		url: url,
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

// Deliver implements Deliverer.
func (w *Webhook) Deliver(ctx context.Context, n Notification) (bool, error) {
	resp, err := w.client.R().SetContext(ctx).SetBody(n).Post(w.url)
	if err != nil {
		return false, fmt.Errorf("notify: webhook: %w", err)
	}
	if !resp.IsSuccess() {
		return false, fmt.Errorf("notify: webhook status %d", resp.StatusCode())
	}
	return true, nil
}

// Multi fans out to every deliverer and succeeds if any of them did.
type Multi []Deliverer

// Deliver implements Deliverer.
func (m Multi) Deliver(ctx context.Context, n Notification) (bool, error) {
	var firstErr error
	delivered := false
	for _, d := range m {
		ok, err := d.Deliver(ctx, n)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		delivered = delivered || ok
	}
	if delivered {
		return true, nil
	}
	return false, firstErr
}

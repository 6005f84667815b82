package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	calendarapp "rental-calendar/internal/calendar/application"
	calendar "rental-calendar/internal/calendar/domain"
)

const webhookTimeout = 10 * time.Second

// WebhookNotifier forwards reschedules to the booking backend as PATCH /bookings/{id}.
// Deliveries run in the background so a slow backend never delays the reschedule.
type WebhookNotifier struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
	wg      sync.WaitGroup
}

type patchPayload struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// NewWebhookNotifier constructs a notifier.
func NewWebhookNotifier(baseURL string, logger *log.Logger) (*WebhookNotifier, error) {
	if baseURL == "" {
		return nil, errors.New("webhook notifier: empty url")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &WebhookNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: webhookTimeout},
		logger:  logger,
	}, nil
}

// Notify queues the patch and returns immediately. Failures are logged.
// The delivery outlives the caller's request context.
func (n *WebhookNotifier) Notify(ctx context.Context, event calendarapp.BookingRescheduled) {
	if n == nil {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), webhookTimeout)
		defer cancel()
		if err := n.send(sendCtx, event); err != nil {
			n.logger.Printf("webhook notifier: booking %s: %v", event.BookingID, err)
		}
	}()
}

// Wait blocks until queued deliveries finish.
func (n *WebhookNotifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

func (n *WebhookNotifier) send(ctx context.Context, event calendarapp.BookingRescheduled) error {
	body, err := json.Marshal(patchPayload{
		StartDate: calendar.FormatTimestamp(event.StartDate),
		EndDate:   calendar.FormatTimestamp(event.EndDate),
	})
	if err != nil {
		return err
	}
	target := n.baseURL + "/bookings/" + url.PathEscape(event.BookingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("non-2xx status %d", resp.StatusCode)
	}
	return nil
}

// Package webhook delivers history events to registered HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event names emitted by the history service.
const (
	EventDeleted  = "history.deleted"
	EventExported = "history.exported"
	EventSynced   = "history.synced"
)

const (
	defaultTimeout = 10 * time.Second
	queueSize      = 256
)

// Webhook is a registered delivery target.
type Webhook struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Events        []string   `json:"events"`
	CreatedAt     time.Time  `json:"created_at"`
	Enabled       bool       `json:"enabled"`
	Secret        string     `json:"-"`
	FailureCount  int        `json:"failure_count"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
}

// Payload is the JSON body posted to a webhook.
type Payload struct {
	Event     string         `json:"event"`
	EventID   string         `json:"event_id"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

type delivery struct {
	webhookID string
	payload   Payload
}

// Dispatcher queues events and posts them from a single worker started
// by Run. Trigger never blocks; events are dropped when the queue is full.
type Dispatcher struct {
	client *http.Client
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	webhooks map[string]*Webhook
	queue    chan delivery
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClient overrides the HTTP client used for deliveries.
func WithClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates an idle Dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   zap.NewNop(),
		now:      time.Now,
		webhooks: map[string]*Webhook{},
		queue:    make(chan delivery, queueSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds an enabled webhook for the given events.
func (d *Dispatcher) Register(url string, events []string, secret string) Webhook {
	w := &Webhook{
		ID:        uuid.NewString(),
		URL:       url,
		Events:    slices.Clone(events),
		CreatedAt: d.now().UTC(),
		Enabled:   true,
		Secret:    secret,
	}
	d.mu.Lock()
	d.webhooks[w.ID] = w
	d.mu.Unlock()
	d.logger.Info("registered webhook", zap.String("id", w.ID), zap.Strings("events", events))
	return *w
}

// Unregister removes a webhook and reports whether it existed.
func (d *Dispatcher) Unregister(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.webhooks[id]; !ok {
		return false
	}
	delete(d.webhooks, id)
	d.logger.Info("unregistered webhook", zap.String("id", id))
	return true
}

// Get returns a copy of the webhook with the given id.
func (d *Dispatcher) Get(id string) (Webhook, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.webhooks[id]
	if !ok {
		return Webhook{}, false
	}
	return *w, true
}

// List returns copies of all webhooks ordered by creation time.
func (d *Dispatcher) List() []Webhook {
	d.mu.Lock()
	out := make([]Webhook, 0, len(d.webhooks))
	for _, w := range d.webhooks {
		out = append(out, *w)
	}
	d.mu.Unlock()
	slices.SortFunc(out, func(a, b Webhook) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Trigger queues event for every enabled webhook subscribed to it.
func (d *Dispatcher) Trigger(event string, data map[string]any) {
	if d == nil {
		return
	}
	d.mu.Lock()
	var targets []string
	for id, w := range d.webhooks {
		if w.Enabled && slices.Contains(w.Events, event) {
			targets = append(targets, id)
		}
	}
	d.mu.Unlock()

	for _, id := range targets {
		p := Payload{
			Event:     event,
			EventID:   uuid.NewString(),
			Timestamp: d.now().UTC().Format(time.RFC3339Nano),
			Data:      data,
		}
		select {
		case d.queue <- delivery{webhookID: id, payload: p}:
		default:
			d.logger.Warn("webhook queue full, dropping event",
				zap.String("id", id), zap.String("event", event))
		}
	}
}

// Run delivers queued events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("webhook dispatcher started")
	defer d.logger.Info("webhook dispatcher stopped")
	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-d.queue:
			d.deliver(ctx, job)
		}
	}
}

// Flush delivers every event already queued, then returns. Short-lived
// processes call it before exiting so their events are not lost.
func (d *Dispatcher) Flush(ctx context.Context) {
	if d == nil {
		return
	}
	for {
		select {
		case job := <-d.queue:
			d.deliver(ctx, job)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job delivery) {
	d.mu.Lock()
	w, ok := d.webhooks[job.webhookID]
	var target Webhook
	if ok {
		target = *w
	}
	d.mu.Unlock()
	if !ok || !target.Enabled {
		return
	}

	err := d.send(ctx, target, job.payload)

	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok = d.webhooks[job.webhookID]
	if !ok {
		return
	}
	if err != nil {
		w.FailureCount++
		d.logger.Warn("webhook delivery failed", zap.String("id", w.ID), zap.Error(err))
		return
	}
	now := d.now().UTC()
	w.FailureCount = 0
	w.LastTriggered = &now
	d.logger.Debug("webhook delivered", zap.String("id", w.ID), zap.String("event", job.payload.Event))
}

func (d *Dispatcher) send(ctx context.Context, w Webhook, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", p.Event)
	req.Header.Set("X-Webhook-ID", w.ID)
	req.Header.Set("X-Event-ID", p.EventID)
	if w.Secret != "" {
		data, _ := json.Marshal(p.Data)
		req.Header.Set("X-Signature", Sign(w.Secret, p.EventID, p.Timestamp, data))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the X-Signature header: base64 HMAC-SHA256 of
// "<event id>.<timestamp>.<data json>" keyed by secret.
func Sign(secret, eventID, timestamp string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s.", eventID, timestamp)
	mac.Write(data)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

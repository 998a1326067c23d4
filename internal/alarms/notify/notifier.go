package notify

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	alarms "renewable-monitor/internal/alarms/domain"
)

// Notifier delivers alerts produced by one analysis pass.
type Notifier interface {
	Notify(ctx context.Context, alerts []alarms.Alert) error
}

// Channel delivers a single rendered alert.
type Channel interface {
	Send(ctx context.Context, alert alarms.Alert, content string) error
}

// Clock provides time for dedupe bookkeeping.
type Clock interface {
	Now() time.Time
}

// Dispatcher renders alerts and forwards them to a channel. Identical
// content for the same kind and source is suppressed inside the dedupe window.
type Dispatcher struct {
	channel      Channel
	template     *Template
	clock        Clock
	dedupeWindow time.Duration

	mu   sync.Mutex
	sent map[string]sendRecord
}

type sendRecord struct {
	at   time.Time
	hash string
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the default clock.
func WithClock(clock Clock) Option {
	return func(d *Dispatcher) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// WithDedupeWindow suppresses identical notifications within the window.
func WithDedupeWindow(window time.Duration) Option {
	return func(d *Dispatcher) {
		if window > 0 {
			d.dedupeWindow = window
		}
	}
}

// NewDispatcher constructs a dispatcher; a nil template uses DefaultTemplate.
func NewDispatcher(channel Channel, template *Template, opts ...Option) (*Dispatcher, error) {
	if channel == nil {
		return nil, errors.New("alert notifier: nil channel")
	}
	if template == nil {
		defaultTemplate, err := NewTemplate("")
		if err != nil {
			return nil, err
		}
		template = defaultTemplate
	}
	d := &Dispatcher{
		channel:  channel,
		template: template,
		clock:    systemClock{},
		sent:     make(map[string]sendRecord),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Notify renders and sends every alert. Failures do not stop the remaining
// alerts and are returned joined.
func (d *Dispatcher) Notify(ctx context.Context, alerts []alarms.Alert) error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, alert := range alerts {
		content, err := d.template.Render(alert)
		if err != nil {
			errs = append(errs, fmt.Errorf("render %s: %w", alert.Kind, err))
			continue
		}
		if !d.shouldSend(alert, content) {
			continue
		}
		if err := d.channel.Send(ctx, alert, content); err != nil {
			errs = append(errs, err)
			continue
		}
		d.markSent(alert, content)
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) shouldSend(alert alarms.Alert, content string) bool {
	if d.dedupeWindow <= 0 {
		return true
	}
	d.mu.Lock()
	record, ok := d.sent[notificationKey(alert)]
	d.mu.Unlock()
	if !ok {
		return true
	}
	return record.hash != hashContent(content) || d.clock.Now().Sub(record.at) >= d.dedupeWindow
}

func (d *Dispatcher) markSent(alert alarms.Alert, content string) {
	d.mu.Lock()
	d.sent[notificationKey(alert)] = sendRecord{
		at:   d.clock.Now().UTC(),
		hash: hashContent(content),
	}
	d.mu.Unlock()
}

func notificationKey(alert alarms.Alert) string {
	return string(alert.Kind) + "|" + string(alert.Source)
}

func hashContent(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:8])
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

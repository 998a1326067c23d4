package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	alarms "renewable-monitor/internal/alarms/domain"
	readings "renewable-monitor/internal/readings/domain"
)

var alertTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingChannel struct {
	mu       sync.Mutex
	contents []string
	err      error
}

func (c *recordingChannel) Send(_ context.Context, _ alarms.Alert, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.contents = append(c.contents, content)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func TestTemplateRender(t *testing.T) {
	tpl, err := NewTemplate("")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	got, err := tpl.Render(alarms.Alert{Kind: alarms.KindMalfunction, Source: readings.SourceWind, Message: "zero output", Timestamp: alertTime})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "[Malfunction] Wind at 2024-05-01T12:00:00Z: zero output"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	storage, err := tpl.Render(alarms.Alert{Kind: alarms.KindLowOutput, Message: "low", Timestamp: alertTime})
	if err != nil || !strings.Contains(storage, "Storage") {
		t.Fatalf("expected storage label, got %q (%v)", storage, err)
	}
	if _, err := NewTemplate("{{.Kind"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDispatcherDedupe(t *testing.T) {
	channel := &recordingChannel{}
	clock := &fixedClock{now: alertTime}
	d, err := NewDispatcher(channel, nil, WithClock(clock), WithDedupeWindow(time.Minute))
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	alert := alarms.Alert{Kind: alarms.KindHighOutput, Source: readings.SourceSolar, Message: "high", Timestamp: alertTime}

	if err := d.Notify(context.Background(), []alarms.Alert{alert, alert}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(channel.contents) != 1 {
		t.Fatalf("expected duplicate to be suppressed, got %d", len(channel.contents))
	}
	clock.now = clock.now.Add(2 * time.Minute)
	if err := d.Notify(context.Background(), []alarms.Alert{alert}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(channel.contents) != 2 {
		t.Fatalf("expected resend after window, got %d", len(channel.contents))
	}
}

func TestMultiNotifierJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordingChannel{}
	failing := &recordingChannel{err: boom}
	first, _ := NewDispatcher(failing, nil)
	second, _ := NewDispatcher(ok, nil)

	multi := NewMultiNotifier(first, nil, second)
	err := multi.Notify(context.Background(), []alarms.Alert{{Kind: alarms.KindLowOutput, Source: readings.SourceHydro, Timestamp: alertTime}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(ok.contents) != 1 {
		t.Fatalf("expected second notifier to still receive the alert")
	}
	if err := multi.Notify(context.Background(), nil); err != nil {
		t.Fatalf("expected nil for empty batch, got %v", err)
	}
}

func TestLogChannel(t *testing.T) {
	var buf bytes.Buffer
	d, err := NewDispatcher(NewLogChannel(log.New(&buf, "", 0)), nil)
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	if err := d.Notify(context.Background(), []alarms.Alert{{Kind: alarms.KindLowOutput, Source: readings.SourceSolar, Message: "low", Timestamp: alertTime}}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !strings.Contains(buf.String(), "alert: [LowOutput] Solar") {
		t.Fatalf("unexpected log %q", buf.String())
	}
}

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type publishCall struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	calls []publishCall
	err   error
}

func (p *fakePublisher) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	p.calls = append(p.calls, publishCall{topic: topic, qos: qos, payload: payload.([]byte)})
	return doneToken{err: p.err}
}

func TestMQTTChannelPublishes(t *testing.T) {
	publisher := &fakePublisher{}
	channel, err := NewMQTTChannel(publisher, "/plant/alerts/")
	if err != nil {
		t.Fatalf("channel: %v", err)
	}
	d, _ := NewDispatcher(channel, nil)
	alerts := []alarms.Alert{
		{Kind: alarms.KindMalfunction, Source: readings.SourceWind, Message: "zero", Timestamp: alertTime},
		{Kind: alarms.KindHighOutput, Message: "storage high", Timestamp: alertTime},
	}
	if err := d.Notify(context.Background(), alerts); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(publisher.calls) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(publisher.calls))
	}
	if publisher.calls[0].topic != "plant/alerts/wind/malfunction" || publisher.calls[0].qos != 1 {
		t.Fatalf("unexpected first publish %+v", publisher.calls[0])
	}
	if publisher.calls[1].topic != "plant/alerts/storage/highoutput" {
		t.Fatalf("unexpected storage topic %q", publisher.calls[1].topic)
	}
	var payload map[string]any
	if err := json.Unmarshal(publisher.calls[0].payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["kind"] != "Malfunction" || payload["source"] != "wind" || payload["content"] == "" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestMQTTChannelPublishError(t *testing.T) {
	boom := errors.New("broker down")
	channel, _ := NewMQTTChannel(&fakePublisher{err: boom}, "")
	err := channel.Send(context.Background(), alarms.Alert{Kind: alarms.KindLowOutput, Source: readings.SourceSolar}, "x")
	if !errors.Is(err, boom) {
		t.Fatalf("expected publish error, got %v", err)
	}
	if _, err := NewMQTTChannel(nil, ""); err == nil {
		t.Fatalf("expected nil publisher error")
	}
}

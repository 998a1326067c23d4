package notify

import (
	"context"
	"errors"

	alarms "renewable-monitor/internal/alarms/domain"
)

// MultiNotifier dispatches alerts to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier constructs a MultiNotifier.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify forwards alerts to all notifiers and joins their errors.
func (m *MultiNotifier) Notify(ctx context.Context, alerts []alarms.Alert) error {
	if m == nil || len(alerts) == 0 {
		return nil
	}
	var errs []error
	for _, notifier := range m.notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

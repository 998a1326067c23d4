package notify

import (
	"context"
	"log"

	alarms "renewable-monitor/internal/alarms/domain"
)

// LogChannel writes rendered alerts to a logger.
type LogChannel struct {
	logger *log.Logger
}

// NewLogChannel constructs a log channel; nil uses the standard logger.
func NewLogChannel(logger *log.Logger) *LogChannel {
	if logger == nil {
		logger = log.Default()
	}
	return &LogChannel{logger: logger}
}

// Send implements Channel.
func (c *LogChannel) Send(_ context.Context, _ alarms.Alert, content string) error {
	c.logger.Printf("alert: %s", content)
	return nil
}

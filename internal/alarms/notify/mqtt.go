package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	alarms "renewable-monitor/internal/alarms/domain"
)

const (
	DefaultTopicPrefix = "renewable/alerts"
	publishQoS         = 1
	publishTimeout     = 5 * time.Second
)

// Publisher is the subset of the paho client used for alerts.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// ConnectMQTT opens a paho client against the configured broker.
func ConnectMQTT(cfg MQTTConfig, logger *log.Logger) (mqtt.Client, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt: empty broker")
	}
	if logger == nil {
		logger = log.Default()
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Printf("mqtt connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", cfg.Broker, token.Error())
	}
	logger.Printf("mqtt connected to %s", cfg.Broker)
	return client, nil
}

// MQTTChannel publishes alerts as JSON to <prefix>/<source>/<kind>.
type MQTTChannel struct {
	publisher Publisher
	prefix    string
}

// NewMQTTChannel constructs an MQTT channel.
func NewMQTTChannel(publisher Publisher, prefix string) (*MQTTChannel, error) {
	if publisher == nil {
		return nil, errors.New("mqtt: nil publisher")
	}
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &MQTTChannel{publisher: publisher, prefix: prefix}, nil
}

type alertPayload struct {
	alarms.Alert
	Content string `json:"content"`
}

// Send implements Channel.
func (c *MQTTChannel) Send(ctx context.Context, alert alarms.Alert, content string) error {
	payload, err := json.Marshal(alertPayload{Alert: alert, Content: content})
	if err != nil {
		return fmt.Errorf("mqtt: marshal alert: %w", err)
	}
	topic := Topic(c.prefix, alert)
	token := c.publisher.Publish(topic, publishQoS, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("mqtt: publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, err)
	}
	return nil
}

// Topic builds the topic for an alert; storage alerts use "storage".
func Topic(prefix string, alert alarms.Alert) string {
	source := string(alert.Source)
	if source == "" {
		source = "storage"
	}
	return prefix + "/" + source + "/" + strings.ToLower(string(alert.Kind))
}

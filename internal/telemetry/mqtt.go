package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fermenstation/internal/config"
	"fermenstation/internal/logger"
	"fermenstation/internal/models"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttConnectRetries = 5
	mqttPublishTimeout = 5 * time.Second
	mqttQuiesceMillis  = 250
)

type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes snapshots as retained JSON messages.
type MQTTSink struct {
	pub    mqttPublisher
	client mqtt.Client
	topic  string
}

// NewMQTTSink connects to the broker, retrying with exponential backoff.
func NewMQTTSink(s config.TelemetrySettings, deviceID string, log *logger.Logger) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.MQTTBroker)
	opts.SetClientID(s.MQTTClientID)
	opts.SetUsername(s.MQTTUser)
	opts.SetPassword(s.MQTTPassword)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			if log != nil {
				log.Warnw("mqtt_connect_failed", "broker", s.MQTTBroker, "error", token.Error())
			}
			return token.Error()
		}
		return nil
	}, backoff.WithMaxRetries(bo, mqttConnectRetries-1))
	if err != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", s.MQTTBroker, err)
	}
	if log != nil {
		log.Infow("mqtt_connected", "broker", s.MQTTBroker)
	}
	return &MQTTSink{pub: client, client: client, topic: topicFor(s.MQTTTopic, deviceID)}, nil
}

func topicFor(pattern, deviceID string) string {
	if deviceID == "" {
		deviceID = "unassigned"
	}
	return fmt.Sprintf(pattern, deviceID)
}

func (m *MQTTSink) Publish(ctx context.Context, s models.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	token := m.pub.Publish(m.topic, 0, true, payload)

	wait := mqttPublishTimeout
	if dl, ok := ctx.Deadline(); ok {
		wait = time.Until(dl)
	}
	if !token.WaitTimeout(wait) {
		return fmt.Errorf("mqtt publish to %s: timed out", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", m.topic, err)
	}
	return nil
}

func (m *MQTTSink) Close() {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(mqttQuiesceMillis)
	}
}

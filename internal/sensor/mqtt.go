// v1
// internal/sensor/mqtt.go
package sensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Feed subscribes to the sensor node's MQTT topic and writes decoded reports
// through the store's validation path, exactly as the HTTP endpoint does.
type Feed struct {
	client mqtt.Client
	topic  string
	store  *Store
	log    *slog.Logger
}

// mqttReport mirrors the device's JSON payload. Pointers distinguish missing
// fields from zero values so partial payloads are rejected, not defaulted.
type mqttReport struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Motion      bool     `json:"motion"`
}

// NewFeed connects to the broker and prepares the subscription. An empty
// broker address is a configuration error; callers skip the feed entirely
// when MQTT is not in use.
func NewFeed(brokerAddr, topic string, store *Store, log *slog.Logger) (*Feed, error) {
	if strings.TrimSpace(brokerAddr) == "" {
		return nil, errors.New("broker address must not be empty")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("topic must not be empty")
	}
	if store == nil {
		return nil, errors.New("store must not be nil")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(brokerAddr).
		SetClientID("dogpose-backend").
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &Feed{client: client, topic: topic, store: store, log: log}, nil
}

// Start subscribes and begins feeding the store. Malformed payloads are
// logged and dropped without touching stored state.
func (f *Feed) Start() error {
	token := f.client.Subscribe(f.topic, 0, f.handle)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", f.topic, token.Error())
	}
	f.log.Info("mqtt_feed_started", slog.String("topic", f.topic))
	return nil
}

func (f *Feed) handle(_ mqtt.Client, msg mqtt.Message) {
	var rep mqttReport
	if err := json.Unmarshal(msg.Payload(), &rep); err != nil {
		f.log.Warn("mqtt_payload_invalid_json", slog.Any("err", err))
		return
	}
	if rep.Temperature == nil || rep.Humidity == nil {
		f.log.Warn("mqtt_payload_missing_fields", slog.String("topic", msg.Topic()))
		return
	}
	if _, err := f.store.Report(Reading{
		Temperature: *rep.Temperature,
		Humidity:    *rep.Humidity,
		Motion:      rep.Motion,
	}); err != nil {
		f.log.Warn("mqtt_report_rejected", slog.Any("err", err))
	}
}

// Stop unsubscribes and disconnects from the broker.
func (f *Feed) Stop() {
	if f == nil || f.client == nil {
		return
	}
	if token := f.client.Unsubscribe(f.topic); token.Wait() && token.Error() != nil {
		f.log.Warn("mqtt_unsubscribe_failed", slog.Any("err", token.Error()))
	}
	f.client.Disconnect(250)
	f.log.Info("mqtt_feed_stopped")
}

//go:build integration

package mqtt

import (
	"sync"
	"testing"
	"time"

	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/infrastructure/config"
)

// Integration tests require a running broker at 127.0.0.1:1883:
//
//	go test -tags integration ./internal/infrastructure/mqtt/

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "ryobi-gdo-test",
		},
		QoS:         1,
		TopicPrefix: "ryobi-test",
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestIntegration_ConnectAndClose(t *testing.T) {
	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestIntegration_PublishSubscribeRoundtrip(t *testing.T) {
	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := client.Topics().DeviceState("integration-dev", "door")

	var mu sync.Mutex
	var received []byte
	done := make(chan struct{})

	err = client.Subscribe(topic, 1, func(_ string, payload []byte) error {
		mu.Lock()
		received = payload
		mu.Unlock()
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := client.Publish(topic, []byte("open"), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for roundtrip message")
	}

	mu.Lock()
	defer mu.Unlock()
	if string(received) != "open" {
		t.Errorf("received = %q, want %q", received, "open")
	}
}

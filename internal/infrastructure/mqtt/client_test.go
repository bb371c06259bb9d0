package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// disconnectedClient returns a client that was never connected.
// Validation paths must reject operations before touching the network.
func disconnectedClient() *Client {
	return &Client{
		topics:        NewTopics("ryobi"),
		subscriptions: make(map[string]subscription),
	}
}

func TestPublish_EmptyTopic(t *testing.T) {
	c := disconnectedClient()
	if err := c.Publish("", []byte("x"), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
	}
}

func TestPublish_InvalidQoS(t *testing.T) {
	c := disconnectedClient()
	if err := c.Publish("ryobi/gd1/door/state", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish() error = %v, want ErrInvalidQoS", err)
	}
}

func TestPublish_OversizedPayload(t *testing.T) {
	c := disconnectedClient()
	payload := make([]byte, maxPayloadSize+1)
	err := c.Publish("ryobi/gd1/door/state", payload, 1, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestPublish_Disconnected(t *testing.T) {
	c := disconnectedClient()
	if err := c.Publish("ryobi/gd1/door/state", []byte("open"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{name: "empty topic", topic: "", qos: 1, handler: handler, wantErr: ErrInvalidTopic},
		{name: "invalid qos", topic: "ryobi/gd1/+/set", qos: 5, handler: handler, wantErr: ErrInvalidQoS},
		{name: "nil handler", topic: "ryobi/gd1/+/set", qos: 1, handler: nil, wantErr: ErrSubscribeFailed},
		{name: "disconnected", topic: "ryobi/gd1/+/set", qos: 1, handler: handler, wantErr: ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := disconnectedClient()
			err := c.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnsubscribe_EmptyTopic(t *testing.T) {
	c := disconnectedClient()
	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	c := disconnectedClient()
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheck_Cancelled(t *testing.T) {
	c := disconnectedClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestSubscriptionTracking(t *testing.T) {
	c := disconnectedClient()

	if got := c.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", got)
	}
	if c.HasSubscription("ryobi/gd1/+/set") {
		t.Error("HasSubscription() = true for untracked topic")
	}
}

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("ryobi")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "device state", got: topics.DeviceState("gd123", "door"), want: "ryobi/gd123/door/state"},
		{name: "device command", got: topics.DeviceCommand("gd123", "light"), want: "ryobi/gd123/light/set"},
		{name: "device command wildcard", got: topics.DeviceCommands("gd123"), want: "ryobi/gd123/+/set"},
		{name: "bridge status", got: topics.BridgeStatus(), want: "ryobi/bridge/status"},
		{name: "all device states", got: topics.AllDeviceStates(), want: "ryobi/+/+/state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("topic = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestNewTopics_EmptyPrefixFallsBack(t *testing.T) {
	topics := NewTopics("")
	if got := topics.BridgeStatus(); got != "ryobi/bridge/status" {
		t.Errorf("BridgeStatus() = %q, want default prefix", got)
	}
}

func TestStatusPayload(t *testing.T) {
	online := statusPayload("online", "")
	if !strings.Contains(online, `"status":"online"`) {
		t.Errorf("online payload missing status: %s", online)
	}
	if strings.Contains(online, "reason") {
		t.Errorf("online payload should not carry a reason: %s", online)
	}

	offline := statusPayload("offline", "graceful_shutdown")
	if !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload missing reason: %s", offline)
	}
}

package bridge

import (
	"testing"

	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/ryobi"
)

func TestEntitiesPublishRetainedState(t *testing.T) {
	bus := newFakeBus()
	entities := NewEntities(bus, "gdo-9", 1, nil)

	entities.Door.Update(ryobi.DoorClosing)
	entities.Light.Set(true)
	entities.BatteryLevel.Set(42)
	entities.Motion.Set(false)
	entities.Fan.Set(100)

	want := []busMessage{
		{topic: "ryobi/gdo-9/door/state", payload: "closing", retained: true},
		{topic: "ryobi/gdo-9/light/state", payload: "ON", retained: true},
		{topic: "ryobi/gdo-9/battery_level/state", payload: "42", retained: true},
		{topic: "ryobi/gdo-9/motion/state", payload: "OFF", retained: true},
		{topic: "ryobi/gdo-9/fan/state", payload: "100", retained: true},
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if len(bus.messages) != len(want) {
		t.Fatalf("published %d messages, want %d: %v", len(bus.messages), len(want), bus.messages)
	}
	for i, m := range want {
		if bus.messages[i] != m {
			t.Errorf("message[%d] = %+v, want %+v", i, bus.messages[i], m)
		}
	}
}

func TestEntitiesPublishDefaults(t *testing.T) {
	bus := newFakeBus()
	entities := NewEntities(bus, "gdo-9", 0, nil)
	entities.PublishDefaults()

	// Every entity announces itself before the first snapshot lands.
	topics := []string{
		"door", "light", "vacation", "park_assist", "inflator",
		"speaker", "motion", "safety", "battery_low", "mic",
		"battery_level", "wifi_rssi", "fan",
	}
	for _, name := range topics {
		got := bus.payloadsFor("ryobi/gdo-9/" + name + "/state")
		if len(got) != 1 || got[0] != "unknown" {
			t.Errorf("default %s payloads = %v, want [unknown]", name, got)
		}
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if len(bus.messages) != len(topics) {
		t.Errorf("published %d defaults, want %d", len(bus.messages), len(topics))
	}
}

package mqtt

import "fmt"

// Topic layout for the bridge.
//
// Per-device entity topics follow the flat scheme:
//
//	{prefix}/{deviceID}/{entity}/state   retained state published by the bridge
//	{prefix}/{deviceID}/{entity}/set     commands consumed by the bridge
//
// The bridge itself reports availability on {prefix}/bridge/status via a
// retained message plus an LWT for crash detection.

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "ryobi"

// Topics builds MQTT topics under a configured prefix.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct {
	prefix string
}

// NewTopics returns a Topics builder for the given prefix.
// An empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// DeviceState returns the retained state topic for one device entity.
//
// Example: ryobi/gd123/door/state
func (t Topics) DeviceState(deviceID, entity string) string {
	return fmt.Sprintf("%s/%s/%s/state", t.prefix, deviceID, entity)
}

// DeviceCommand returns the command topic for one device entity.
//
// Example: ryobi/gd123/light/set
func (t Topics) DeviceCommand(deviceID, entity string) string {
	return fmt.Sprintf("%s/%s/%s/set", t.prefix, deviceID, entity)
}

// DeviceCommands returns a wildcard pattern matching every command topic
// for one device.
//
// Pattern: ryobi/gd123/+/set
func (t Topics) DeviceCommands(deviceID string) string {
	return fmt.Sprintf("%s/%s/+/set", t.prefix, deviceID)
}

// BridgeStatus returns the bridge availability topic.
//
// Example: ryobi/bridge/status
func (t Topics) BridgeStatus() string {
	return fmt.Sprintf("%s/bridge/status", t.prefix)
}

// AllDeviceStates returns a wildcard pattern matching every device state topic.
//
// Pattern: ryobi/+/+/state
func (t Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/+/+/state", t.prefix)
}

// Package mqtt provides MQTT client connectivity for the Ryobi GDO bridge.
//
// This package manages:
//   - Connection to the local broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is the bridge's command bus: device entities publish retained state to
// per-device topics and consume commands from matching set topics. The bridge
// announces its own availability on a status topic with an LWT so subscribers
// can distinguish a crashed bridge from a stopped one.
//
// # Topic Layout
//
//	ryobi/{deviceID}/{entity}/state   retained entity state
//	ryobi/{deviceID}/{entity}/set     inbound entity commands
//	ryobi/bridge/status               bridge availability (retained + LWT)
//
// # Thread Safety
//
// All exported methods are safe for concurrent use.
package mqtt

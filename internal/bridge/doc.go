// Package bridge projects Ryobi devices onto the MQTT bus.
//
// Each device gets a Bridge owning its published state. A single run-loop
// goroutine per bridge executes state publishes in submission order, so
// decoded push updates and optimistic command echoes never interleave.
// Command dispatches to the vendor run as separate tracked goroutines and
// are cancelled on shutdown.
//
// Topics follow {prefix}/{deviceID}/{entity}/state for retained state and
// {prefix}/{deviceID}/{entity}/set for commands. The Coordinator handles
// account login, device discovery and per-device lifecycle; one device
// failing setup never takes down the others.
package bridge

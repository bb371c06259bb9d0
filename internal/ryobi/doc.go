// Package ryobi talks to the Ryobi garage door opener cloud.
//
// It has three layers:
//
//   - Client: REST access for login, device listing and full device
//     snapshots. Credentials are held for the session; the API key obtained
//     at login authenticates the push stream.
//   - Transport: one websocket push-stream connection per device, with
//     automatic reconnection and in-order frame delivery.
//   - Decoder: pure translation of push frames and snapshot attributes into
//     typed Updates. Malformed input degrades to fewer fields, never an
//     error, because one bad frame must not kill a stream.
//
// Devices expose capabilities (door, light, backup charger, wifi module,
// park assist laser, inflator, speaker, fan) as modules keyed by wire keys
// like "garageDoor_7". BuildModuleIndex maps capabilities to module ports
// and classes; the index is rebuilt on every snapshot fetch because module
// identifiers are not assumed stable.
package ryobi

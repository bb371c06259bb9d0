package ryobi

import "errors"

// Domain errors for the Ryobi cloud client.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAuthentication is returned when login fails or no API key is held.
	ErrAuthentication = errors.New("ryobi: authentication failed")

	// ErrConnection is returned on timeout or connection failure.
	// Callers may retry; the client itself never does.
	ErrConnection = errors.New("ryobi: connection failed")

	// ErrInvalidResponse is returned when the vendor reply is not usable:
	// non-JSON body, error status, or a payload missing required structure.
	ErrInvalidResponse = errors.New("ryobi: invalid response")

	// ErrDeviceNotFound is returned when the account has no devices or a
	// requested device is absent.
	ErrDeviceNotFound = errors.New("ryobi: device not found")

	// ErrTransportClosed is returned when sending on a closed transport.
	ErrTransportClosed = errors.New("ryobi: transport closed")
)

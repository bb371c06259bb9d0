package ryobi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MethodAttributeUpdate is the push-stream method tag carrying attribute
// deltas. Frames with any other method decode to an empty Update.
const MethodAttributeUpdate = "wskAttributeUpdateNtfy"

// reservedParamKeys are envelope metadata, not attribute updates.
var reservedParamKeys = map[string]struct{}{
	"topic":   {},
	"varName": {},
	"id":      {},
}

// Frame is one push-stream message.
type Frame struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

// ParseFrame decodes a raw push-stream message.
func ParseFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("parsing push frame: %w", err)
	}
	return f, nil
}

// Update carries decoded attribute deltas for one device. Fields are nil
// when the frame carried no value for them.
type Update struct {
	DoorState    *DoorState
	Motion       *int
	VacationMode *int
	Safety       *int
	LightState   *bool
	BatteryLevel *int
	WifiRSSI     *int
	ParkAssist   *int
	Speaker      *int
	Mic          *int
	Inflator     *int
	FanSpeed     *int
}

// Empty reports whether the update carries no fields.
func (u Update) Empty() bool {
	return u == Update{}
}

// DecodeAttributeUpdate extracts typed attribute deltas from one push frame.
//
// It never fails outward: malformed parameters degrade to fewer or zero
// fields, logged at debug level, because one bad frame must not kill the
// stream. Frames with a method other than MethodAttributeUpdate yield an
// empty Update.
func DecodeAttributeUpdate(frame Frame, logger Logger) Update {
	var u Update

	if frame.Method != MethodAttributeUpdate {
		return u
	}

	for key, raw := range frame.Params {
		if _, reserved := reservedParamKeys[key]; reserved {
			continue
		}

		// Attribute name is the segment after the module prefix,
		// "garageDoor_1.doorState" carries attribute "doorState". Keys
		// without a dot are used whole.
		attr := key
		if _, after, found := strings.Cut(key, "."); found {
			attr = after
		}

		value := unwrapValue(raw)
		if value == nil {
			logDebug(logger, "push update carried no value", "key", key)
			continue
		}

		u.classify(key, attr, value, logger)
	}

	return u
}

// unwrapValue extracts the scalar from a {"value": ...} container, or
// returns the raw scalar when no container is present.
func unwrapValue(raw any) any {
	if m, ok := raw.(map[string]any); ok {
		return m["value"]
	}
	return raw
}

// classify routes one attribute to its typed Update field, keyed first by
// capability keyword containment and then by attribute name. Unknown
// attributes inside a known capability are ignored.
func (u *Update) classify(key, attr string, value any, logger Logger) {
	switch {
	case strings.Contains(key, string(CapabilityDoor)):
		switch attr {
		case "doorState":
			if code, ok := asInt(value); ok {
				state := DoorStateFromCode(code)
				u.DoorState = &state
			} else {
				logDebug(logger, "unparseable door state", "key", key, "value", value)
			}
		case "motionSensor":
			u.Motion = intField(value, logger, key)
		case "vacationMode":
			u.VacationMode = intField(value, logger, key)
		case "sensorFlag":
			u.Safety = intField(value, logger, key)
		}

	case strings.Contains(key, string(CapabilityLight)):
		if attr == "lightState" {
			if on, ok := asBool(value); ok {
				u.LightState = &on
			} else {
				logDebug(logger, "unparseable light state", "key", key, "value", value)
			}
		}

	case strings.Contains(key, string(CapabilityCharger)):
		if attr == "chargeLevel" {
			u.BatteryLevel = intField(value, logger, key)
		}

	case strings.Contains(key, string(CapabilityWifi)):
		if attr == "rssi" {
			u.WifiRSSI = intField(value, logger, key)
		}

	case strings.Contains(key, string(CapabilityParkAssist)):
		u.ParkAssist = intField(value, logger, key)

	case strings.Contains(key, string(CapabilitySpeaker)):
		if attr == "micEnable" {
			u.Mic = intField(value, logger, key)
		} else {
			u.Speaker = intField(value, logger, key)
		}

	case strings.Contains(key, string(CapabilityInflator)):
		u.Inflator = intField(value, logger, key)

	case strings.Contains(key, string(CapabilityFan)):
		u.FanSpeed = intField(value, logger, key)

	default:
		logDebug(logger, "unhandled module update", "key", key, "value", value)
	}
}

// intField coerces a value to *int, logging and returning nil on failure.
func intField(value any, logger Logger, key string) *int {
	if n, ok := asInt(value); ok {
		return &n
	}
	logDebug(logger, "unparseable integer attribute", "key", key, "value", value)
	return nil
}

// asInt coerces JSON scalar types to int.
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// asBool coerces JSON scalar types to bool, treating nonzero as true.
func asBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case int:
		return v != 0, true
	default:
		return false, false
	}
}

package bridge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/ryobi"
)

// Door command payloads accepted on the door set topic.
const (
	doorPayloadOpen  = "OPEN"
	doorPayloadClose = "CLOSE"
	doorPayloadStop  = "STOP"
)

// HandleMQTTCommand routes one bus command to the device. The topic's
// second-to-last segment names the entity ({prefix}/{deviceID}/{entity}/set).
// Unknown entities and unparseable payloads are rejected with an error; they
// never reach the device.
func (b *Bridge) HandleMQTTCommand(topic string, payload []byte) error {
	segments := strings.Split(topic, "/")
	if len(segments) < 2 {
		return fmt.Errorf("command topic %q has no entity segment", topic)
	}
	entity := segments[len(segments)-2]
	value := strings.TrimSpace(string(payload))

	switch entity {
	case EntityDoor:
		return b.handleDoorCommand(value)

	case EntityLight:
		on, err := parseOnOff(value)
		if err != nil {
			return fmt.Errorf("light command: %w", err)
		}
		return b.HandleCommand(ryobi.CapabilityLight, boolValue(on))

	case EntityVacation:
		on, err := parseOnOff(value)
		if err != nil {
			return fmt.Errorf("vacation command: %w", err)
		}
		// Vacation mode is an attribute of the door module.
		return b.HandleCommand(ryobi.CapabilityDoor, boolValue(on), ryobi.AttrVacationMode)

	case EntityParkAssist:
		return b.handleModuleToggle(ryobi.CapabilityParkAssist, entity, value)

	case EntityInflator:
		return b.handleModuleToggle(ryobi.CapabilityInflator, entity, value)

	case EntitySpeaker:
		return b.handleModuleToggle(ryobi.CapabilitySpeaker, entity, value)

	case EntityFan:
		speed, err := strconv.Atoi(value)
		if err != nil || speed < 0 || speed > 100 {
			return fmt.Errorf("fan command: speed %q not in 0-100", value)
		}
		return b.HandleCommand(ryobi.CapabilityFan, speed)

	default:
		return fmt.Errorf("no command handling for entity %q", entity)
	}
}

func (b *Bridge) handleDoorCommand(value string) error {
	switch strings.ToUpper(value) {
	case doorPayloadOpen:
		return b.HandleCommand(ryobi.CapabilityDoor, ryobi.DoorCommandOpen)
	case doorPayloadClose:
		return b.HandleCommand(ryobi.CapabilityDoor, ryobi.DoorCommandClose)
	case doorPayloadStop:
		return b.HandleCommand(ryobi.CapabilityDoor, ryobi.DoorCommandStop)
	default:
		return fmt.Errorf("door command: unknown payload %q", value)
	}
}

func (b *Bridge) handleModuleToggle(capability ryobi.Capability, entity, value string) error {
	on, err := parseOnOff(value)
	if err != nil {
		return fmt.Errorf("%s command: %w", entity, err)
	}
	return b.HandleCommand(capability, boolValue(on))
}

func parseOnOff(value string) (bool, error) {
	switch strings.ToUpper(value) {
	case payloadOn:
		return true, nil
	case payloadOff:
		return false, nil
	default:
		return false, fmt.Errorf("payload %q is not ON or OFF", value)
	}
}

func boolValue(on bool) int {
	if on {
		return 1
	}
	return 0
}

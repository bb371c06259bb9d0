package ryobi

// Capability identifies a logical device feature by its vendor module keyword.
// Wire keys embed these keywords with a port suffix (e.g. "garageDoor_7").
type Capability string

// The fixed capability set exposed by Ryobi garage door openers.
const (
	CapabilityDoor       Capability = "garageDoor"
	CapabilityLight      Capability = "garageLight"
	CapabilityCharger    Capability = "backupCharger"
	CapabilityWifi       Capability = "wifiModule"
	CapabilityParkAssist Capability = "parkAssistLaser"
	CapabilityInflator   Capability = "inflator"
	CapabilitySpeaker    Capability = "btSpeaker"
	CapabilityFan        Capability = "fan"
)

// capabilityOrder is the scan order for wire-key matching. Containment
// matching makes order significant: "fan" is last because it is the shortest
// keyword and the likeliest accidental substring.
var capabilityOrder = []Capability{
	CapabilityDoor,
	CapabilityLight,
	CapabilityCharger,
	CapabilityWifi,
	CapabilityParkAssist,
	CapabilityInflator,
	CapabilitySpeaker,
	CapabilityFan,
}

// moduleClasses maps each capability to its vendor module class id, used in
// outbound command frames.
var moduleClasses = map[Capability]int{
	CapabilityDoor:       5,
	CapabilityLight:      5,
	CapabilityCharger:    6,
	CapabilityWifi:       7,
	CapabilityParkAssist: 1,
	CapabilityInflator:   4,
	CapabilitySpeaker:    2,
	CapabilityFan:        3,
}

// DoorState is the decoded garage door position.
type DoorState string

// Door states reported by the vendor, plus the display-only values the
// bridge derives locally ("stopped" after a STOP command, "unknown" for
// unrecognised codes).
const (
	DoorClosed  DoorState = "closed"
	DoorOpen    DoorState = "open"
	DoorClosing DoorState = "closing"
	DoorOpening DoorState = "opening"
	DoorFault   DoorState = "fault"
	DoorStopped DoorState = "stopped"
	DoorUnknown DoorState = "unknown"
)

// DoorStateFromCode converts a vendor door state code to a DoorState.
// Unrecognised codes decode to DoorUnknown rather than being dropped.
func DoorStateFromCode(code int) DoorState {
	switch code {
	case 0:
		return DoorClosed
	case 1:
		return DoorOpen
	case 2:
		return DoorClosing
	case 3:
		return DoorOpening
	case 4:
		return DoorFault
	default:
		return DoorUnknown
	}
}

// Door command values sent to the device.
const (
	DoorCommandClose = 0
	DoorCommandOpen  = 1
	DoorCommandStop  = 2
)

// Attribute names used in outbound command frames.
const (
	AttrDoorCommand  = "doorCommand"
	AttrLightState   = "lightState"
	AttrVacationMode = "vacationMode"
	AttrModuleState  = "moduleState"
	AttrFanSpeed     = "speed"
)

// DefaultCommandAttribute returns the outbound attribute a command targets
// when the caller does not override it.
func DefaultCommandAttribute(cap Capability) string {
	switch cap {
	case CapabilityDoor:
		return AttrDoorCommand
	case CapabilityLight:
		return AttrLightState
	case CapabilityFan:
		return AttrFanSpeed
	default:
		return AttrModuleState
	}
}

// ModuleClass returns the vendor module class id for a capability.
func ModuleClass(cap Capability) (int, bool) {
	class, ok := moduleClasses[cap]
	return class, ok
}

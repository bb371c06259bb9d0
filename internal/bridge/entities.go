package bridge

import (
	"strconv"

	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/infrastructure/mqtt"
	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/ryobi"
)

// Entity names published under {prefix}/{deviceID}/{entity}/state.
const (
	EntityDoor         = "door"
	EntityLight        = "light"
	EntityVacation     = "vacation"
	EntityMotion       = "motion"
	EntitySafety       = "safety"
	EntityBatteryLevel = "battery_level"
	EntityBatteryLow   = "battery_low"
	EntityWifiRSSI     = "wifi_rssi"
	EntityParkAssist   = "park_assist"
	EntityInflator     = "inflator"
	EntitySpeaker      = "speaker"
	EntityMic          = "mic"
	EntityFan          = "fan"
)

// Binary payloads for switch and binary sensor entities.
const (
	payloadOn      = "ON"
	payloadOff     = "OFF"
	payloadUnknown = "unknown"
)

// Publisher is the bus surface entities publish through. mqtt.Client
// satisfies it.
type Publisher interface {
	PublishString(topic string, payload string, qos byte, retained bool) error
	Topics() mqtt.Topics
}

// entity is one published state topic for a device. All state publishes are
// retained so late subscribers see current state immediately.
type entity struct {
	topic  string
	pub    Publisher
	qos    byte
	logger Logger
}

func (e entity) publish(payload string) {
	if err := e.pub.PublishString(e.topic, payload, e.qos, true); err != nil {
		logError(e.logger, "state publish failed", "topic", e.topic, "error", err)
		return
	}
	logDebug(e.logger, "state published", "topic", e.topic, "payload", payload)
}

// coverEntity publishes garage door position states.
type coverEntity struct{ entity }

func (e coverEntity) Update(state ryobi.DoorState) {
	e.publish(string(state))
}

// switchEntity publishes ON/OFF states driven by integer or boolean values.
type switchEntity struct{ entity }

func (e switchEntity) Set(on bool) {
	if on {
		e.publish(payloadOn)
	} else {
		e.publish(payloadOff)
	}
}

// binarySensorEntity publishes read-only ON/OFF states.
type binarySensorEntity struct{ entity }

func (e binarySensorEntity) Set(on bool) {
	if on {
		e.publish(payloadOn)
	} else {
		e.publish(payloadOff)
	}
}

// sensorEntity publishes numeric readings.
type sensorEntity struct{ entity }

func (e sensorEntity) Set(value int) {
	e.publish(strconv.Itoa(value))
}

// Entities is the full published surface of one device.
type Entities struct {
	Door       coverEntity
	Light      switchEntity
	Vacation   switchEntity
	ParkAssist switchEntity
	Inflator   switchEntity
	Speaker    switchEntity

	Motion     binarySensorEntity
	Safety     binarySensorEntity
	BatteryLow binarySensorEntity
	Mic        binarySensorEntity

	BatteryLevel sensorEntity
	WifiRSSI     sensorEntity
	Fan          sensorEntity
}

// NewEntities builds the published surface for one device.
func NewEntities(pub Publisher, deviceID string, qos byte, logger Logger) *Entities {
	topics := pub.Topics()
	state := func(name string) entity {
		return entity{
			topic:  topics.DeviceState(deviceID, name),
			pub:    pub,
			qos:    qos,
			logger: logger,
		}
	}
	return &Entities{
		Door:         coverEntity{state(EntityDoor)},
		Light:        switchEntity{state(EntityLight)},
		Vacation:     switchEntity{state(EntityVacation)},
		ParkAssist:   switchEntity{state(EntityParkAssist)},
		Inflator:     switchEntity{state(EntityInflator)},
		Speaker:      switchEntity{state(EntitySpeaker)},
		Motion:       binarySensorEntity{state(EntityMotion)},
		Safety:       binarySensorEntity{state(EntitySafety)},
		BatteryLow:   binarySensorEntity{state(EntityBatteryLow)},
		Mic:          binarySensorEntity{state(EntityMic)},
		BatteryLevel: sensorEntity{state(EntityBatteryLevel)},
		WifiRSSI:     sensorEntity{state(EntityWifiRSSI)},
		Fan:          sensorEntity{state(EntityFan)},
	}
}

// PublishDefaults announces every entity as unknown before the first
// snapshot lands, so subscribers see the device's full surface at setup.
// Real values from the seed snapshot replace the placeholders immediately
// after.
func (e *Entities) PublishDefaults() {
	all := []entity{
		e.Door.entity,
		e.Light.entity,
		e.Vacation.entity,
		e.ParkAssist.entity,
		e.Inflator.entity,
		e.Speaker.entity,
		e.Motion.entity,
		e.Safety.entity,
		e.BatteryLow.entity,
		e.Mic.entity,
		e.BatteryLevel.entity,
		e.WifiRSSI.entity,
		e.Fan.entity,
	}
	for _, ent := range all {
		ent.publish(payloadUnknown)
	}
}

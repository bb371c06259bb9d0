package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/ryobi"
)

const (
	// batteryLowThreshold marks the backup battery alert level. A charge
	// level of exactly 0 reads as "no backup battery installed", so the
	// alert fires only for levels strictly between 0 and the threshold.
	batteryLowThreshold = 20

	// commandTimeout bounds one outbound module command dispatch.
	commandTimeout = 10 * time.Second

	// jobQueueSize bounds pending state work per device. Pushes arrive at
	// human pace; the queue only fills if the bus is badly stalled.
	jobQueueSize = 64
)

// Logger is the narrow logging surface this package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

func logDebug(logger Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

func logError(logger Logger, msg string, args ...any) {
	if logger != nil {
		logger.Error(msg, args...)
	}
}

// Transport dispatches module commands to a device. ryobi.Transport
// satisfies it.
type Transport interface {
	SendModuleCommand(ctx context.Context, port, class int, attribute string, value any) error
}

// ModuleResolver resolves a capability to its module address on a device.
// ryobi.Client satisfies it.
type ModuleResolver interface {
	Module(deviceID string, capability ryobi.Capability) (ryobi.ModuleRef, error)
}

// Bridge owns all published state for one device.
//
// A single run-loop goroutine executes state jobs in submission order, so
// updates decoded from the push stream and optimistic command echoes never
// interleave mid-publish. Command dispatches run as separate tracked
// goroutines because the vendor send can block; Stop cancels them and waits.
type Bridge struct {
	deviceID  string
	entities  *Entities
	transport Transport
	modules   ModuleResolver
	logger    Logger

	jobs chan func()

	ctx    context.Context
	cancel context.CancelFunc

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewBridge builds a bridge for one device. Call Start before submitting
// updates or commands.
func NewBridge(deviceID string, entities *Entities, transport Transport, modules ModuleResolver, logger Logger) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		deviceID:  deviceID,
		entities:  entities,
		transport: transport,
		modules:   modules,
		logger:    logger,
		jobs:      make(chan func(), jobQueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the run loop and announces the device's default states.
func (b *Bridge) Start() {
	b.wg.Add(1)
	go b.run()
	b.submit(b.entities.PublishDefaults)
}

func (b *Bridge) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case job := <-b.jobs:
			job()
		}
	}
}

// submit queues one state job. Jobs are dropped after Stop.
func (b *Bridge) submit(job func()) {
	select {
	case b.jobs <- job:
	case <-b.ctx.Done():
	}
}

// Apply publishes every field the update carries, one state topic per
// present field. Callers on the push-stream read loop get in-order
// publication for free because jobs execute FIFO.
func (b *Bridge) Apply(update ryobi.Update) {
	if update.Empty() {
		return
	}
	b.submit(func() {
		e := b.entities
		if update.DoorState != nil {
			e.Door.Update(*update.DoorState)
		}
		if update.Motion != nil {
			e.Motion.Set(*update.Motion != 0)
		}
		if update.VacationMode != nil {
			e.Vacation.Set(*update.VacationMode != 0)
		}
		if update.Safety != nil {
			e.Safety.Set(*update.Safety != 0)
		}
		if update.LightState != nil {
			e.Light.Set(*update.LightState)
		}
		if update.BatteryLevel != nil {
			level := *update.BatteryLevel
			e.BatteryLevel.Set(level)
			e.BatteryLow.Set(level > 0 && level < batteryLowThreshold)
		}
		if update.WifiRSSI != nil {
			e.WifiRSSI.Set(*update.WifiRSSI)
		}
		if update.ParkAssist != nil {
			e.ParkAssist.Set(*update.ParkAssist != 0)
		}
		if update.Speaker != nil {
			e.Speaker.Set(*update.Speaker != 0)
		}
		if update.Mic != nil {
			e.Mic.Set(*update.Mic != 0)
		}
		if update.Inflator != nil {
			e.Inflator.Set(*update.Inflator != 0)
		}
		if update.FanSpeed != nil {
			e.Fan.Set(*update.FanSpeed)
		}
	})
}

// HandleCommand resolves a capability's module and dispatches one attribute
// write. Safe to call from any goroutine.
//
// The written attribute defaults per capability (doorCommand for the door,
// lightState for the light); attribute overrides serve commands like
// vacation mode that ride the door module.
func (b *Bridge) HandleCommand(capability ryobi.Capability, value int, attributeOverride ...string) error {
	ref, err := b.modules.Module(b.deviceID, capability)
	if err != nil {
		logError(b.logger, "command dropped, module unavailable",
			"device", b.deviceID, "capability", capability, "error", err)
		return err
	}

	attribute := ryobi.DefaultCommandAttribute(capability)
	if len(attributeOverride) > 0 {
		attribute = attributeOverride[0]
	}

	b.publishOptimistic(capability, attribute, value)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
		defer cancel()
		if err := b.transport.SendModuleCommand(ctx, ref.Port, ref.Class, attribute, value); err != nil {
			logError(b.logger, "command dispatch failed",
				"device", b.deviceID, "capability", capability, "attribute", attribute, "error", err)
			return
		}
		if capability == ryobi.CapabilityDoor && attribute == ryobi.AttrDoorCommand && value == ryobi.DoorCommandStop {
			b.submit(func() { b.entities.Door.Update(ryobi.DoorStopped) })
		}
	}()
	return nil
}

// publishOptimistic echoes the expected state transition before the device
// confirms it, matching what subscribers expect from a responsive cover or
// switch. Confirmed state arrives later over the push stream.
func (b *Bridge) publishOptimistic(capability ryobi.Capability, attribute string, value int) {
	switch {
	case capability == ryobi.CapabilityDoor && attribute == ryobi.AttrDoorCommand:
		switch value {
		case ryobi.DoorCommandOpen:
			b.submit(func() { b.entities.Door.Update(ryobi.DoorOpening) })
		case ryobi.DoorCommandClose:
			b.submit(func() { b.entities.Door.Update(ryobi.DoorClosing) })
		}
	case capability == ryobi.CapabilityLight && attribute == ryobi.AttrLightState:
		on := value != 0
		b.submit(func() { b.entities.Light.Set(on) })
	}
}

// Stop cancels in-flight command dispatches and halts the run loop. Safe to
// call more than once; pending jobs not yet started are dropped.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.cancel()
		b.wg.Wait()
	})
}

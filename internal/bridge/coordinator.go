package bridge

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/infrastructure/config"
	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/infrastructure/mqtt"
	"github.com/jithatsonei/ryobi-gdo-2-mqtt/internal/ryobi"
)

// CloudClient is the slice of the cloud REST client the coordinator needs.
type CloudClient interface {
	ModuleResolver
	Authenticate(ctx context.Context) error
	APIKey() (string, error)
	Email() string
	ListDevices(ctx context.Context) ([]ryobi.DeviceInfo, error)
	FetchSnapshot(ctx context.Context, deviceID string) (ryobi.Snapshot, error)
}

// Bus extends the entity publisher with command subscriptions.
type Bus interface {
	Publisher
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// DeviceTransport is a per-device push stream: commands out, frames in.
type DeviceTransport interface {
	Transport
	SetOnFrame(fn func(ryobi.Frame))
	Listen(ctx context.Context) error
	Close() error
}

// managedDevice groups everything the coordinator holds per device.
type managedDevice struct {
	info      ryobi.DeviceInfo
	bridge    *Bridge
	transport DeviceTransport

	cancelListen context.CancelFunc
	listenDone   chan struct{}
}

// Coordinator wires the account's devices to the bus: it authenticates,
// discovers devices, and runs one bridge plus one push-stream transport per
// device.
type Coordinator struct {
	cfg    *config.Config
	client CloudClient
	bus    Bus
	logger Logger

	newTransport func(ryobi.TransportOptions) DeviceTransport

	mu      sync.Mutex
	devices map[string]*managedDevice
}

// NewCoordinator builds a coordinator over an authenticated-capable client
// and a connected bus.
func NewCoordinator(cfg *config.Config, client CloudClient, bus Bus, logger Logger) *Coordinator {
	return &Coordinator{
		cfg:    cfg,
		client: client,
		bus:    bus,
		logger: logger,
		newTransport: func(opts ryobi.TransportOptions) DeviceTransport {
			return ryobi.NewTransport(opts)
		},
		devices: make(map[string]*managedDevice),
	}
}

// NewClient builds the cloud client the coordinator expects, sharing the
// given HTTP client's connection pool.
func NewClient(cfg *config.Config, httpClient *http.Client, logger Logger) *ryobi.Client {
	return ryobi.NewClient(ryobi.ClientOptions{
		Host:       cfg.Ryobi.Host,
		Email:      cfg.Ryobi.Email,
		Password:   cfg.Ryobi.Password,
		HTTPClient: httpClient,
		Timeout:    cfg.GetRequestTimeout(),
		Logger:     logger,
	})
}

// Start authenticates, discovers the account's devices and brings up one
// bridge per device. A device that fails setup is logged and skipped so one
// bad device cannot take down the rest; Start fails only when nothing could
// be brought up.
func (c *Coordinator) Start(ctx context.Context) error {
	if err := c.client.Authenticate(ctx); err != nil {
		return fmt.Errorf("coordinator start: %w", err)
	}

	devices, err := c.client.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("coordinator start: %w", err)
	}

	selected := c.selectDevices(devices)
	if len(selected) == 0 {
		return fmt.Errorf("coordinator start: no devices matched the configured filter")
	}

	for _, info := range selected {
		if err := c.setupDevice(ctx, info); err != nil {
			c.logger.Error("device setup failed, skipping",
				"device", info.ID, "name", info.Name, "error", err)
			continue
		}
		c.logger.Info("device online", "device", info.ID, "name", info.Name)
	}

	c.mu.Lock()
	running := len(c.devices)
	c.mu.Unlock()
	if running == 0 {
		return fmt.Errorf("coordinator start: all %d device setups failed", len(selected))
	}
	return nil
}

// selectDevices applies the configured device filter; an empty filter
// selects every device on the account.
func (c *Coordinator) selectDevices(devices []ryobi.DeviceInfo) []ryobi.DeviceInfo {
	filter := c.cfg.Ryobi.Devices
	if len(filter) == 0 {
		return devices
	}
	selected := make([]ryobi.DeviceInfo, 0, len(filter))
	for _, info := range devices {
		if slices.Contains(filter, info.ID) {
			selected = append(selected, info)
		}
	}
	return selected
}

// setupDevice fetches the device's snapshot, starts its bridge, seeds
// initial state, subscribes to its command topics and launches its push
// stream listener.
func (c *Coordinator) setupDevice(ctx context.Context, info ryobi.DeviceInfo) error {
	snapshot, err := c.client.FetchSnapshot(ctx, info.ID)
	if err != nil {
		return fmt.Errorf("fetching snapshot: %w", err)
	}

	apiKey, err := c.client.APIKey()
	if err != nil {
		return err
	}

	transport := c.newTransport(ryobi.TransportOptions{
		Host:     c.cfg.Ryobi.Host,
		Username: c.client.Email(),
		APIKey:   apiKey,
		DeviceID: info.ID,
		Logger:   c.logger,
	})

	qos := byte(c.cfg.MQTT.QoS)
	entities := NewEntities(c.bus, info.ID, qos, c.logger)
	bridge := NewBridge(info.ID, entities, transport, c.client, c.logger)
	bridge.Start()
	bridge.Apply(snapshot.Seed(c.logger))

	transport.SetOnFrame(func(frame ryobi.Frame) {
		update := ryobi.DecodeAttributeUpdate(frame, c.logger)
		bridge.Apply(update)
	})

	commandTopic := c.bus.Topics().DeviceCommands(info.ID)
	if err := c.bus.Subscribe(commandTopic, qos, func(topic string, payload []byte) error {
		return bridge.HandleMQTTCommand(topic, payload)
	}); err != nil {
		bridge.Stop()
		transport.Close()
		return fmt.Errorf("subscribing to %s: %w", commandTopic, err)
	}

	listenCtx, cancelListen := context.WithCancel(context.Background())
	listenDone := make(chan struct{})
	go func() {
		defer close(listenDone)
		if err := transport.Listen(listenCtx); err != nil && listenCtx.Err() == nil {
			c.logger.Error("push stream listener exited", "device", info.ID, "error", err)
		}
	}()

	c.mu.Lock()
	c.devices[info.ID] = &managedDevice{
		info:         info,
		bridge:       bridge,
		transport:    transport,
		cancelListen: cancelListen,
		listenDone:   listenDone,
	}
	c.mu.Unlock()
	return nil
}

// DeviceCount reports how many devices are currently bridged.
func (c *Coordinator) DeviceCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.devices)
}

// Stop tears devices down in dependency order: bridges first so no new
// commands reach the transports, then the push stream listeners, then the
// transports themselves. The bus and HTTP client are owned by the caller
// and released afterwards.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	devices := make([]*managedDevice, 0, len(c.devices))
	for _, device := range c.devices {
		devices = append(devices, device)
	}
	c.devices = make(map[string]*managedDevice)
	c.mu.Unlock()

	for _, device := range devices {
		device.bridge.Stop()
		device.cancelListen()
		<-device.listenDone
		device.transport.Close()
		c.logger.Info("device offline", "device", device.info.ID)
	}
}

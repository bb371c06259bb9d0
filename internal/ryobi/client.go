package ryobi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultHost is the vendor cloud endpoint.
	DefaultHost = "tti.tiwiconnect.com"

	loginPath   = "/api/login"
	devicesPath = "/api/devices"

	defaultRequestTimeout = 10 * time.Second
)

// ClientOptions configures a cloud API client.
type ClientOptions struct {
	// Host is the vendor API hostname. Defaults to DefaultHost.
	Host string

	// Email and Password are the account credentials.
	Email    string
	Password string

	// HTTPClient is the underlying HTTP client. A default with Timeout is
	// used when nil; pass a shared client so connection pools are reused.
	HTTPClient *http.Client

	// Timeout bounds each request when HTTPClient is nil.
	Timeout time.Duration

	Logger Logger
}

// Client talks to the vendor cloud REST API: login, device listing and
// device snapshots. It holds the API key obtained at login and a cached
// record per fetched device.
//
// The client never retries; callers decide retry policy.
type Client struct {
	host     string
	email    string
	password string
	http     *http.Client
	logger   Logger

	mu      sync.RWMutex
	apiKey  string
	records map[string]DeviceRecord
}

// NewClient builds a cloud API client. Authenticate must be called before
// any device operation.
func NewClient(opts ClientOptions) *Client {
	host := opts.Host
	if host == "" {
		host = DefaultHost
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		host:     host,
		email:    opts.Email,
		password: opts.Password,
		http:     httpClient,
		logger:   opts.Logger,
		records:  make(map[string]DeviceRecord),
	}
}

// Authenticate logs in and stores the account API key for the push stream.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{
		"username": {c.email},
		"password": {c.password},
	}
	reply, err := c.doRequest(ctx, http.MethodPost, loginPath, form)
	if err != nil {
		if errors.Is(err, ErrConnection) {
			// An unreachable login endpoint is an authentication failure;
			// the connection cause stays in the chain for callers that
			// want to retry.
			return fmt.Errorf("%w: %w", ErrAuthentication, err)
		}
		return err
	}

	// A success payload without the key is malformed, not a credential
	// rejection.
	apiKey, ok := digString(reply, "result", "auth", "apiKey")
	if !ok || apiKey == "" {
		return fmt.Errorf("%w: login reply carried no api key", ErrInvalidResponse)
	}

	c.mu.Lock()
	c.apiKey = apiKey
	c.mu.Unlock()

	logDebug(c.logger, "authenticated with vendor cloud", "host", c.host)
	return nil
}

// APIKey returns the key obtained at login, or ErrAuthentication when
// Authenticate has not succeeded yet.
func (c *Client) APIKey() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: no api key held, call Authenticate first", ErrAuthentication)
	}
	return c.apiKey, nil
}

// Email returns the account identity used for push-stream auth.
func (c *Client) Email() string {
	return c.email
}

// ListDevices returns the devices registered to the account.
func (c *Client) ListDevices(ctx context.Context) ([]DeviceInfo, error) {
	reply, err := c.doRequest(ctx, http.MethodGet, devicesPath, nil)
	if err != nil {
		return nil, err
	}

	rawResult, ok := reply["result"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: device list reply carried no result array", ErrInvalidResponse)
	}
	if len(rawResult) == 0 {
		return nil, fmt.Errorf("%w: account has no devices", ErrDeviceNotFound)
	}

	devices := make([]DeviceInfo, 0, len(rawResult))
	for _, raw := range rawResult {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, _ := entry["varName"].(string)
		if id == "" {
			continue
		}
		name, _ := digString(entry, "metaData", "name")
		if name == "" {
			name = id
		}
		devices = append(devices, DeviceInfo{ID: id, Name: name})
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: device list held no usable entries", ErrInvalidResponse)
	}
	return devices, nil
}

// FetchSnapshot retrieves one device's full attribute state and rebuilds its
// module index. The cached device record is replaced on success.
func (c *Client) FetchSnapshot(ctx context.Context, deviceID string) (Snapshot, error) {
	reply, err := c.doRequest(ctx, http.MethodGet, devicesPath+"/"+url.PathEscape(deviceID), nil)
	if err != nil {
		return Snapshot{}, err
	}

	rawResult, ok := reply["result"].([]any)
	if !ok || len(rawResult) == 0 {
		return Snapshot{}, fmt.Errorf("%w: device %s reply carried no result", ErrInvalidResponse, deviceID)
	}
	entry, ok := rawResult[0].(map[string]any)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: device %s result is not an object", ErrInvalidResponse, deviceID)
	}
	dtm, ok := entry["deviceTypeMap"].(map[string]any)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: device %s reply carried no device type map", ErrInvalidResponse, deviceID)
	}

	name, _ := digString(entry, "metaData", "name")
	if name == "" {
		name = deviceID
	}

	wireKeys := make([]string, 0, len(dtm))
	for key := range dtm {
		wireKeys = append(wireKeys, key)
	}
	sort.Strings(wireKeys)

	modules := BuildModuleIndex(wireKeys)
	if len(modules) == 0 {
		return Snapshot{}, fmt.Errorf("%w: device %s exposes no known modules", ErrInvalidResponse, deviceID)
	}

	snapshot := Snapshot{
		DeviceID:   deviceID,
		Name:       name,
		Attributes: flattenTypeMap(dtm),
		Modules:    modules,
	}

	c.mu.Lock()
	c.records[deviceID] = DeviceRecord{
		Info:    DeviceInfo{ID: deviceID, Name: name},
		Modules: modules,
	}
	c.mu.Unlock()

	logDebug(c.logger, "device snapshot fetched",
		"device", deviceID, "modules", len(modules), "attributes", len(snapshot.Attributes))
	return snapshot, nil
}

// Record returns the cached record for a device fetched earlier.
func (c *Client) Record(deviceID string) (DeviceRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[deviceID]
	if !ok {
		return DeviceRecord{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}
	return record, nil
}

// Module resolves a capability's module reference for a fetched device.
func (c *Client) Module(deviceID string, capability Capability) (ModuleRef, error) {
	record, err := c.Record(deviceID)
	if err != nil {
		return ModuleRef{}, err
	}
	ref, ok := record.Modules.Lookup(capability)
	if !ok {
		return ModuleRef{}, fmt.Errorf("%w: device %s has no %s module", ErrDeviceNotFound, deviceID, capability)
	}
	return ref, nil
}

// doRequest is the single HTTP primitive. Credentials travel as form data on
// POST and as query parameters on GET. Any reply that is not a JSON object,
// or that arrives with a 404, 405 or 500 status, maps to ErrInvalidResponse;
// timeouts and connection failures map to ErrConnection.
func (c *Client) doRequest(ctx context.Context, method, path string, form url.Values) (map[string]any, error) {
	endpoint := url.URL{Scheme: "https", Host: c.host, Path: path}

	var body io.Reader
	switch method {
	case http.MethodPost:
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
	default:
		query := url.Values{
			"username": {c.email},
			"password": {c.password},
		}
		endpoint.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", ErrConnection, method, path, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrConnection, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s reply: %v", ErrConnection, path, err)
	}

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusInternalServerError:
		logWarn(c.logger, "vendor API error status", "path", path, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %s returned status %d", ErrInvalidResponse, path, resp.StatusCode)
	}

	var reply map[string]any
	if err := json.Unmarshal(raw, &reply); err != nil {
		logWarn(c.logger, "vendor reply was not a JSON object", "path", path)
		return nil, fmt.Errorf("%w: %s reply is not a JSON object", ErrInvalidResponse, path)
	}
	return reply, nil
}

// flattenTypeMap converts the nested device type map into "wireKey.attr"
// keys with unwrapped scalar values, the same shape push updates use.
func flattenTypeMap(dtm map[string]any) map[string]any {
	flat := make(map[string]any)
	for wireKey, rawModule := range dtm {
		module, ok := rawModule.(map[string]any)
		if !ok {
			continue
		}
		attrs, ok := module["at"].(map[string]any)
		if !ok {
			continue
		}
		for attr, rawAttr := range attrs {
			flat[wireKey+"."+attr] = unwrapValue(rawAttr)
		}
	}
	return flat
}

// digString walks nested JSON objects by key and returns the string leaf.
func digString(m map[string]any, keys ...string) (string, bool) {
	current := any(m)
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		if !ok {
			return "", false
		}
		current = obj[key]
	}
	s, ok := current.(string)
	return s, ok
}

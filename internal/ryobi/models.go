package ryobi

// DeviceInfo is one entry from the account device list.
type DeviceInfo struct {
	// ID is the vendor device identifier (varName on the wire).
	ID string

	// Name is the user-assigned label, falling back to the ID when the
	// account holds no label.
	Name string
}

// Snapshot is the full attribute state of one device at fetch time.
type Snapshot struct {
	DeviceID string
	Name     string

	// Attributes holds the flattened device type map: "wireKey.attr" keys
	// mapped to raw scalar values (already unwrapped from {"value": ...}
	// containers).
	Attributes map[string]any

	// Modules is the capability index built from the snapshot's wire keys.
	Modules ModuleIndex
}

// Seed converts the snapshot's attributes into the same typed Update the
// push-stream decoder produces, so startup state and live updates flow
// through one path.
func (s Snapshot) Seed(logger Logger) Update {
	params := make(map[string]any, len(s.Attributes))
	for key, value := range s.Attributes {
		params[key] = value
	}
	return DecodeAttributeUpdate(Frame{
		Method: MethodAttributeUpdate,
		Params: params,
	}, logger)
}

// DeviceRecord is the client's cached view of one device, refreshed on every
// snapshot fetch.
type DeviceRecord struct {
	Info    DeviceInfo
	Modules ModuleIndex
}

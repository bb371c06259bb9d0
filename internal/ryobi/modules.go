package ryobi

import (
	"fmt"
	"strconv"
	"strings"
)

// ModuleRef locates one capability's module on a device.
type ModuleRef struct {
	// WireKey is the vendor key for this module (e.g. "garageDoor_7").
	WireKey string

	// Class is the vendor module class id used in outbound commands.
	Class int

	// Port is the module port number, parsed from the wire key suffix.
	Port int
}

// ModuleIndex maps each detected capability to its module reference for one
// device.
//
// The index is rebuilt in full on every snapshot fetch: module identifiers
// are not assumed stable across fetches.
type ModuleIndex map[Capability]ModuleRef

// Lookup returns the module reference for a capability.
func (m ModuleIndex) Lookup(cap Capability) (ModuleRef, bool) {
	ref, ok := m[cap]
	return ref, ok
}

// BuildModuleIndex scans a device's wire keys once and maps each capability
// to its module.
//
// A wire key belongs to a capability when it contains the capability keyword
// as a substring. The first matching key per capability wins when duplicates
// exist; multiple modules of one capability on a single device is unverified
// vendor behaviour. Keys without a parseable port suffix are skipped.
//
// wireKeys must be in a deterministic order (the client passes them sorted)
// so first-match-wins is reproducible.
func BuildModuleIndex(wireKeys []string) ModuleIndex {
	index := make(ModuleIndex)
	for _, key := range wireKeys {
		for _, cap := range capabilityOrder {
			if !strings.Contains(key, string(cap)) {
				continue
			}
			if _, taken := index[cap]; taken {
				continue
			}
			port, err := portFromWireKey(key)
			if err != nil {
				continue
			}
			index[cap] = ModuleRef{
				WireKey: key,
				Class:   moduleClasses[cap],
				Port:    port,
			}
		}
	}
	return index
}

// portFromWireKey extracts the port number from a wire key.
// The digits after the key's first underscore become the port used by
// outbound commands ("garageDoor_7" → 7).
func portFromWireKey(key string) (int, error) {
	_, suffix, found := strings.Cut(key, "_")
	if !found {
		return 0, fmt.Errorf("wire key %q has no port suffix", key)
	}
	port, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("wire key %q has non-numeric port: %w", key, err)
	}
	return port, nil
}

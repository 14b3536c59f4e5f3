// Package types holds the plain data model shared across the display
// device packages: resolutions, rationals, topologies and the persisted
// settings-engine state.
package types

import "sort"

// Resolution is a display's pixel width and height.
type Resolution struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Rational is an exact numerator/denominator pair, used for refresh rates
// and pixel scaling so that values round-trip exactly through JSON.
type Rational struct {
	Numerator   uint32 `json:"numerator"`
	Denominator uint32 `json:"denominator"`
}

// Float returns the rational as a float64 for fuzzy comparisons.
func (r Rational) Float() float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

// FuzzyEquals compares the rational against an arbitrary float using a
// relative-epsilon comparison: |a-b|*1e12 <= min(|a|,|b|).
func (r Rational) FuzzyEquals(other float64) bool {
	a := r.Float()
	diff := a - other
	if diff < 0 {
		diff = -diff
	}
	abs := func(v float64) float64 {
		if v < 0 {
			return -v
		}
		return v
	}
	min := abs(a)
	if o := abs(other); o < min {
		min = o
	}
	return diff*1e12 <= min
}

// Point is a signed desktop coordinate, the top-left origin of a source mode.
type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// HdrState is the per-display HDR toggle.
type HdrState int

const (
	HdrStateDisabled HdrState = iota
	HdrStateEnabled
)

func (s HdrState) String() string {
	if s == HdrStateEnabled {
		return "Enabled"
	}
	return "Disabled"
}

// ParseHdrState parses the wire representation of HdrState.
func ParseHdrState(s string) (HdrState, bool) {
	switch s {
	case "Enabled":
		return HdrStateEnabled, true
	case "Disabled":
		return HdrStateDisabled, true
	}
	return HdrStateDisabled, false
}

// DisplayMode is a resolution paired with a refresh rate.
type DisplayMode struct {
	Resolution  Resolution `json:"resolution"`
	RefreshRate Rational   `json:"refresh_rate"`
}

// EdidData is the subset of parsed EDID fields the engine cares about.
type EdidData struct {
	ManufacturerID string `json:"manufacturer_id"`
	ProductCode    string `json:"product_code"`
	SerialNumber   uint32 `json:"serial_number"`
}

// DeviceInfo is present only for an active EnumeratedDevice.
type DeviceInfo struct {
	Resolution      Resolution
	ResolutionScale FloatingPoint
	RefreshRate     FloatingPoint
	Primary         bool
	OriginPoint     Point
	HdrState        *HdrState // nil if the device does not report HDR capability
}

// EnumeratedDevice describes one display path known to the platform,
// active or not.
type EnumeratedDevice struct {
	DeviceID     string
	DisplayName  string
	FriendlyName string
	Edid         *EdidData
	Info         *DeviceInfo // nil iff the device is inactive
}

// DevicePreparation instructs the settings engine how to prepare a device
// before applying modes/HDR/primary changes.
type DevicePreparation int

const (
	// VerifyOnly requires the device to already be active; no topology change is made.
	VerifyOnly DevicePreparation = iota
	// EnsureActive activates the device if needed.
	EnsureActive
	// EnsurePrimary activates the device (if needed) and makes it primary.
	EnsurePrimary
	// EnsureOnlyDisplay deactivates other displays and activates only this one.
	EnsureOnlyDisplay
)

func (p DevicePreparation) String() string {
	switch p {
	case VerifyOnly:
		return "VerifyOnly"
	case EnsureActive:
		return "EnsureActive"
	case EnsurePrimary:
		return "EnsurePrimary"
	case EnsureOnlyDisplay:
		return "EnsureOnlyDisplay"
	default:
		return "Unknown"
	}
}

// ParseDevicePreparation parses the wire representation of DevicePreparation.
func ParseDevicePreparation(s string) (DevicePreparation, bool) {
	switch s {
	case "VerifyOnly":
		return VerifyOnly, true
	case "EnsureActive":
		return EnsureActive, true
	case "EnsurePrimary":
		return EnsurePrimary, true
	case "EnsureOnlyDisplay":
		return EnsureOnlyDisplay, true
	}
	return VerifyOnly, false
}

// SingleDisplayConfiguration is the caller-supplied request: configure one
// display, optionally touching resolution, refresh rate and HDR.
type SingleDisplayConfiguration struct {
	DeviceID    string            `json:"device_id,omitempty"`
	DevicePrep  DevicePreparation `json:"device_prep"`
	Resolution  *Resolution       `json:"resolution,omitempty"`
	RefreshRate *FloatingPoint    `json:"refresh_rate,omitempty"`
	HdrState    *HdrState         `json:"hdr_state,omitempty"`
}

// ActiveTopology is an ordered list of duplicate groups; each group holds
// the device_ids that mirror one another. Group/device order is not
// semantically significant — see Equal for the canonical
// comparison.
type ActiveTopology [][]string

// Clone returns a deep copy of the topology.
func (t ActiveTopology) Clone() ActiveTopology {
	out := make(ActiveTopology, len(t))
	for i, group := range t {
		out[i] = append([]string(nil), group...)
	}
	return out
}

// ContainsDevice reports whether device_id appears in any group.
func (t ActiveTopology) ContainsDevice(deviceID string) bool {
	for _, group := range t {
		for _, id := range group {
			if id == deviceID {
				return true
			}
		}
	}
	return false
}

// Canonical returns a copy sorted per-group and then by group, for use in
// equality comparisons.
func (t ActiveTopology) Canonical() ActiveTopology {
	out := t.Clone()
	for _, group := range out {
		sort.Strings(group)
	}
	sort.Slice(out, func(i, j int) bool {
		return compareStringSlices(out[i], out[j]) < 0
	})
	return out
}

func compareStringSlices(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Equal implements the canonicalising equality from spec §4.C: sort device
// ids within each group, sort groups, then compare.
func (t ActiveTopology) Equal(other ActiveTopology) bool {
	a := t.Canonical()
	b := other.Canonical()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// ModifiedState records what the settings engine changed so it can be
// reverted later.
type ModifiedState struct {
	Topology             ActiveTopology         `json:"topology"`
	OriginalModes        map[string]DisplayMode `json:"original_modes"`
	OriginalHdrStates    map[string]*HdrState   `json:"original_hdr_states"`
	OriginalPrimaryDevice string                `json:"original_primary_device"`
}

// HasModifications reports whether any of the three maps/string are non-empty.
func (m *ModifiedState) HasModifications() bool {
	if m == nil {
		return false
	}
	return len(m.OriginalModes) > 0 || len(m.OriginalHdrStates) > 0 || m.OriginalPrimaryDevice != ""
}

// InitialState records the topology/primaries observed before the first
// ever modification.
type InitialState struct {
	Topology       ActiveTopology `json:"topology"`
	PrimaryDevices []string       `json:"primary_devices"`
}

// SingleDisplayConfigState is persisted to disk after a successful apply.
type SingleDisplayConfigState struct {
	Initial  InitialState   `json:"initial"`
	Modified *ModifiedState `json:"modified,omitempty"`
}

// ApplyResult is the outcome of Manager.ApplySettings.
type ApplyResult int

const (
	ApplyOk ApplyResult = iota
	ApplyApiTemporarilyUnavailable
	ApplyDevicePrepFailed
	ApplyPrimaryDevicePrepFailed
	ApplyDisplayModePrepFailed
	ApplyHdrStatePrepFailed
	ApplyPersistenceSaveFailed
)

func (r ApplyResult) String() string {
	switch r {
	case ApplyOk:
		return "Ok"
	case ApplyApiTemporarilyUnavailable:
		return "ApiTemporarilyUnavailable"
	case ApplyDevicePrepFailed:
		return "DevicePrepFailed"
	case ApplyPrimaryDevicePrepFailed:
		return "PrimaryDevicePrepFailed"
	case ApplyDisplayModePrepFailed:
		return "DisplayModePrepFailed"
	case ApplyHdrStatePrepFailed:
		return "HdrStatePrepFailed"
	case ApplyPersistenceSaveFailed:
		return "PersistenceSaveFailed"
	default:
		return "Unknown"
	}
}

// RevertResult is the outcome of Manager.RevertSettings.
type RevertResult int

const (
	RevertOk RevertResult = iota
	RevertApiTemporarilyUnavailable
	RevertTopologyIsInvalid
	RevertSwitchingTopologyFailed
	RevertingPrimaryDeviceFailed
	RevertingDisplayModesFailed
	RevertingHdrStatesFailed
	RevertPersistenceSaveFailed
)

func (r RevertResult) String() string {
	switch r {
	case RevertOk:
		return "Ok"
	case RevertApiTemporarilyUnavailable:
		return "ApiTemporarilyUnavailable"
	case RevertTopologyIsInvalid:
		return "TopologyIsInvalid"
	case RevertSwitchingTopologyFailed:
		return "SwitchingTopologyFailed"
	case RevertingPrimaryDeviceFailed:
		return "RevertingPrimaryDeviceFailed"
	case RevertingDisplayModesFailed:
		return "RevertingDisplayModesFailed"
	case RevertingHdrStatesFailed:
		return "RevertingHdrStatesFailed"
	case RevertPersistenceSaveFailed:
		return "PersistenceSaveFailed"
	default:
		return "Unknown"
	}
}

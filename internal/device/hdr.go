package device

import (
	"fmt"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
)

// GetCurrentHdrStates returns the HDR toggle state of every requested,
// currently active device. A nil map value means the device is active but
// does not report HDR capability at all.
func (f *Facade) GetCurrentHdrStates(deviceIDs []string) (map[string]*types.HdrState, error) {
	result, err := f.api.QueryDisplayConfig(true)
	if err != nil {
		return nil, fmt.Errorf("device: query active display config: %w", err)
	}

	resolver := newDeviceIDResolver(f.api)
	resolve := resolver.asTopologyResolver()

	wanted := toSet(deviceIDs)
	out := make(map[string]*types.HdrState, len(deviceIDs))

	for _, p := range result.Paths {
		if !p.IsActive() {
			continue
		}
		id, ok := resolve(p)
		if !ok || !wanted[id] {
			continue
		}

		enabled, supported, err := f.api.GetAdvancedColorEnabled(p.TargetInfo.AdapterID, p.TargetInfo.ID)
		if err != nil {
			return nil, fmt.Errorf("device: get HDR state for %q: %w", id, err)
		}
		if !supported {
			out[id] = nil
			continue
		}

		state := types.HdrStateDisabled
		if enabled {
			state = types.HdrStateEnabled
		}
		out[id] = &state
	}
	return out, nil
}

// SetHdrStates commits an HDR toggle change for every device in states
// whose value is non-nil; a nil value requests no change and is skipped.
// All targeted devices must currently be active and HDR-capable.
func (f *Facade) SetHdrStates(states map[string]*types.HdrState) error {
	remaining := make(map[string]bool)
	for id, want := range states {
		if want != nil {
			remaining[id] = true
		}
	}
	if len(remaining) == 0 {
		return nil
	}

	result, err := f.api.QueryDisplayConfig(true)
	if err != nil {
		return fmt.Errorf("device: query active display config: %w", err)
	}

	resolver := newDeviceIDResolver(f.api)
	resolve := resolver.asTopologyResolver()

	for _, p := range result.Paths {
		if !p.IsActive() {
			continue
		}
		id, ok := resolve(p)
		if !ok {
			continue
		}
		want, requested := states[id]
		if !requested || want == nil {
			continue
		}

		if err := f.api.SetAdvancedColorEnabled(p.TargetInfo.AdapterID, p.TargetInfo.ID, *want == types.HdrStateEnabled); err != nil {
			return fmt.Errorf("device: set HDR state for %q: %w", id, err)
		}
		delete(remaining, id)
	}

	if len(remaining) > 0 {
		return fmt.Errorf("device: requested HDR change for inactive or non-HDR-capable devices: %v", setKeys(remaining))
	}

	current, err := f.GetCurrentHdrStates(mapKeys(states))
	if err != nil {
		return fmt.Errorf("device: verify HDR states after commit: %w", err)
	}
	for id, want := range states {
		if want == nil {
			continue
		}
		got := current[id]
		if got == nil || *got != *want {
			return fmt.Errorf("device: HDR state for %q did not match after commit", id)
		}
	}
	return nil
}

package device

import (
	"fmt"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/topology"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/winapi"
)

// GetCurrentDisplayModes returns the resolution/refresh-rate of every
// requested, currently active device. Devices not found active are simply
// absent from the result.
func (f *Facade) GetCurrentDisplayModes(deviceIDs []string) (map[string]types.DisplayMode, error) {
	result, err := f.api.QueryDisplayConfig(true)
	if err != nil {
		return nil, fmt.Errorf("device: query active display config: %w", err)
	}

	resolver := newDeviceIDResolver(f.api)
	resolve := resolver.asTopologyResolver()

	wanted := toSet(deviceIDs)
	out := make(map[string]types.DisplayMode, len(deviceIDs))

	for _, p := range result.Paths {
		if !p.IsActive() {
			continue
		}
		id, ok := resolve(p)
		if !ok || !wanted[id] {
			continue
		}

		idx, ok := p.SourceModeIndex()
		if !ok {
			continue
		}
		sm, ok := topology.GetSourceMode(&idx, result.Modes)
		if !ok {
			continue
		}

		out[id] = types.DisplayMode{
			Resolution: types.Resolution{Width: sm.Width, Height: sm.Height},
			RefreshRate: types.Rational{
				Numerator:   p.TargetInfo.RefreshRate.Numerator,
				Denominator: p.TargetInfo.RefreshRate.Denominator,
			},
		}
	}
	return out, nil
}

// SetDisplayModes commits a resolution/refresh-rate change for every device
// in modes, all of which must currently be active. It re-queries afterward
// and fails if any requested device's mode doesn't match what was set.
func (f *Facade) SetDisplayModes(modes map[string]types.DisplayMode) error {
	if len(modes) == 0 {
		return nil
	}

	result, err := f.api.QueryDisplayConfig(true)
	if err != nil {
		return fmt.Errorf("device: query active display config: %w", err)
	}

	resolver := newDeviceIDResolver(f.api)
	resolve := resolver.asTopologyResolver()

	remaining := make(map[string]bool, len(modes))
	for id := range modes {
		remaining[id] = true
	}

	for i := range result.Paths {
		p := &result.Paths[i]
		if !p.IsActive() {
			continue
		}
		id, ok := resolve(*p)
		if !ok {
			continue
		}
		mode, wanted := modes[id]
		if !wanted {
			continue
		}

		idx, ok := p.SourceModeIndex()
		if !ok {
			return fmt.Errorf("device: active device %q has no source mode to resize", id)
		}
		sm, ok := topology.GetSourceMode(&idx, result.Modes)
		if !ok {
			return fmt.Errorf("device: active device %q's source mode index is invalid", id)
		}

		sm.Width = mode.Resolution.Width
		sm.Height = mode.Resolution.Height
		p.TargetInfo.RefreshRate = winapi.Rational{
			Numerator:   mode.RefreshRate.Numerator,
			Denominator: mode.RefreshRate.Denominator,
		}
		delete(remaining, id)
	}

	if len(remaining) > 0 {
		return fmt.Errorf("device: requested mode change for inactive or unknown devices: %v", setKeys(remaining))
	}

	if err := f.api.SetDisplayConfig(result.Paths, result.Modes); err != nil {
		return fmt.Errorf("device: set display config for mode change: %w", err)
	}

	current, err := f.GetCurrentDisplayModes(mapKeys(modes))
	if err != nil {
		return fmt.Errorf("device: verify display modes after commit: %w", err)
	}
	for id, want := range modes {
		got, ok := current[id]
		if !ok || got != want {
			return fmt.Errorf("device: display mode for %q did not match after commit", id)
		}
	}
	return nil
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func setKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func mapKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

package device

import (
	"errors"
	"fmt"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/topology"
)

// IsPrimary reports whether deviceID is currently the primary display:
// on Windows the primary display is, by definition, the one whose source
// mode sits at the desktop origin (0, 0).
func (f *Facade) IsPrimary(deviceID string) (bool, error) {
	result, err := f.api.QueryDisplayConfig(true)
	if err != nil {
		return false, fmt.Errorf("device: query active display config: %w", err)
	}

	resolver := newDeviceIDResolver(f.api)
	resolve := resolver.asTopologyResolver()

	for _, p := range result.Paths {
		if !p.IsActive() {
			continue
		}
		id, ok := resolve(p)
		if !ok || id != deviceID {
			continue
		}

		idx, ok := p.SourceModeIndex()
		if !ok {
			return false, nil
		}
		sm, ok := topology.GetSourceMode(&idx, result.Modes)
		if !ok {
			return false, nil
		}
		return sm.Position.X == 0 && sm.Position.Y == 0, nil
	}
	return false, nil
}

// SetAsPrimary makes deviceID the primary display by shifting every active
// source mode's origin by the negative of deviceID's current origin, so
// deviceID lands at (0, 0) and every other display's relative layout is
// preserved.
func (f *Facade) SetAsPrimary(deviceID string) error {
	result, err := f.api.QueryDisplayConfig(true)
	if err != nil {
		return fmt.Errorf("device: query active display config: %w", err)
	}

	resolver := newDeviceIDResolver(f.api)
	resolve := resolver.asTopologyResolver()

	var origin *[2]int32
	for _, p := range result.Paths {
		if !p.IsActive() {
			continue
		}
		id, ok := resolve(p)
		if !ok || id != deviceID {
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
		o := [2]int32{sm.Position.X, sm.Position.Y}
		origin = &o
		break
	}
	if origin == nil {
		return fmt.Errorf("device: device %q is not active, cannot make it primary", deviceID)
	}
	if origin[0] == 0 && origin[1] == 0 {
		return nil
	}

	shifted := make(map[uint32]bool)
	for i := range result.Paths {
		p := &result.Paths[i]
		if !p.IsActive() {
			continue
		}
		idx, ok := p.SourceModeIndex()
		if !ok || shifted[idx] {
			continue
		}
		shifted[idx] = true
		sm, ok := topology.GetSourceMode(&idx, result.Modes)
		if !ok {
			continue
		}
		sm.Position.X -= origin[0]
		sm.Position.Y -= origin[1]
	}

	if err := f.api.SetDisplayConfig(result.Paths, result.Modes); err != nil {
		return fmt.Errorf("device: set display config for primary switch: %w", err)
	}

	primary, err := f.IsPrimary(deviceID)
	if err != nil {
		return fmt.Errorf("device: verify primary device after commit: %w", err)
	}
	if !primary {
		return errors.New("device: device did not become primary after commit")
	}
	return nil
}

package device

import (
	"fmt"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/edid"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/topology"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/winapi"
)

// EnumerateDevices lists every configurable display path, active or not,
// with its stable device id, names, parsed EDID (when available) and,
// for active devices, its current mode/HDR/primary info.
func (f *Facade) EnumerateDevices() ([]types.EnumeratedDevice, error) {
	result, err := f.api.QueryDisplayConfig(false)
	if err != nil {
		return nil, fmt.Errorf("device: query display config: %w", err)
	}

	resolver := newDeviceIDResolver(f.api)
	resolve := resolver.asTopologyResolver()

	var out []types.EnumeratedDevice
	for _, p := range result.Paths {
		if !p.IsAvailable() {
			continue
		}
		id, ok := resolve(p)
		if !ok {
			continue
		}

		targetInfo, err := f.api.GetDeviceTargetInfo(p.TargetInfo.AdapterID, p.TargetInfo.ID)
		if err != nil {
			continue
		}

		var edidData *types.EdidData
		if rawEdid, err := f.api.GetEDID(targetInfo.DevicePath); err == nil {
			if parsed, ok := edid.Parse(rawEdid); ok {
				edidData = &parsed
			}
		}

		displayName := ""
		var info *types.DeviceInfo
		if p.IsActive() {
			if name, err := f.api.GetSourceDisplayName(p.SourceInfo.AdapterID, p.SourceInfo.ID); err == nil {
				displayName = name
			}
			info, err = f.buildDeviceInfo(p, result.Modes)
			if err != nil {
				return nil, err
			}
		}

		out = append(out, types.EnumeratedDevice{
			DeviceID:     id,
			DisplayName:  displayName,
			FriendlyName: targetInfo.FriendlyName,
			Edid:         edidData,
			Info:         info,
		})
	}
	return out, nil
}

// GetDisplayName returns the OS-assigned logical display name for an
// active device, or empty if it is not currently active.
func (f *Facade) GetDisplayName(deviceID string) (string, error) {
	result, err := f.api.QueryDisplayConfig(true)
	if err != nil {
		return "", fmt.Errorf("device: query active display config: %w", err)
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
		name, err := f.api.GetSourceDisplayName(p.SourceInfo.AdapterID, p.SourceInfo.ID)
		if err != nil {
			return "", fmt.Errorf("device: get display name for %q: %w", deviceID, err)
		}
		return name, nil
	}
	return "", nil
}

// buildDeviceInfo assembles Info for an active path: resolution and scale
// from its source/target modes, refresh rate from the path, HDR state (if
// the target reports capability at all), and primary status derived the
// same way SetAsPrimary/IsPrimary define it — origin at (0, 0).
func (f *Facade) buildDeviceInfo(p winapi.PathInfo, modes []winapi.ModeInfo) (*types.DeviceInfo, error) {
	idx, ok := p.SourceModeIndex()
	if !ok {
		return nil, fmt.Errorf("device: active path has no source mode index")
	}
	sm, ok := topology.GetSourceMode(&idx, modes)
	if !ok {
		return nil, fmt.Errorf("device: active path's source mode index is invalid")
	}

	scale := types.NewFloatingPointRational(types.Rational{Numerator: 1, Denominator: 1})
	if tIdx, ok := p.TargetModeIndex(); ok {
		if tm, ok := topology.GetTargetMode(&tIdx, modes); ok && sm.Width > 0 && tm.VideoSignalInfo.ActiveSize.Cx > 0 {
			scale = types.NewFloatingPointRational(types.Rational{
				Numerator:   tm.VideoSignalInfo.ActiveSize.Cx,
				Denominator: sm.Width,
			})
		}
	}

	var hdrState *types.HdrState
	if enabled, supported, err := f.api.GetAdvancedColorEnabled(p.TargetInfo.AdapterID, p.TargetInfo.ID); err == nil && supported {
		state := types.HdrStateDisabled
		if enabled {
			state = types.HdrStateEnabled
		}
		hdrState = &state
	}

	return &types.DeviceInfo{
		Resolution:      types.Resolution{Width: sm.Width, Height: sm.Height},
		ResolutionScale: scale,
		RefreshRate: types.NewFloatingPointRational(types.Rational{
			Numerator:   p.TargetInfo.RefreshRate.Numerator,
			Denominator: p.TargetInfo.RefreshRate.Denominator,
		}),
		Primary:     sm.Position.X == 0 && sm.Position.Y == 0,
		OriginPoint: types.Point{X: sm.Position.X, Y: sm.Position.Y},
		HdrState:    hdrState,
	}, nil
}

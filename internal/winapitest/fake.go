// Package winapitest provides an in-memory fake of winapi.Interface so the
// topology, device and settings packages can be unit tested without a real
// display attached or a Windows host.
package winapitest

import (
	"fmt"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/winapi"
)

// DeviceFixture describes one simulated monitor.
type DeviceFixture struct {
	AdapterID    winapi.LUID
	SourceID     uint32
	TargetID     uint32
	DevicePath   string
	FriendlyName string
	DisplayName  string
	Edid         []byte
	Active       bool
	SourceMode   winapi.SourceMode
	TargetMode   winapi.TargetMode
	RefreshRate  winapi.Rational
	HdrSupported bool
	HdrEnabled   bool
}

// Fake is a mutable, in-memory stand-in for the real Windows CCD layer.
type Fake struct {
	Devices []DeviceFixture

	// ForceQueryErr, when non-nil, is returned by the next QueryDisplayConfig call.
	ForceQueryErr error
	// ForceSetErr, when non-nil, is returned by the next SetDisplayConfig call.
	ForceSetErr error

	LastAppliedPaths []winapi.PathInfo
	LastAppliedModes []winapi.ModeInfo
}

// New builds a Fake from the given fixtures.
func New(devices ...DeviceFixture) *Fake {
	return &Fake{Devices: devices}
}

var _ winapi.Interface = (*Fake)(nil)

func (f *Fake) IsAPIAccessAvailable() bool { return true }

func (f *Fake) QueryDisplayConfig(activeOnly bool) (winapi.QueryResult, error) {
	if f.ForceQueryErr != nil {
		err := f.ForceQueryErr
		f.ForceQueryErr = nil
		return winapi.QueryResult{}, err
	}

	var result winapi.QueryResult
	sourceModeIdx := make(map[uint32]uint32)
	for _, d := range f.Devices {
		if activeOnly && !d.Active {
			continue
		}

		path := winapi.PathInfo{
			SourceInfo: winapi.PathSourceInfo{AdapterID: d.AdapterID, ID: d.SourceID},
			TargetInfo: winapi.PathTargetInfo{AdapterID: d.AdapterID, ID: d.TargetID, TargetAvailable: 1, RefreshRate: d.RefreshRate},
		}
		if d.Active {
			path.SetActive()

			idx, ok := sourceModeIdx[d.SourceID]
			if !ok {
				idx = uint32(len(result.Modes))
				mode := winapi.ModeInfo{AdapterID: d.AdapterID, ID: d.SourceID}
				mode.SetSourceMode(d.SourceMode)
				result.Modes = append(result.Modes, mode)
				sourceModeIdx[d.SourceID] = idx
			}
			targetIdx := uint32(len(result.Modes))
			targetMode := winapi.ModeInfo{AdapterID: d.AdapterID, ID: d.TargetID}
			targetMode.SetTargetMode(d.TargetMode)
			result.Modes = append(result.Modes, targetMode)

			path.SetSourceModeIndex(&idx)
			path.SetTargetModeIndex(&targetIdx)
		} else {
			path.SetSourceModeIndex(nil)
			path.SetTargetModeIndex(nil)
		}
		result.Paths = append(result.Paths, path)
	}
	return result, nil
}

func (f *Fake) SetDisplayConfig(paths []winapi.PathInfo, modes []winapi.ModeInfo) error {
	if f.ForceSetErr != nil {
		err := f.ForceSetErr
		f.ForceSetErr = nil
		return err
	}
	f.LastAppliedPaths = paths
	f.LastAppliedModes = modes

	active := make(map[[2]uint32]bool)
	for _, p := range paths {
		if p.IsActive() {
			active[[2]uint32{uint32(p.TargetInfo.AdapterID.LowPart), p.TargetInfo.ID}] = true
		}
	}
	for i := range f.Devices {
		d := &f.Devices[i]
		d.Active = active[[2]uint32{uint32(d.AdapterID.LowPart), d.TargetID}]
	}

	// Active paths also commit their refresh rate and, where they reference
	// one, their source mode (size and position) back into the fixture.
	for _, p := range paths {
		if !p.IsActive() {
			continue
		}
		for i := range f.Devices {
			d := &f.Devices[i]
			if d.AdapterID != p.TargetInfo.AdapterID || d.TargetID != p.TargetInfo.ID {
				continue
			}
			d.RefreshRate = p.TargetInfo.RefreshRate
			if idx, ok := p.SourceModeIndex(); ok && int(idx) < len(modes) && modes[idx].InfoType == winapi.ModeInfoTypeSource {
				d.SourceMode = *modes[idx].SourceMode()
			}
		}
	}
	return nil
}

func (f *Fake) GetDeviceTargetInfo(adapterID winapi.LUID, targetID uint32) (winapi.DeviceTargetInfo, error) {
	d, ok := f.find(adapterID, targetID)
	if !ok {
		return winapi.DeviceTargetInfo{}, fmt.Errorf("winapitest: unknown target %d/%d", adapterID.LowPart, targetID)
	}
	return winapi.DeviceTargetInfo{
		FriendlyName: d.FriendlyName,
		DevicePath:   d.DevicePath,
	}, nil
}

func (f *Fake) GetSourceDisplayName(adapterID winapi.LUID, sourceID uint32) (string, error) {
	for _, d := range f.Devices {
		if d.AdapterID == adapterID && d.SourceID == sourceID {
			return d.DisplayName, nil
		}
	}
	return "", fmt.Errorf("winapitest: unknown source %d/%d", adapterID.LowPart, sourceID)
}

func (f *Fake) GetEDID(devicePath string) ([]byte, error) {
	for _, d := range f.Devices {
		if d.DevicePath == devicePath {
			return d.Edid, nil
		}
	}
	return nil, fmt.Errorf("winapitest: unknown device path %q", devicePath)
}

func (f *Fake) GetAdvancedColorEnabled(adapterID winapi.LUID, targetID uint32) (bool, bool, error) {
	d, ok := f.find(adapterID, targetID)
	if !ok {
		return false, false, fmt.Errorf("winapitest: unknown target %d/%d", adapterID.LowPart, targetID)
	}
	return d.HdrEnabled, d.HdrSupported, nil
}

func (f *Fake) SetAdvancedColorEnabled(adapterID winapi.LUID, targetID uint32, enabled bool) error {
	for i := range f.Devices {
		if f.Devices[i].AdapterID == adapterID && f.Devices[i].TargetID == targetID {
			if !f.Devices[i].HdrSupported {
				return fmt.Errorf("winapitest: target %d/%d does not support HDR", adapterID.LowPart, targetID)
			}
			f.Devices[i].HdrEnabled = enabled
			return nil
		}
	}
	return fmt.Errorf("winapitest: unknown target %d/%d", adapterID.LowPart, targetID)
}

func (f *Fake) ErrorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (f *Fake) find(adapterID winapi.LUID, targetID uint32) (DeviceFixture, bool) {
	for _, d := range f.Devices {
		if d.AdapterID == adapterID && d.TargetID == targetID {
			return d, true
		}
	}
	return DeviceFixture{}, false
}

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/edid"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/winapi"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/winapitest"
)

func luid(n uint32) winapi.LUID { return winapi.LUID{LowPart: n} }

func twoMonitorFake() *winapitest.Fake {
	return winapitest.New(
		winapitest.DeviceFixture{
			AdapterID:    luid(1),
			SourceID:     0,
			TargetID:     0,
			DevicePath:   `\\?\DISPLAY#PRIMARY#1`,
			FriendlyName: "Primary Monitor",
			DisplayName:  `\\.\DISPLAY1`,
			Edid:         []byte("primary-edid"),
			Active:       true,
			SourceMode:   winapi.SourceMode{Width: 1920, Height: 1080, Position: winapi.Point{X: 0, Y: 0}},
			TargetMode: winapi.TargetMode{VideoSignalInfo: winapi.VideoSignalInfo{
				ActiveSize: winapi.Region2D{Cx: 1920, Cy: 1080},
			}},
			HdrSupported: true,
			HdrEnabled:   false,
		},
		winapitest.DeviceFixture{
			AdapterID:    luid(1),
			SourceID:     1,
			TargetID:     1,
			DevicePath:   `\\?\DISPLAY#SECONDARY#1`,
			FriendlyName: "Secondary Monitor",
			DisplayName:  `\\.\DISPLAY2`,
			Edid:         []byte("secondary-edid"),
			Active:       true,
			SourceMode:   winapi.SourceMode{Width: 2560, Height: 1440, Position: winapi.Point{X: 1920, Y: 0}},
			TargetMode: winapi.TargetMode{VideoSignalInfo: winapi.VideoSignalInfo{
				ActiveSize: winapi.Region2D{Cx: 2560, Cy: 1440},
			}},
			HdrSupported: false,
		},
	)
}

func deviceID(fake *winapitest.Fake, targetID uint32) string {
	for _, d := range fake.Devices {
		if d.TargetID == targetID {
			return winapi.ComputeDeviceID(d.DevicePath, d.Edid)
		}
	}
	return ""
}

func TestGetCurrentTopologyGroupsBySourcePosition(t *testing.T) {
	fake := twoMonitorFake()
	f := New(fake)

	topo, err := f.GetCurrentTopology()
	require.NoError(t, err)
	assert.True(t, f.IsTopologyValid(topo))
	assert.Len(t, topo, 2)

	primary := deviceID(fake, 0)
	secondary := deviceID(fake, 1)
	want := types.ActiveTopology{{primary}, {secondary}}
	assert.True(t, f.IsTopologyTheSame(topo, want))
}

func TestEnumerateDevicesReportsActiveAndInactive(t *testing.T) {
	fake := twoMonitorFake()
	fake.Devices[1].Active = false
	blob, ok := edid.Encode(types.EdidData{ManufacturerID: "LOL", ProductCode: "1337", SerialNumber: 1234})
	require.True(t, ok)
	fake.Devices[0].Edid = blob
	f := New(fake)

	devices, err := f.EnumerateDevices()
	require.NoError(t, err)
	require.Len(t, devices, 2)

	byID := make(map[string]types.EnumeratedDevice)
	for _, d := range devices {
		byID[d.DeviceID] = d
	}

	primary := byID[deviceID(fake, 0)]
	require.NotNil(t, primary.Info)
	assert.Equal(t, uint32(1920), primary.Info.Resolution.Width)
	assert.True(t, primary.Info.Primary)
	assert.Equal(t, `\\.\DISPLAY1`, primary.DisplayName)
	require.NotNil(t, primary.Info.HdrState)
	assert.Equal(t, types.HdrStateDisabled, *primary.Info.HdrState)
	require.NotNil(t, primary.Edid)

	secondary := byID[deviceID(fake, 1)]
	assert.Nil(t, secondary.Info)
	assert.Equal(t, "", secondary.DisplayName)
}

func TestGetDisplayNameReturnsEmptyForInactiveDevice(t *testing.T) {
	fake := twoMonitorFake()
	fake.Devices[1].Active = false
	f := New(fake)

	name, err := f.GetDisplayName(deviceID(fake, 1))
	require.NoError(t, err)
	assert.Equal(t, "", name)

	name, err = f.GetDisplayName(deviceID(fake, 0))
	require.NoError(t, err)
	assert.Equal(t, `\\.\DISPLAY1`, name)
}

func TestIsPrimaryAndSetAsPrimary(t *testing.T) {
	fake := twoMonitorFake()
	f := New(fake)

	primaryID := deviceID(fake, 0)
	secondaryID := deviceID(fake, 1)

	isPrimary, err := f.IsPrimary(primaryID)
	require.NoError(t, err)
	assert.True(t, isPrimary)

	isPrimary, err = f.IsPrimary(secondaryID)
	require.NoError(t, err)
	assert.False(t, isPrimary)

	require.NoError(t, f.SetAsPrimary(secondaryID))

	isPrimary, err = f.IsPrimary(secondaryID)
	require.NoError(t, err)
	assert.True(t, isPrimary)

	isPrimary, err = f.IsPrimary(primaryID)
	require.NoError(t, err)
	assert.False(t, isPrimary)
}

func TestGetAndSetDisplayModes(t *testing.T) {
	fake := twoMonitorFake()
	f := New(fake)
	secondaryID := deviceID(fake, 1)

	modes, err := f.GetCurrentDisplayModes([]string{secondaryID})
	require.NoError(t, err)
	require.Contains(t, modes, secondaryID)
	assert.Equal(t, uint32(2560), modes[secondaryID].Resolution.Width)

	want := types.DisplayMode{
		Resolution:  types.Resolution{Width: 1280, Height: 720},
		RefreshRate: types.Rational{Numerator: 60, Denominator: 1},
	}
	require.NoError(t, f.SetDisplayModes(map[string]types.DisplayMode{secondaryID: want}))

	got, err := f.GetCurrentDisplayModes([]string{secondaryID})
	require.NoError(t, err)
	assert.Equal(t, want, got[secondaryID])
}

func TestSetDisplayModesRejectsInactiveDevice(t *testing.T) {
	fake := twoMonitorFake()
	fake.Devices[1].Active = false
	f := New(fake)
	secondaryID := deviceID(fake, 1)

	err := f.SetDisplayModes(map[string]types.DisplayMode{
		secondaryID: {Resolution: types.Resolution{Width: 800, Height: 600}},
	})
	assert.Error(t, err)
}

func TestGetAndSetHdrStates(t *testing.T) {
	fake := twoMonitorFake()
	f := New(fake)
	primaryID := deviceID(fake, 0)
	secondaryID := deviceID(fake, 1)

	states, err := f.GetCurrentHdrStates([]string{primaryID, secondaryID})
	require.NoError(t, err)
	require.NotNil(t, states[primaryID])
	assert.Equal(t, types.HdrStateDisabled, *states[primaryID])
	assert.Nil(t, states[secondaryID])

	enabled := types.HdrStateEnabled
	require.NoError(t, f.SetHdrStates(map[string]*types.HdrState{primaryID: &enabled}))

	states, err = f.GetCurrentHdrStates([]string{primaryID})
	require.NoError(t, err)
	assert.Equal(t, types.HdrStateEnabled, *states[primaryID])
}

func TestSetHdrStatesRejectsUnsupportedDevice(t *testing.T) {
	fake := twoMonitorFake()
	f := New(fake)
	secondaryID := deviceID(fake, 1)

	enabled := types.HdrStateEnabled
	err := f.SetHdrStates(map[string]*types.HdrState{secondaryID: &enabled})
	assert.Error(t, err)
}

func TestSetTopologyActivatesCloneGroupAndDeactivatesOthers(t *testing.T) {
	fake := twoMonitorFake()
	f := New(fake)
	primaryID := deviceID(fake, 0)
	secondaryID := deviceID(fake, 1)

	require.NoError(t, f.SetTopology(types.ActiveTopology{{primaryID}}))

	topo, err := f.GetCurrentTopology()
	require.NoError(t, err)
	assert.True(t, f.IsTopologyTheSame(topo, types.ActiveTopology{{primaryID}}))

	devices, err := f.EnumerateDevices()
	require.NoError(t, err)
	for _, d := range devices {
		if d.DeviceID == secondaryID {
			assert.Nil(t, d.Info)
		}
	}
}

func TestSetTopologyRejectsInvalidTopology(t *testing.T) {
	fake := twoMonitorFake()
	f := New(fake)
	id := deviceID(fake, 0)

	err := f.SetTopology(types.ActiveTopology{{}, {id}})
	assert.Error(t, err)
}

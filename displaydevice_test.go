package displaydevice

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/device"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/persistence"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/settings"
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
		},
		winapitest.DeviceFixture{
			AdapterID:    luid(1),
			SourceID:     1,
			TargetID:     1,
			DevicePath:   `\\?\DISPLAY#SECONDARY#1`,
			FriendlyName: "Secondary Monitor",
			DisplayName:  `\\.\DISPLAY2`,
			Edid:         []byte("secondary-edid"),
			Active:       false,
			SourceMode:   winapi.SourceMode{Width: 2560, Height: 1440, Position: winapi.Point{X: 1920, Y: 0}},
			TargetMode: winapi.TargetMode{VideoSignalInfo: winapi.VideoSignalInfo{
				ActiveSize: winapi.Region2D{Cx: 2560, Cy: 1440},
			}},
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

func newTestService(t *testing.T) (*Service, *winapitest.Fake) {
	t.Helper()
	fake := twoMonitorFake()
	facade := device.New(fake)
	store := persistence.NewFileStore(filepath.Join(t.TempDir(), "settings.json"))
	manager := settings.NewManager(facade, store, settings.Workarounds{})
	return NewWithEngine(manager), fake
}

func TestServiceEnumAvailableDevices(t *testing.T) {
	svc, fake := newTestService(t)

	devices, err := svc.EnumAvailableDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)

	primaryID := deviceID(fake, 0)
	for _, d := range devices {
		if d.DeviceID == primaryID {
			require.NotNil(t, d.Info)
			assert.True(t, d.Info.Primary)
		}
	}
}

func TestServiceGetDisplayName(t *testing.T) {
	svc, fake := newTestService(t)

	name, err := svc.GetDisplayName(context.Background(), deviceID(fake, 0))
	require.NoError(t, err)
	assert.Equal(t, `\\.\DISPLAY1`, name)
}

func TestServiceApplyThenRevertRoundTrips(t *testing.T) {
	svc, fake := newTestService(t)
	secondaryID := deviceID(fake, 1)

	result, err := svc.ApplySettings(context.Background(), types.SingleDisplayConfiguration{
		DeviceID:   secondaryID,
		DevicePrep: types.EnsurePrimary,
	})
	require.NoError(t, err)
	assert.Equal(t, types.ApplyOk, result)

	isPrimary, err := svc.Engine().Device().IsPrimary(secondaryID)
	require.NoError(t, err)
	assert.True(t, isPrimary)

	revertResult, err := svc.RevertSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.RevertOk, revertResult)

	primaryID := deviceID(fake, 0)
	isPrimary, err = svc.Engine().Device().IsPrimary(primaryID)
	require.NoError(t, err)
	assert.True(t, isPrimary)
}

func TestServiceResetPersistence(t *testing.T) {
	svc, fake := newTestService(t)
	secondaryID := deviceID(fake, 1)

	_, err := svc.ApplySettings(context.Background(), types.SingleDisplayConfiguration{
		DeviceID:   secondaryID,
		DevicePrep: types.EnsureActive,
	})
	require.NoError(t, err)

	ok, err := svc.ResetPersistence(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	// With persistence cleared, reverting is a no-op: there is nothing to
	// undo anymore.
	revertResult, err := svc.RevertSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.RevertOk, revertResult)
}

func TestServiceRejectsCanceledContext(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.EnumAvailableDevices(ctx)
	assert.Error(t, err)

	_, err = svc.ApplySettings(ctx, types.SingleDisplayConfiguration{})
	assert.Error(t, err)
}

func TestScheduledServiceApplyAndRevert(t *testing.T) {
	fake := twoMonitorFake()
	facade := device.New(fake)
	store := persistence.NewFileStore(filepath.Join(t.TempDir(), "settings.json"))
	manager := settings.NewManager(facade, store, settings.Workarounds{})

	svc := NewScheduledService(manager)
	defer svc.Close()

	secondaryID := deviceID(fake, 1)
	result, err := svc.ApplySettings(context.Background(), types.SingleDisplayConfiguration{
		DeviceID:   secondaryID,
		DevicePrep: types.EnsureActive,
	})
	require.NoError(t, err)
	assert.Equal(t, types.ApplyOk, result)

	revertResult, err := svc.RevertSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.RevertOk, revertResult)
}

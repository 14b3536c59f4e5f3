package settings

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
)

// fakeDevice is an in-memory stand-in for DeviceAPI, driven entirely by
// plain maps so tests can assert on committed state without a real display.
type fakeDevice struct {
	allDeviceIDs []string
	topology     types.ActiveTopology
	modes        map[string]types.DisplayMode
	hdrSupported map[string]bool
	hdr          map[string]*types.HdrState
	primaries    map[string]bool

	setTopologyErr error
	setModesErr    error
	setPrimaryErr  error
	setHdrErr      error

	enumerateCalls int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		modes:        map[string]types.DisplayMode{},
		hdr:          map[string]*types.HdrState{},
		hdrSupported: map[string]bool{},
		primaries:    map[string]bool{},
	}
}

// setPrimaries replaces the fake's simultaneous-primary set, for
// constructing test scenarios with more than one primary device at once.
func (f *fakeDevice) setPrimaries(ids ...string) {
	f.primaries = map[string]bool{}
	for _, id := range ids {
		f.primaries[id] = true
	}
}

func (f *fakeDevice) activeSet() map[string]bool {
	out := map[string]bool{}
	for _, g := range f.topology {
		for _, id := range g {
			out[id] = true
		}
	}
	return out
}

func (f *fakeDevice) EnumerateDevices() ([]types.EnumeratedDevice, error) {
	f.enumerateCalls++
	active := f.activeSet()
	var out []types.EnumeratedDevice
	for _, id := range f.allDeviceIDs {
		d := types.EnumeratedDevice{DeviceID: id, FriendlyName: id}
		if active[id] {
			mode := f.modes[id]
			var hdrState *types.HdrState
			if f.hdrSupported[id] {
				s := types.HdrStateDisabled
				if st, ok := f.hdr[id]; ok && st != nil {
					s = *st
				}
				hdrState = &s
			}
			d.Info = &types.DeviceInfo{
				Resolution:  mode.Resolution,
				RefreshRate: types.NewFloatingPointRational(mode.RefreshRate),
				Primary:     f.primaries[id],
				HdrState:    hdrState,
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDevice) GetDisplayName(id string) (string, error) { return id, nil }

func (f *fakeDevice) GetCurrentTopology() (types.ActiveTopology, error) { return f.topology.Clone(), nil }

func (f *fakeDevice) IsTopologyValid(topo types.ActiveTopology) bool {
	if len(topo) == 0 {
		return false
	}
	for _, g := range topo {
		if len(g) == 0 || len(g) > 2 {
			return false
		}
	}
	return true
}

func (f *fakeDevice) IsTopologyTheSame(a, b types.ActiveTopology) bool { return a.Equal(b) }

func (f *fakeDevice) SetTopology(newTopology types.ActiveTopology) error {
	if f.setTopologyErr != nil {
		err := f.setTopologyErr
		f.setTopologyErr = nil
		return err
	}
	f.topology = newTopology.Clone()
	surviving := map[string]bool{}
	for id := range f.primaries {
		if f.topology.ContainsDevice(id) {
			surviving[id] = true
		}
	}
	if len(surviving) == 0 && len(f.topology) > 0 {
		surviving[f.topology[0][0]] = true
	}
	f.primaries = surviving
	return nil
}

func (f *fakeDevice) GetCurrentDisplayModes(ids []string) (map[string]types.DisplayMode, error) {
	active := f.activeSet()
	out := map[string]types.DisplayMode{}
	for _, id := range ids {
		if active[id] {
			out[id] = f.modes[id]
		}
	}
	return out, nil
}

func (f *fakeDevice) SetDisplayModes(modes map[string]types.DisplayMode) error {
	if f.setModesErr != nil {
		err := f.setModesErr
		f.setModesErr = nil
		return err
	}
	for id, mode := range modes {
		f.modes[id] = mode
	}
	return nil
}

func (f *fakeDevice) GetCurrentHdrStates(ids []string) (map[string]*types.HdrState, error) {
	active := f.activeSet()
	out := map[string]*types.HdrState{}
	for _, id := range ids {
		if !active[id] {
			continue
		}
		if !f.hdrSupported[id] {
			out[id] = nil
			continue
		}
		s := types.HdrStateDisabled
		if st, ok := f.hdr[id]; ok && st != nil {
			s = *st
		}
		out[id] = &s
	}
	return out, nil
}

func (f *fakeDevice) SetHdrStates(states map[string]*types.HdrState) error {
	if f.setHdrErr != nil {
		err := f.setHdrErr
		f.setHdrErr = nil
		return err
	}
	for id, want := range states {
		if want == nil {
			continue
		}
		s := *want
		f.hdr[id] = &s
	}
	return nil
}

func (f *fakeDevice) IsPrimary(id string) (bool, error) { return f.primaries[id], nil }

func (f *fakeDevice) SetAsPrimary(id string) error {
	if f.setPrimaryErr != nil {
		err := f.setPrimaryErr
		f.setPrimaryErr = nil
		return err
	}
	f.setPrimaries(id)
	return nil
}

// fakeStore is an in-memory stand-in for PersistenceStore.
type fakeStore struct {
	data     []byte
	storeErr error
	clearErr error
}

func (s *fakeStore) Store(data []byte) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *fakeStore) Load() ([]byte, error) { return s.data, nil }

func (s *fakeStore) Clear() error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.data = nil
	return nil
}

func baseFakeDevice() *fakeDevice {
	d := newFakeDevice()
	d.allDeviceIDs = []string{"a", "b"}
	d.topology = types.ActiveTopology{{"a"}}
	d.setPrimaries("a")
	d.modes["a"] = types.DisplayMode{
		Resolution:  types.Resolution{Width: 1920, Height: 1080},
		RefreshRate: types.Rational{Numerator: 60, Denominator: 1},
	}
	d.hdrSupported["a"] = true
	return d
}

func TestApplySettingsEnsureActiveAddsDevice(t *testing.T) {
	dev := baseFakeDevice()
	dev.modes["b"] = types.DisplayMode{Resolution: types.Resolution{Width: 1280, Height: 720}}
	store := &fakeStore{}
	m := NewManager(dev, store, Workarounds{})

	result, err := m.ApplySettings(types.SingleDisplayConfiguration{
		DeviceID:   "b",
		DevicePrep: types.EnsureActive,
	})
	require.NoError(t, err)
	assert.Equal(t, types.ApplyOk, result)
	assert.True(t, dev.topology.Equal(types.ActiveTopology{{"a"}, {"b"}}))
	assert.NotEmpty(t, store.data)
}

func TestApplySettingsEnsurePrimarySyncsAdditionalPrimaries(t *testing.T) {
	dev := baseFakeDevice()
	dev.topology = types.ActiveTopology{{"a", "b"}}
	dev.modes["b"] = dev.modes["a"]

	store := &fakeStore{}
	m := NewManager(dev, store, Workarounds{})

	width := uint32(2560)
	newRes := types.Resolution{Width: width, Height: 1440}
	result, err := m.ApplySettings(types.SingleDisplayConfiguration{
		DeviceID:   "b",
		DevicePrep: types.EnsurePrimary,
		Resolution: &newRes,
	})
	require.NoError(t, err)
	assert.Equal(t, types.ApplyOk, result)
	assert.True(t, dev.primaries["b"])
	assert.Equal(t, newRes, dev.modes["a"].Resolution)
	assert.Equal(t, newRes, dev.modes["b"].Resolution)
}

// TestApplySettingsEnsureOnlyDisplayScopesAdditionalPrimariesToInitialGroup
// reproduces the worked example from spec §8 scenario 3: initial topology
// [["DeviceId1","DeviceId2"],["DeviceId3"]] with primaries {DeviceId1,
// DeviceId2}, requesting EnsureOnlyDisplay for a fourth, ungrouped device.
// DeviceId1/DeviceId2 were never grouped with the requested device, so they
// must not be pulled into the new singleton topology.
func TestApplySettingsEnsureOnlyDisplayScopesAdditionalPrimariesToInitialGroup(t *testing.T) {
	dev := newFakeDevice()
	dev.allDeviceIDs = []string{"DeviceId1", "DeviceId2", "DeviceId3", "DeviceId4"}
	dev.topology = types.ActiveTopology{{"DeviceId1", "DeviceId2"}, {"DeviceId3"}}
	dev.setPrimaries("DeviceId1", "DeviceId2")
	for _, id := range dev.allDeviceIDs {
		dev.modes[id] = types.DisplayMode{
			Resolution:  types.Resolution{Width: 1920, Height: 1080},
			RefreshRate: types.Rational{Numerator: 60, Denominator: 1},
		}
	}
	store := &fakeStore{}
	m := NewManager(dev, store, Workarounds{})

	result, err := m.ApplySettings(types.SingleDisplayConfiguration{
		DeviceID:   "DeviceId4",
		DevicePrep: types.EnsureOnlyDisplay,
	})
	require.NoError(t, err)
	assert.Equal(t, types.ApplyOk, result)
	assert.True(t, dev.topology.Equal(types.ActiveTopology{{"DeviceId4"}}))
	assert.True(t, dev.primaries["DeviceId4"])
}

// TestApplySettingsEnsureOnlyDisplayPullsInCoGroupedPrimary verifies the
// positive side of the same fix: when the requested device IS already
// grouped with another primary in the initial topology, that co-grouped
// primary is carried into the new singleton topology.
func TestApplySettingsEnsureOnlyDisplayPullsInCoGroupedPrimary(t *testing.T) {
	dev := newFakeDevice()
	dev.allDeviceIDs = []string{"DeviceId1", "DeviceId2", "DeviceId3"}
	dev.topology = types.ActiveTopology{{"DeviceId1", "DeviceId2"}, {"DeviceId3"}}
	dev.setPrimaries("DeviceId1", "DeviceId2")
	for _, id := range dev.allDeviceIDs {
		dev.modes[id] = types.DisplayMode{
			Resolution:  types.Resolution{Width: 1920, Height: 1080},
			RefreshRate: types.Rational{Numerator: 60, Denominator: 1},
		}
	}
	store := &fakeStore{}
	m := NewManager(dev, store, Workarounds{})

	result, err := m.ApplySettings(types.SingleDisplayConfiguration{
		DeviceID:   "DeviceId1",
		DevicePrep: types.EnsureOnlyDisplay,
	})
	require.NoError(t, err)
	assert.Equal(t, types.ApplyOk, result)
	assert.True(t, dev.topology.Equal(types.ActiveTopology{{"DeviceId1", "DeviceId2"}}))
}

func TestApplySettingsRollsBackOnHdrFailure(t *testing.T) {
	dev := baseFakeDevice()
	dev.setHdrErr = assert.AnError
	store := &fakeStore{}
	m := NewManager(dev, store, Workarounds{})

	enabled := types.HdrStateEnabled
	result, err := m.ApplySettings(types.SingleDisplayConfiguration{
		DeviceID:   "a",
		DevicePrep: types.VerifyOnly,
		HdrState:   &enabled,
	})
	assert.Error(t, err)
	assert.Equal(t, types.ApplyHdrStatePrepFailed, result)
	assert.Empty(t, store.data)
	assert.True(t, dev.topology.Equal(types.ActiveTopology{{"a"}}))
}

func TestApplySettingsTransientErrorMapsToApiTemporarilyUnavailable(t *testing.T) {
	dev := baseFakeDevice()
	dev.setTopologyErr = syscall.Errno(31)
	store := &fakeStore{}
	m := NewManager(dev, store, Workarounds{})

	result, err := m.ApplySettings(types.SingleDisplayConfiguration{
		DeviceID:   "b",
		DevicePrep: types.EnsureActive,
	})
	assert.Error(t, err)
	assert.Equal(t, types.ApplyApiTemporarilyUnavailable, result)
}

func TestRevertSettingsRestoresInitialState(t *testing.T) {
	dev := baseFakeDevice()
	dev.modes["b"] = types.DisplayMode{Resolution: types.Resolution{Width: 1280, Height: 720}}
	store := &fakeStore{}
	m := NewManager(dev, store, Workarounds{})

	_, err := m.ApplySettings(types.SingleDisplayConfiguration{
		DeviceID:   "b",
		DevicePrep: types.EnsurePrimary,
	})
	require.NoError(t, err)
	require.True(t, dev.primaries["b"])

	result, err := m.RevertSettings()
	require.NoError(t, err)
	assert.Equal(t, types.RevertOk, result)
	assert.True(t, dev.primaries["a"])
	assert.True(t, dev.topology.Equal(types.ActiveTopology{{"a"}}))
}

func TestRevertSettingsWithNoModifiedStateIsNoop(t *testing.T) {
	dev := baseFakeDevice()
	store := &fakeStore{data: []byte(`{"initial":{"topology":[["a"]],"primary_devices":["a"]}}`)}
	m := NewManager(dev, store, Workarounds{})

	result, err := m.RevertSettings()
	require.NoError(t, err)
	assert.Equal(t, types.RevertOk, result)
	assert.Equal(t, 0, dev.enumerateCalls)
}

func TestRevertSettingsFailsWhenNoPrimarySurvives(t *testing.T) {
	dev := baseFakeDevice()
	store := &fakeStore{}
	m := NewManager(dev, store, Workarounds{})

	_, err := m.ApplySettings(types.SingleDisplayConfiguration{
		DeviceID:   "a",
		DevicePrep: types.VerifyOnly,
	})
	require.NoError(t, err)

	// Simulate the device vanishing entirely.
	dev.allDeviceIDs = nil
	dev.topology = nil

	result, err := m.RevertSettings()
	assert.Error(t, err)
	assert.Equal(t, types.RevertTopologyIsInvalid, result)
}

func TestResetPersistenceClearsStoreAndInMemoryState(t *testing.T) {
	dev := baseFakeDevice()
	store := &fakeStore{}
	m := NewManager(dev, store, Workarounds{})

	_, err := m.ApplySettings(types.SingleDisplayConfiguration{DeviceID: "a", DevicePrep: types.VerifyOnly})
	require.NoError(t, err)
	require.NotEmpty(t, store.data)

	ok, err := m.ResetPersistence()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, store.data)

	initial, err := m.computeInitialState()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, initial.PrimaryDevices)
}

func TestAudioContextRoundTrips(t *testing.T) {
	m := NewManager(baseFakeDevice(), &fakeStore{}, Workarounds{})
	m.SetAudioContext(42)
	assert.Equal(t, 42, m.AudioContext())
}

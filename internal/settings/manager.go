package settings

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/logging"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
)

// Manager is the concrete Settings Engine. It is not internally locked —
// callers (typically a retry.Scheduler) are expected to mediate concurrent
// access; layering more than one scheduler over the same Manager is
// unsupported.
type Manager struct {
	device      DeviceAPI
	store       PersistenceStore
	workarounds Workarounds

	// audioContext threads an opaque collaborator (e.g. audio ducking)
	// through the engine for a host's own use. It is only stored by
	// SetAudioContext and returned by AudioContext; apply/revert never use it.
	audioContext any

	state *types.SingleDisplayConfigState
}

var _ Interface = (*Manager)(nil)

// NewManager constructs a Settings Engine over device and store.
func NewManager(device DeviceAPI, store PersistenceStore, workarounds Workarounds) *Manager {
	return &Manager{device: device, store: store, workarounds: workarounds}
}

// SetAudioContext attaches an opaque collaborator for a host's own use.
func (m *Manager) SetAudioContext(ctx any) { m.audioContext = ctx }

// AudioContext returns whatever was last attached via SetAudioContext.
func (m *Manager) AudioContext() any { return m.audioContext }

// Device exposes the underlying DeviceAPI, for a host that needs
// enumeration/display-name lookups alongside the apply/revert surface of
// Interface.
func (m *Manager) Device() DeviceAPI { return m.device }

// guardStack collects compensating rollback closures as an apply/revert
// progresses, so a later failure can unwind every prior step in LIFO order.
type guardStack struct {
	guards []func()
}

func (g *guardStack) push(undo func()) {
	g.guards = append(g.guards, undo)
}

func (g *guardStack) unwind() {
	for i := len(g.guards) - 1; i >= 0; i-- {
		g.guards[i]()
	}
	g.guards = nil
}

func (g *guardStack) release() {
	g.guards = nil
}

// computeInitialState returns the engine's Initial baseline, reusing a
// persisted one if present, else deriving it from the platform's current
// topology and primary devices.
func (m *Manager) computeInitialState() (types.InitialState, error) {
	if m.state != nil {
		return m.state.Initial, nil
	}

	persisted, ok, err := m.loadPersisted()
	if err != nil {
		return types.InitialState{}, err
	}
	if ok {
		m.state = persisted
		return persisted.Initial, nil
	}

	topo, err := m.device.GetCurrentTopology()
	if err != nil {
		return types.InitialState{}, fmt.Errorf("settings: query current topology: %w", err)
	}
	devices, err := m.device.EnumerateDevices()
	if err != nil {
		return types.InitialState{}, fmt.Errorf("settings: enumerate devices: %w", err)
	}

	var primaries []string
	for _, d := range devices {
		if d.Info != nil && d.Info.Primary {
			primaries = append(primaries, d.DeviceID)
		}
	}
	if len(primaries) == 0 {
		return types.InitialState{}, errors.New("settings: no usable primary display found")
	}

	initial := types.InitialState{Topology: topo, PrimaryDevices: primaries}
	m.state = &types.SingleDisplayConfigState{Initial: initial}
	return initial, nil
}

// loadPersisted reads and decodes the persisted state blob. An absent or
// empty blob is not an error: it reports ok=false.
func (m *Manager) loadPersisted() (*types.SingleDisplayConfigState, bool, error) {
	data, err := m.store.Load()
	if err != nil {
		return nil, false, fmt.Errorf("settings: load persisted state: %w", err)
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	var state types.SingleDisplayConfigState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, false, fmt.Errorf("settings: decode persisted state: %w", err)
	}
	return &state, true, nil
}

// persist serializes state and writes it to the store.
func (m *Manager) persist(state *types.SingleDisplayConfigState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("settings: encode state: %w", err)
	}
	if err := m.store.Store(data); err != nil {
		logging.Errorf("settings: failed to persist state: %v", err)
		return err
	}
	return nil
}

func currentPrimaryDeviceID(devices []types.EnumeratedDevice) string {
	for _, d := range devices {
		if d.Info != nil && d.Info.Primary {
			return d.DeviceID
		}
	}
	return ""
}

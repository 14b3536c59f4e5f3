package settings

import (
	"errors"
	"fmt"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/logging"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
)

// RevertSettings undoes the last ApplySettings, restoring the captured
// Initial topology/modes/HDR/primary and clearing the persisted Modified
// blob. A device that has disappeared since the apply (e.g. unplugged) is
// pruned from the restored state rather than failing the whole revert,
// unless pruning empties out every surviving primary.
func (m *Manager) RevertSettings() (types.RevertResult, error) {
	if m.state == nil {
		persisted, ok, err := m.loadPersisted()
		if err != nil {
			return types.RevertApiTemporarilyUnavailable, err
		}
		if !ok {
			return types.RevertOk, nil
		}
		m.state = persisted
	}
	if m.state.Modified == nil {
		return types.RevertOk, nil
	}

	devices, err := m.device.EnumerateDevices()
	if err != nil {
		return types.RevertApiTemporarilyUnavailable, fmt.Errorf("settings: enumerate devices: %w", err)
	}
	present := make(map[string]bool, len(devices))
	for _, d := range devices {
		present[d.DeviceID] = true
	}

	initial := pruneInitialState(m.state.Initial, present)
	if len(initial.PrimaryDevices) == 0 {
		return types.RevertTopologyIsInvalid, errors.New("settings: no initial primary device survived")
	}
	modified := pruneModifiedState(m.state.Modified, present)

	revertTargets := unionKeys(modified.OriginalModes, modified.OriginalHdrStates)
	if modified.OriginalPrimaryDevice != "" {
		revertTargets = appendUnique(revertTargets, modified.OriginalPrimaryDevice)
	}

	currentModes, err := m.device.GetCurrentDisplayModes(revertTargets)
	if err != nil {
		return types.RevertApiTemporarilyUnavailable, fmt.Errorf("settings: snapshot current display modes: %w", err)
	}
	currentHdr, err := m.device.GetCurrentHdrStates(revertTargets)
	if err != nil {
		return types.RevertApiTemporarilyUnavailable, fmt.Errorf("settings: snapshot current HDR states: %w", err)
	}
	currentPrimary := currentPrimaryDeviceID(devices)

	guards := &guardStack{}

	// 2. Topology.
	if err := m.device.SetTopology(initial.Topology); err != nil {
		if isTransient(err) {
			return types.RevertApiTemporarilyUnavailable, err
		}
		return types.RevertSwitchingTopologyFailed, err
	}
	guards.push(func() {
		if err := m.device.SetTopology(modified.Topology); err != nil {
			logging.Errorf("settings: rollback revert set_topology failed: %v", err)
		}
	})

	// 3. Display modes.
	if len(modified.OriginalModes) > 0 {
		if err := m.device.SetDisplayModes(modified.OriginalModes); err != nil {
			guards.unwind()
			if isTransient(err) {
				return types.RevertApiTemporarilyUnavailable, err
			}
			return types.RevertingDisplayModesFailed, err
		}
		guards.push(func() {
			if len(currentModes) > 0 {
				if err := m.device.SetDisplayModes(currentModes); err != nil {
					logging.Errorf("settings: rollback revert set_display_modes failed: %v", err)
				}
			}
		})
	}

	// 4. Primary device.
	if modified.OriginalPrimaryDevice != "" {
		if err := m.device.SetAsPrimary(modified.OriginalPrimaryDevice); err != nil {
			guards.unwind()
			if isTransient(err) {
				return types.RevertApiTemporarilyUnavailable, err
			}
			return types.RevertingPrimaryDeviceFailed, err
		}
		guards.push(func() {
			if currentPrimary != "" {
				if err := m.device.SetAsPrimary(currentPrimary); err != nil {
					logging.Errorf("settings: rollback revert set_as_primary failed: %v", err)
				}
			}
		})
	}

	// 5. HDR states.
	if len(modified.OriginalHdrStates) > 0 {
		if err := m.device.SetHdrStates(modified.OriginalHdrStates); err != nil {
			guards.unwind()
			if isTransient(err) {
				return types.RevertApiTemporarilyUnavailable, err
			}
			return types.RevertingHdrStatesFailed, err
		}
		guards.push(func() {
			if len(currentHdr) > 0 {
				if err := m.device.SetHdrStates(currentHdr); err != nil {
					logging.Errorf("settings: rollback revert set_hdr_states failed: %v", err)
				}
			}
		})
	}

	// 6. Clear Modified, keeping Initial as the new baseline.
	newState := &types.SingleDisplayConfigState{Initial: initial}
	if err := m.persist(newState); err != nil {
		guards.unwind()
		return types.RevertPersistenceSaveFailed, err
	}

	// 7. Release guards without invoking them.
	guards.release()
	m.state = newState
	return types.RevertOk, nil
}

// ResetPersistence unconditionally clears the persisted state, for use
// when a revert is no longer possible (e.g. the monitor was physically
// removed) and the caller accepts the current state as a new baseline.
func (m *Manager) ResetPersistence() (bool, error) {
	if err := m.store.Clear(); err != nil {
		return false, err
	}
	m.state = nil
	return true, nil
}

func pruneInitialState(initial types.InitialState, present map[string]bool) types.InitialState {
	var prunedTopology types.ActiveTopology
	for _, group := range initial.Topology {
		var g []string
		for _, id := range group {
			if present[id] {
				g = append(g, id)
			}
		}
		if len(g) > 0 {
			prunedTopology = append(prunedTopology, g)
		}
	}
	var prunedPrimaries []string
	for _, id := range initial.PrimaryDevices {
		if present[id] {
			prunedPrimaries = append(prunedPrimaries, id)
		}
	}
	return types.InitialState{Topology: prunedTopology, PrimaryDevices: prunedPrimaries}
}

func pruneModifiedState(modified *types.ModifiedState, present map[string]bool) *types.ModifiedState {
	out := &types.ModifiedState{
		Topology:              modified.Topology,
		OriginalPrimaryDevice: modified.OriginalPrimaryDevice,
	}
	if !present[out.OriginalPrimaryDevice] {
		out.OriginalPrimaryDevice = ""
	}
	if len(modified.OriginalModes) > 0 {
		out.OriginalModes = make(map[string]types.DisplayMode, len(modified.OriginalModes))
		for id, mode := range modified.OriginalModes {
			if present[id] {
				out.OriginalModes[id] = mode
			}
		}
	}
	if len(modified.OriginalHdrStates) > 0 {
		out.OriginalHdrStates = make(map[string]*types.HdrState, len(modified.OriginalHdrStates))
		for id, state := range modified.OriginalHdrStates {
			if present[id] {
				out.OriginalHdrStates[id] = state
			}
		}
	}
	return out
}

func unionKeys(modes map[string]types.DisplayMode, hdr map[string]*types.HdrState) []string {
	seen := make(map[string]bool, len(modes)+len(hdr))
	var out []string
	for id := range modes {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for id := range hdr {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

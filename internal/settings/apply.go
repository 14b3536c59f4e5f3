package settings

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/logging"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
)

// errGenFailure is ERROR_GEN_FAILURE, the Windows CCD error code the
// platform layer returns for display-reconfiguration requests that may
// succeed if simply retried (e.g. another reconfiguration is mid-flight).
const errGenFailure = syscall.Errno(31)

// isTransient reports whether err wraps the platform's transient error code.
func isTransient(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == errGenFailure
}

// ApplySettings computes and commits a new single-display configuration
// from config, snapshotting the pre-change state as a rollback baseline
// and persisting the result so it can be reverted later.
func (m *Manager) ApplySettings(config types.SingleDisplayConfiguration) (types.ApplyResult, error) {
	initial, err := m.computeInitialState()
	if err != nil {
		return types.ApplyDevicePrepFailed, err
	}

	deviceID := config.DeviceID
	if deviceID == "" {
		if len(initial.PrimaryDevices) == 0 {
			return types.ApplyDevicePrepFailed, errors.New("settings: no device_id given and no initial primary to default to")
		}
		deviceID = initial.PrimaryDevices[0]
	}

	additionalPrimaries := groupedPrimaries(initial.Topology, initial.PrimaryDevices, deviceID)

	newTopology := computeNewTopology(initial.Topology, deviceID, additionalPrimaries, config.DevicePrep)

	becomesPrimary := config.DevicePrep == types.EnsurePrimary || config.DevicePrep == types.EnsureOnlyDisplay
	modeTargets := []string{deviceID}
	if becomesPrimary {
		modeTargets = append(modeTargets, additionalPrimaries...)
	}

	newModes, err := m.computeNewModes(modeTargets, config)
	if err != nil {
		return types.ApplyDisplayModePrepFailed, err
	}
	newHdr := computeNewHdr(modeTargets, config)

	var newPrimary string
	if becomesPrimary {
		newPrimary = deviceID
	}

	// 1. Snapshot current state as this apply's rollback baseline.
	currentTopology, err := m.device.GetCurrentTopology()
	if err != nil {
		return types.ApplyApiTemporarilyUnavailable, fmt.Errorf("settings: snapshot current topology: %w", err)
	}
	currentModes, err := m.device.GetCurrentDisplayModes(modeTargets)
	if err != nil {
		return types.ApplyApiTemporarilyUnavailable, fmt.Errorf("settings: snapshot current display modes: %w", err)
	}
	currentHdr, err := m.device.GetCurrentHdrStates(modeTargets)
	if err != nil {
		return types.ApplyApiTemporarilyUnavailable, fmt.Errorf("settings: snapshot current HDR states: %w", err)
	}
	devices, err := m.device.EnumerateDevices()
	if err != nil {
		return types.ApplyApiTemporarilyUnavailable, fmt.Errorf("settings: snapshot enumerate devices: %w", err)
	}
	currentPrimary := currentPrimaryDeviceID(devices)

	guards := &guardStack{}

	// 2. Topology.
	if !m.device.IsTopologyTheSame(currentTopology, newTopology) {
		if err := m.device.SetTopology(newTopology); err != nil {
			if isTransient(err) {
				return types.ApplyApiTemporarilyUnavailable, err
			}
			return types.ApplyDevicePrepFailed, err
		}
		guards.push(func() {
			if err := m.device.SetTopology(currentTopology); err != nil {
				logging.Errorf("settings: rollback set_topology failed: %v", err)
			}
		})
	}

	// 3. Display modes.
	if len(newModes) > 0 {
		if err := m.device.SetDisplayModes(newModes); err != nil {
			guards.unwind()
			if isTransient(err) {
				return types.ApplyApiTemporarilyUnavailable, err
			}
			return types.ApplyDisplayModePrepFailed, err
		}
		guards.push(func() {
			if len(currentModes) > 0 {
				if err := m.device.SetDisplayModes(currentModes); err != nil {
					logging.Errorf("settings: rollback set_display_modes failed: %v", err)
				}
			}
		})
	}

	// 4. Primary device.
	if newPrimary != "" && newPrimary != currentPrimary {
		if err := m.device.SetAsPrimary(newPrimary); err != nil {
			guards.unwind()
			if isTransient(err) {
				return types.ApplyApiTemporarilyUnavailable, err
			}
			return types.ApplyPrimaryDevicePrepFailed, err
		}
		guards.push(func() {
			if currentPrimary != "" {
				if err := m.device.SetAsPrimary(currentPrimary); err != nil {
					logging.Errorf("settings: rollback set_as_primary failed: %v", err)
				}
			}
		})
	}

	// 5. hdr_blank_delay workaround: give a monitor time to stop blanking
	// between a mode change and an HDR toggle. Only waits when at least one
	// requested HDR state differs from the state snapshotted above.
	hdrTransitioning := false
	for id, want := range newHdr {
		if cur := currentHdr[id]; want != nil && (cur == nil || *cur != *want) {
			hdrTransitioning = true
		}
	}
	if m.workarounds.HdrBlankDelay > 0 && hdrTransitioning {
		time.Sleep(m.workarounds.HdrBlankDelay)
	}

	// 6. HDR states.
	if len(newHdr) > 0 {
		if err := m.device.SetHdrStates(newHdr); err != nil {
			guards.unwind()
			if isTransient(err) {
				return types.ApplyApiTemporarilyUnavailable, err
			}
			return types.ApplyHdrStatePrepFailed, err
		}
		guards.push(func() {
			if len(currentHdr) > 0 {
				if err := m.device.SetHdrStates(currentHdr); err != nil {
					logging.Errorf("settings: rollback set_hdr_states failed: %v", err)
				}
			}
		})
	}

	// 7. Persist the updated state: Initial unchanged, Modified records
	// only what this apply actually touched.
	modified := &types.ModifiedState{
		Topology:              newTopology,
		OriginalModes:         filterModesByKeys(currentModes, newModes),
		OriginalHdrStates:     filterHdrByKeys(currentHdr, newHdr),
		OriginalPrimaryDevice: currentPrimary,
	}
	newState := &types.SingleDisplayConfigState{Initial: initial, Modified: modified}
	if err := m.persist(newState); err != nil {
		guards.unwind()
		return types.ApplyPersistenceSaveFailed, err
	}

	// 8. Commit in memory; drop guards without invoking them.
	guards.release()
	m.state = newState
	return types.ApplyOk, nil
}

// groupedPrimaries returns the subset of primaryDevices that shared
// deviceID's topology group in topology, excluding deviceID itself. A device
// not yet present in topology has no group to inherit primaries from.
func groupedPrimaries(topology types.ActiveTopology, primaryDevices []string, deviceID string) []string {
	var group []string
	for _, g := range topology {
		for _, id := range g {
			if id == deviceID {
				group = g
			}
		}
	}
	if group == nil {
		return nil
	}
	inGroup := make(map[string]bool, len(group))
	for _, id := range group {
		inGroup[id] = true
	}

	var additional []string
	for _, id := range primaryDevices {
		if id != deviceID && inGroup[id] {
			additional = append(additional, id)
		}
	}
	return additional
}

// computeNewTopology derives the target topology from device_prep.
func computeNewTopology(initial types.ActiveTopology, deviceID string, additionalPrimaries []string, prep types.DevicePreparation) types.ActiveTopology {
	switch prep {
	case types.EnsureActive, types.EnsurePrimary:
		if initial.ContainsDevice(deviceID) {
			return initial.Clone()
		}
		return append(initial.Clone(), []string{deviceID})
	case types.EnsureOnlyDisplay:
		group := append([]string{deviceID}, additionalPrimaries...)
		return types.ActiveTopology{group}
	default: // VerifyOnly
		return initial.Clone()
	}
}

// computeNewModes builds the target modes for targets from whatever of
// Resolution/RefreshRate the caller specified, layered over each target's
// current mode. Returns nil if neither field was requested.
func (m *Manager) computeNewModes(targets []string, config types.SingleDisplayConfiguration) (map[string]types.DisplayMode, error) {
	if config.Resolution == nil && config.RefreshRate == nil {
		return nil, nil
	}
	current, err := m.device.GetCurrentDisplayModes(targets)
	if err != nil {
		return nil, fmt.Errorf("settings: query current display modes: %w", err)
	}

	out := make(map[string]types.DisplayMode, len(targets))
	for _, id := range targets {
		mode, ok := current[id]
		if !ok {
			continue
		}
		if config.Resolution != nil {
			mode.Resolution = *config.Resolution
		}
		if config.RefreshRate != nil {
			if r, ok := config.RefreshRate.AsRational(); ok {
				mode.RefreshRate = r
			} else {
				hz := config.RefreshRate.Float()
				mode.RefreshRate = types.Rational{Numerator: uint32(hz * 1000), Denominator: 1000}
			}
		}
		out[id] = mode
	}
	return out, nil
}

// computeNewHdr builds the requested HDR state for every target. Returns
// nil if HDR wasn't requested at all.
func computeNewHdr(targets []string, config types.SingleDisplayConfiguration) map[string]*types.HdrState {
	if config.HdrState == nil {
		return nil
	}
	out := make(map[string]*types.HdrState, len(targets))
	for _, id := range targets {
		state := *config.HdrState
		out[id] = &state
	}
	return out
}

func filterModesByKeys(all, keys map[string]types.DisplayMode) map[string]types.DisplayMode {
	if len(keys) == 0 {
		return nil
	}
	out := make(map[string]types.DisplayMode, len(keys))
	for id := range keys {
		if mode, ok := all[id]; ok {
			out[id] = mode
		}
	}
	return out
}

func filterHdrByKeys(all map[string]*types.HdrState, keys map[string]*types.HdrState) map[string]*types.HdrState {
	if len(keys) == 0 {
		return nil
	}
	out := make(map[string]*types.HdrState, len(keys))
	for id := range keys {
		if state, ok := all[id]; ok {
			out[id] = state
		}
	}
	return out
}

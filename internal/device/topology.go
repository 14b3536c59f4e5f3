package device

import (
	"errors"
	"fmt"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/topology"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/winapi"
)

// GetCurrentTopology queries the active display configuration and groups it
// into clone groups by source-mode screen position.
func (f *Facade) GetCurrentTopology() (types.ActiveTopology, error) {
	result, err := f.api.QueryDisplayConfig(true)
	if err != nil {
		return nil, fmt.Errorf("device: query active display config: %w", err)
	}

	resolver := newDeviceIDResolver(f.api)
	return topology.GetCurrentTopology(result, resolver.asTopologyResolver())
}

// IsTopologyValid enforces the group-size and uniqueness invariants a
// topology must hold before it can be committed.
func (f *Facade) IsTopologyValid(topo types.ActiveTopology) bool {
	return topology.IsTopologyValid(topo)
}

// IsTopologyTheSame compares two topologies up to group/device reordering.
func (f *Facade) IsTopologyTheSame(a, b types.ActiveTopology) bool {
	return a.Equal(b)
}

// SetTopology commits newTopology: devices in it are activated (grouped
// per-clone-group, sharing a source id within a group), and every
// currently active path whose device is not part of newTopology is
// deactivated. It re-queries afterward and fails if the committed topology
// doesn't match what was requested.
func (f *Facade) SetTopology(newTopology types.ActiveTopology) error {
	if !topology.IsTopologyValid(newTopology) {
		return errors.New("device: requested topology is not valid")
	}

	result, err := f.api.QueryDisplayConfig(false)
	if err != nil {
		return fmt.Errorf("device: query display config: %w", err)
	}

	resolver := newDeviceIDResolver(f.api)
	resolve := resolver.asTopologyResolver()

	sourceData, err := topology.CollectSourceData(result.Paths, resolve)
	if err != nil {
		return fmt.Errorf("device: collect source data: %w", err)
	}

	selected, ok := topology.MakePathsForNewTopology(newTopology, sourceData, result.Paths, resolve)
	if !ok {
		return errors.New("device: could not build paths for requested topology")
	}

	finalPaths := mergeSelectedPaths(result.Paths, selected)

	if err := f.api.SetDisplayConfig(finalPaths, result.Modes); err != nil {
		return fmt.Errorf("device: set display config: %w", err)
	}

	current, err := f.GetCurrentTopology()
	if err != nil {
		return fmt.Errorf("device: verify topology after commit: %w", err)
	}
	if !current.Equal(newTopology) {
		return errors.New("device: topology did not match the requested one after commit")
	}
	return nil
}

// mergeSelectedPaths returns the full path array to commit: paths chosen by
// MakePathsForNewTopology replace their originals, and every other path is
// forced inactive so no stale active path lingers outside the new topology.
func mergeSelectedPaths(original, selected []winapi.PathInfo) []winapi.PathInfo {
	chosen := make(map[targetKey]winapi.PathInfo, len(selected))
	for _, p := range selected {
		chosen[targetKey{p.TargetInfo.AdapterID, p.TargetInfo.ID}] = p
	}

	final := make([]winapi.PathInfo, 0, len(original))
	for _, p := range original {
		key := targetKey{p.TargetInfo.AdapterID, p.TargetInfo.ID}
		if replacement, ok := chosen[key]; ok {
			final = append(final, replacement)
			continue
		}
		p.SetInactive()
		final = append(final, p)
	}
	return final
}

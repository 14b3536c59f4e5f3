// Package topology implements the topology-shaping utilities from the CCD
// layer: deriving an ActiveTopology from a raw path/mode query, validating
// one, and picking which paths to hand back to SetDisplayConfig for a
// desired topology.
package topology

import (
	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/winapi"
)

// Resolver maps a path to the stable device id of its target, and reports
// whether the path is usable at all (available, has a device id, etc).
// GetCurrentTopology and CollectSourceData take this as a parameter instead
// of calling into winapi directly, so they stay pure and unit-testable.
type Resolver func(path winapi.PathInfo) (deviceID string, ok bool)

// maxGroupSize mirrors the Windows-imposed cap: a clone group's settings UI
// was never designed for more than two duplicated displays.
const maxGroupSize = 2

// GetSourceMode returns the source mode for a path's source index, or false
// if the index is unset, out of range, or points at a non-source entry.
func GetSourceMode(index *uint32, modes []winapi.ModeInfo) (*winapi.SourceMode, bool) {
	if index == nil {
		return nil, false
	}
	return getMode(*index, modes, winapi.ModeInfoTypeSource, (*winapi.ModeInfo).SourceMode)
}

// GetTargetMode returns the target mode for a path's target index, or false
// if the index is unset, out of range, or points at a non-target entry.
func GetTargetMode(index *uint32, modes []winapi.ModeInfo) (*winapi.TargetMode, bool) {
	if index == nil {
		return nil, false
	}
	return getMode(*index, modes, winapi.ModeInfoTypeTarget, (*winapi.ModeInfo).TargetMode)
}

func getMode[T any](index uint32, modes []winapi.ModeInfo, wantType uint32, extract func(*winapi.ModeInfo) *T) (*T, bool) {
	if index >= uint32(len(modes)) {
		return nil, false
	}
	mode := &modes[index]
	if mode.InfoType != wantType {
		return nil, false
	}
	return extract(mode), true
}

// GetCurrentTopology groups active paths by the screen position of their
// source mode: paths that share an (x, y) origin are duplicating the same
// desktop region and therefore belong to the same clone group. An active
// path missing a source mode is invalid and is skipped rather than failing
// the query, yielding an empty or partial topology.
func GetCurrentTopology(result winapi.QueryResult, resolve Resolver) (types.ActiveTopology, error) {
	positionGroup := make(map[[2]int32]int)
	var topo types.ActiveTopology

	for _, path := range result.Paths {
		if !path.IsActive() || !path.IsAvailable() {
			continue
		}
		deviceID, ok := resolve(path)
		if !ok {
			continue
		}

		// An active path with no source mode is invalid and contributes
		// nothing to the topology, rather than failing the whole query.
		idx, ok := path.SourceModeIndex()
		if !ok {
			continue
		}
		sourceMode, ok := GetSourceMode(&idx, result.Modes)
		if !ok {
			continue
		}

		key := [2]int32{sourceMode.Position.X, sourceMode.Position.Y}
		if groupIdx, exists := positionGroup[key]; exists {
			topo[groupIdx] = append(topo[groupIdx], deviceID)
			continue
		}
		positionGroup[key] = len(topo)
		topo = append(topo, []string{deviceID})
	}

	return topo, nil
}

// IsTopologyValid enforces the invariants a topology must hold before it
// can be handed to SetDisplayConfig: non-empty, each group has 1-2 unique
// devices, and no device id repeats across groups.
func IsTopologyValid(topo types.ActiveTopology) bool {
	if len(topo) == 0 {
		return false
	}

	seen := make(map[string]struct{})
	for _, group := range topo {
		if len(group) == 0 || len(group) > maxGroupSize {
			return false
		}
		for _, id := range group {
			if _, dup := seen[id]; dup {
				return false
			}
			seen[id] = struct{}{}
		}
	}
	return true
}

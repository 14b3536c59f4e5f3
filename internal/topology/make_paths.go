package topology

import (
	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/winapi"
)

// MakePathsForNewTopology selects and mutates the subset of paths (from the
// full, unfiltered path list) that together realize newTopology, reusing
// each device's existing source id from sourceData where one is known and
// allocating a fresh one (shared within a clone group, distinct across
// groups on the same adapter) otherwise. It returns false if any requested
// device has no corresponding path, or if an adapter's source id budget is
// exhausted.
func MakePathsForNewTopology(newTopology types.ActiveTopology, sourceData map[string]SourceData, allPaths []winapi.PathInfo, resolve Resolver) ([]winapi.PathInfo, bool) {
	byDevice := make(map[string]winapi.PathInfo, len(allPaths))
	for _, p := range allPaths {
		if !p.IsAvailable() {
			continue
		}
		if id, ok := resolve(p); ok {
			byDevice[id] = p
		}
	}

	used := make(map[winapi.LUID]map[uint32]bool)
	for _, d := range sourceData {
		if used[d.AdapterID] == nil {
			used[d.AdapterID] = make(map[uint32]bool)
		}
		used[d.AdapterID][d.SourceID] = true
	}

	var result []winapi.PathInfo
	for groupIdx, group := range newTopology {
		bases := make([]winapi.PathInfo, len(group))
		for i, deviceID := range group {
			base, ok := byDevice[deviceID]
			if !ok {
				return nil, false
			}
			bases[i] = base
		}

		// A clone group shares one source_id *value*, but that value must be
		// available on every member's own adapter; it never reassigns a
		// device's path to another device's adapter. Reuse an existing
		// assignment if any group member already has one, else allocate the
		// lowest id free on all of the group's adapters at once.
		sharedSourceID, ok := sharedSourceIDFor(group, bases, sourceData, used)
		if !ok {
			return nil, false
		}

		for i := range group {
			base := bases[i]
			path := base
			path.SetActive()
			path.SourceInfo.ID = sharedSourceID

			// Reset the mode indexes to invalid so the driver picks fresh
			// source/target/desktop modes for the new arrangement, rather
			// than reusing indexes that described the old topology.
			path.SetSourceModeIndex(nil)
			path.SetTargetModeIndex(nil)
			path.SetDesktopModeIndex(nil)

			if len(group) > 1 {
				cloneID := uint32(groupIdx)
				path.SetCloneGroupID(&cloneID)
			} else {
				path.SetCloneGroupID(nil)
			}

			used[base.SourceInfo.AdapterID][sharedSourceID] = true
			result = append(result, path)
		}
	}

	return result, true
}

// sharedSourceIDFor picks the source_id value to share across group, reusing
// a device's existing assignment where one exists, otherwise allocating the
// lowest id that is simultaneously free on every member's own adapter.
func sharedSourceIDFor(group []string, bases []winapi.PathInfo, sourceData map[string]SourceData, used map[winapi.LUID]map[uint32]bool) (uint32, bool) {
	for _, deviceID := range group {
		if existing, ok := sourceData[deviceID]; ok {
			return existing.SourceID, true
		}
	}

	for id := uint32(0); id < maxSourceIDsPerAdapter; id++ {
		available := true
		for _, base := range bases {
			if used[base.SourceInfo.AdapterID][id] {
				available = false
				break
			}
		}
		if available {
			for _, base := range bases {
				if used[base.SourceInfo.AdapterID] == nil {
					used[base.SourceInfo.AdapterID] = make(map[uint32]bool)
				}
			}
			return id, true
		}
	}
	return 0, false
}

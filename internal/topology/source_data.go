package topology

import (
	"fmt"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/winapi"
)

// maxSourceIDsPerAdapter is an assumed approximation (not a documented
// exact figure) of the practical Windows limit on how many
// distinct source ids a single adapter can be assigned in one
// SetDisplayConfig call; id assignment gives up once this budget is
// exhausted rather than guessing past what the OS will accept.
const maxSourceIDsPerAdapter = 16

// SourceData is what CollectSourceData records per device: the adapter and
// source id its currently active path (if any) was assigned.
type SourceData struct {
	AdapterID winapi.LUID
	SourceID  uint32
}

// CollectSourceData walks the current paths and builds a device_id ->
// (adapter, source id) lookup, used later so that a device keeps its
// existing source id across a topology change whenever Windows has already
// picked one for it. Active paths are processed before inactive ones so an
// active assignment always wins a conflict; a genuine bijection violation
// (two different assignments surviving for one device id) is an error.
func CollectSourceData(paths []winapi.PathInfo, resolve Resolver) (map[string]SourceData, error) {
	ordered := make([]winapi.PathInfo, 0, len(paths))
	for _, p := range paths {
		if p.IsActive() {
			ordered = append(ordered, p)
		}
	}
	for _, p := range paths {
		if !p.IsActive() {
			ordered = append(ordered, p)
		}
	}

	out := make(map[string]SourceData)
	for _, p := range ordered {
		if !p.IsAvailable() {
			continue
		}
		deviceID, ok := resolve(p)
		if !ok {
			continue
		}

		data := SourceData{AdapterID: p.SourceInfo.AdapterID, SourceID: p.SourceInfo.ID}
		if existing, dup := out[deviceID]; dup {
			// Only a second active path can conflict: an inactive path's
			// assignment never overrides the one already recorded.
			if p.IsActive() && existing != data {
				return nil, fmt.Errorf("topology: device %q has conflicting source assignments", deviceID)
			}
			continue
		}
		out[deviceID] = data
	}
	return out, nil
}

// allocateSourceID picks the lowest unused source id (0..maxSourceIDsPerAdapter-1)
// for the given adapter, or false if the adapter's budget is exhausted.
func allocateSourceID(used map[winapi.LUID]map[uint32]bool, adapter winapi.LUID) (uint32, bool) {
	taken := used[adapter]
	for id := uint32(0); id < maxSourceIDsPerAdapter; id++ {
		if !taken[id] {
			if used[adapter] == nil {
				used[adapter] = make(map[uint32]bool)
			}
			used[adapter][id] = true
			return id, true
		}
	}
	return 0, false
}

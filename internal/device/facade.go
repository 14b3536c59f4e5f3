// Package device implements the Display Device Facade: it wraps
// internal/winapi and internal/topology behind device-id-keyed
// operations, so the settings engine never has to reason about adapter
// LUIDs, path arrays, or mode-index bookkeeping directly. Every setter
// re-queries the platform after committing and verifies the request
// actually took effect, per spec.
package device

import (
	"github.com/LizardByte/libdisplaydevice-sub001/internal/topology"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/winapi"
)

// Facade is the concrete Display Device Facade, backed by a winapi.Interface.
type Facade struct {
	api winapi.Interface
}

// New wraps api behind the facade.
func New(api winapi.Interface) *Facade {
	return &Facade{api: api}
}

// targetKey identifies one path's target uniquely within a single query.
type targetKey struct {
	adapter winapi.LUID
	target  uint32
}

// deviceIDResolver builds a topology.Resolver backed by a per-call cache, so
// a single high-level facade operation never asks the registry/EDID for the
// same target twice.
type deviceIDResolver struct {
	api   winapi.Interface
	cache map[targetKey]string
}

func newDeviceIDResolver(api winapi.Interface) *deviceIDResolver {
	return &deviceIDResolver{api: api, cache: make(map[targetKey]string)}
}

func (r *deviceIDResolver) resolve(p winapi.PathInfo) (string, bool) {
	key := targetKey{adapter: p.TargetInfo.AdapterID, target: p.TargetInfo.ID}
	if id, ok := r.cache[key]; ok {
		return id, id != ""
	}

	info, err := r.api.GetDeviceTargetInfo(p.TargetInfo.AdapterID, p.TargetInfo.ID)
	if err != nil || info.DevicePath == "" {
		r.cache[key] = ""
		return "", false
	}

	edidBytes, _ := r.api.GetEDID(info.DevicePath)
	id := winapi.ComputeDeviceID(info.DevicePath, edidBytes)
	r.cache[key] = id
	return id, id != ""
}

func (r *deviceIDResolver) asTopologyResolver() topology.Resolver {
	return r.resolve
}

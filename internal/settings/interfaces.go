// Package settings implements the Settings Engine: it captures the
// pre-change display state, computes and commits a new single-display
// configuration with LIFO compensating rollback on any failed step, and
// can revert to the captured state later, including across process
// restarts via a persisted blob.
package settings

import (
	"time"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
)

// DeviceAPI is the subset of the Display Device Facade the engine drives.
// Accepting an interface (rather than *device.Facade directly) lets tests
// substitute an in-memory fake without a real display attached.
type DeviceAPI interface {
	EnumerateDevices() ([]types.EnumeratedDevice, error)
	GetDisplayName(deviceID string) (string, error)

	GetCurrentTopology() (types.ActiveTopology, error)
	IsTopologyValid(topo types.ActiveTopology) bool
	IsTopologyTheSame(a, b types.ActiveTopology) bool
	SetTopology(newTopology types.ActiveTopology) error

	GetCurrentDisplayModes(deviceIDs []string) (map[string]types.DisplayMode, error)
	SetDisplayModes(modes map[string]types.DisplayMode) error

	GetCurrentHdrStates(deviceIDs []string) (map[string]*types.HdrState, error)
	SetHdrStates(states map[string]*types.HdrState) error

	IsPrimary(deviceID string) (bool, error)
	SetAsPrimary(deviceID string) error
}

// PersistenceStore is the subset of internal/persistence.FileStore the
// engine drives, so tests can substitute an in-memory store.
type PersistenceStore interface {
	Store(data []byte) error
	Load() ([]byte, error)
	Clear() error
}

// Interface is the Settings Engine's own operation surface — implemented
// directly by *Manager, and by *retry.Scheduler[Interface] when a host
// wants automatic retried reverts.
type Interface interface {
	ApplySettings(config types.SingleDisplayConfiguration) (types.ApplyResult, error)
	RevertSettings() (types.RevertResult, error)
	ResetPersistence() (bool, error)
}

// Workarounds holds runtime-adjustable behavior tweaks for known platform
// quirks. HdrBlankDelay, when non-zero, is slept between committing new
// display modes and committing an HDR state transition, working around
// monitors that briefly blank and drop the HDR handshake if both changes
// land back to back.
type Workarounds struct {
	HdrBlankDelay time.Duration
}

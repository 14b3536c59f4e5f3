// Package displaydevice is the public entry point for the display device
// control plane: enumerate displays, apply a single-display configuration,
// revert it, and reset the on-disk persistence that backs reverts across
// process restarts.
package displaydevice

import (
	"context"
	"fmt"
	"time"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/config"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/device"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/logging"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/persistence"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/retry"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/settings"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/winapi"
)

// DisplayDevice is the operation surface a host drives: list what's
// attached, and apply/revert/reset a single-display configuration. Every
// method takes a context and returns its error without starting any work
// if it is already canceled; a call that has started runs to completion,
// since the underlying Windows CCD calls are not cancellable mid-flight.
type DisplayDevice interface {
	EnumAvailableDevices(ctx context.Context) ([]types.EnumeratedDevice, error)
	GetDisplayName(ctx context.Context, deviceID string) (string, error)
	ApplySettings(ctx context.Context, cfg types.SingleDisplayConfiguration) (types.ApplyResult, error)
	RevertSettings(ctx context.Context) (types.RevertResult, error)
	ResetPersistence(ctx context.Context) (bool, error)
}

// Service is the default DisplayDevice, backed directly by a
// *settings.Manager with no retry scheduling: callers that want automatic
// retried reverts should wrap Engine() in a retry.Scheduler themselves, or
// use NewScheduledService.
type Service struct {
	engine *settings.Manager
}

var _ DisplayDevice = (*Service)(nil)

// New constructs a Service from an on-disk config, wiring the platform's
// real winapi.Interface, internal/device.Facade and internal/persistence
// store together.
func New() (*Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("displaydevice: load config: %w", err)
	}
	if level, ok := logging.ParseLevel(cfg.LogLevel); ok {
		logging.SetLevel(level)
	}
	if err := config.EnsureDirectoriesExist(); err != nil {
		return nil, fmt.Errorf("displaydevice: ensure settings directory: %w", err)
	}

	facade := device.New(winapi.New())
	store := persistence.NewFileStore(cfg.PersistencePath)
	manager := settings.NewManager(facade, store, settings.Workarounds{
		HdrBlankDelay: cfg.Workarounds.HdrBlankDelay,
	})
	return &Service{engine: manager}, nil
}

// NewWithEngine wraps an already-constructed Settings Engine, for hosts
// that build their own dependency graph (tests, alternate persistence
// backends, and so on).
func NewWithEngine(engine *settings.Manager) *Service {
	return &Service{engine: engine}
}

// Engine returns the underlying Settings Engine, for a host that wants to
// wrap it in a retry.Scheduler itself.
func (s *Service) Engine() *settings.Manager { return s.engine }

func (s *Service) EnumAvailableDevices(ctx context.Context) ([]types.EnumeratedDevice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return deviceAPI(s.engine).EnumerateDevices()
}

func (s *Service) GetDisplayName(ctx context.Context, deviceID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return deviceAPI(s.engine).GetDisplayName(deviceID)
}

func (s *Service) ApplySettings(ctx context.Context, cfg types.SingleDisplayConfiguration) (types.ApplyResult, error) {
	if err := ctx.Err(); err != nil {
		return types.ApplyDevicePrepFailed, err
	}
	return s.engine.ApplySettings(cfg)
}

func (s *Service) RevertSettings(ctx context.Context) (types.RevertResult, error) {
	if err := ctx.Err(); err != nil {
		return types.RevertTopologyIsInvalid, err
	}
	return s.engine.RevertSettings()
}

func (s *Service) ResetPersistence(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.engine.ResetPersistence()
}

// ScheduledService is a DisplayDevice backed by a retry.Scheduler: an
// ApplySettings or RevertSettings that fails with the ApiTemporarilyUnavailable
// result is retried in the background every 5 seconds until it returns any
// other result or is superseded by the next scheduled call. Other failures
// are not retried.
type ScheduledService struct {
	engine    *settings.Manager
	scheduler *retry.Scheduler[settings.Interface]
}

var _ DisplayDevice = (*ScheduledService)(nil)

// NewScheduledService wraps engine in a retry.Scheduler. Enumeration and
// display-name lookups bypass the scheduler's lock entirely: they are
// read-only and don't affect what's scheduled for retry.
func NewScheduledService(engine *settings.Manager) *ScheduledService {
	return &ScheduledService{
		engine:    engine,
		scheduler: retry.NewScheduler[settings.Interface](engine),
	}
}

// Close stops the background retry goroutine.
func (s *ScheduledService) Close() { s.scheduler.Close() }

func (s *ScheduledService) EnumAvailableDevices(ctx context.Context) ([]types.EnumeratedDevice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return deviceAPI(s.engine).EnumerateDevices()
}

func (s *ScheduledService) GetDisplayName(ctx context.Context, deviceID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return deviceAPI(s.engine).GetDisplayName(deviceID)
}

// ApplySettings applies cfg once immediately, then lets the scheduler
// retry it every retryInterval if it failed for a transient reason.
func (s *ScheduledService) ApplySettings(ctx context.Context, cfg types.SingleDisplayConfiguration) (types.ApplyResult, error) {
	return s.applyWithRetry(ctx, cfg, 5*time.Second)
}

func (s *ScheduledService) applyWithRetry(ctx context.Context, cfg types.SingleDisplayConfiguration, retryInterval time.Duration) (types.ApplyResult, error) {
	if err := ctx.Err(); err != nil {
		return types.ApplyDevicePrepFailed, err
	}

	var result types.ApplyResult
	var applyErr error
	err := s.scheduler.Schedule(func(iface settings.Interface, stop *retry.StopToken) {
		result, applyErr = iface.ApplySettings(cfg)
		if applyErr == nil || result != types.ApplyApiTemporarilyUnavailable {
			stop.RequestStop()
		}
	}, retry.SchedulerOptions{
		SleepDurations: []time.Duration{retryInterval},
		Execution:      retry.ExecutionImmediate,
	})
	if err != nil {
		return types.ApplyDevicePrepFailed, err
	}
	return result, applyErr
}

// RevertSettings reverts once immediately, then lets the scheduler retry
// it if it failed for a transient reason.
func (s *ScheduledService) RevertSettings(ctx context.Context) (types.RevertResult, error) {
	if err := ctx.Err(); err != nil {
		return types.RevertTopologyIsInvalid, err
	}

	var result types.RevertResult
	var revertErr error
	err := s.scheduler.Schedule(func(iface settings.Interface, stop *retry.StopToken) {
		result, revertErr = iface.RevertSettings()
		if revertErr == nil || result != types.RevertApiTemporarilyUnavailable {
			stop.RequestStop()
		}
	}, retry.SchedulerOptions{
		SleepDurations: []time.Duration{5 * time.Second},
		Execution:      retry.ExecutionImmediate,
	})
	if err != nil {
		return types.RevertTopologyIsInvalid, err
	}
	return result, revertErr
}

func (s *ScheduledService) ResetPersistence(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return retry.ExecuteWithStop(s.scheduler, func(iface settings.Interface, stop *retry.StopToken) resetResult {
		stop.RequestStop()
		ok, err := iface.ResetPersistence()
		return resetResult{ok: ok, err: err}
	}).unpack()
}

type resetResult struct {
	ok  bool
	err error
}

func (r resetResult) unpack() (bool, error) { return r.ok, r.err }

// deviceAPI narrows engine to the device-facing methods needed by
// enumeration/display-name lookups, which aren't part of settings.Interface.
func deviceAPI(engine *settings.Manager) settings.DeviceAPI { return engine.Device() }

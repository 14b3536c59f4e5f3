//go:build windows

package winapi

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

var (
	user32                           = windows.NewLazySystemDLL("user32.dll")
	procGetDisplayConfigBufferSizes  = user32.NewProc("GetDisplayConfigBufferSizes")
	procQueryDisplayConfig           = user32.NewProc("QueryDisplayConfig")
	procSetDisplayConfig             = user32.NewProc("SetDisplayConfig")
	procDisplayConfigGetDeviceInfo   = user32.NewProc("DisplayConfigGetDeviceInfo")
	procDisplayConfigSetDeviceInfo   = user32.NewProc("DisplayConfigSetDeviceInfo")
)

// windowsAPI is the production Interface implementation, calling straight
// into user32.dll the way the CCD API was designed to be used.
type windowsAPI struct{}

// New returns the real Windows CCD-backed implementation.
func New() Interface {
	return &windowsAPI{}
}

func (windowsAPI) IsAPIAccessAvailable() bool {
	var numPaths, numModes uint32
	ret, _, _ := procGetDisplayConfigBufferSizes.Call(
		uintptr(QueryFlagsAllPaths),
		uintptr(unsafe.Pointer(&numPaths)),
		uintptr(unsafe.Pointer(&numModes)),
	)
	return ret == 0
}

func (windowsAPI) QueryDisplayConfig(activeOnly bool) (QueryResult, error) {
	flags := QueryFlagsAllPaths
	if activeOnly {
		flags = QueryFlagsOnlyActivePaths
	}

	var numPaths, numModes uint32
	ret, _, _ := procGetDisplayConfigBufferSizes.Call(
		uintptr(flags),
		uintptr(unsafe.Pointer(&numPaths)),
		uintptr(unsafe.Pointer(&numModes)),
	)
	if ret != 0 {
		return QueryResult{}, syscall.Errno(ret)
	}

	paths := make([]PathInfo, numPaths)
	modes := make([]ModeInfo, numModes)
	var pathPtr, modePtr unsafe.Pointer
	if numPaths > 0 {
		pathPtr = unsafe.Pointer(&paths[0])
	}
	if numModes > 0 {
		modePtr = unsafe.Pointer(&modes[0])
	}

	ret, _, _ = procQueryDisplayConfig.Call(
		uintptr(flags),
		uintptr(unsafe.Pointer(&numPaths)),
		uintptr(pathPtr),
		uintptr(unsafe.Pointer(&numModes)),
		uintptr(modePtr),
		0,
	)
	if ret != 0 {
		return QueryResult{}, syscall.Errno(ret)
	}

	return QueryResult{Paths: paths[:numPaths], Modes: modes[:numModes]}, nil
}

func (windowsAPI) SetDisplayConfig(paths []PathInfo, modes []ModeInfo) error {
	flags := SdcApply | SdcUseSuppliedDisplayConfig | SdcSaveToDatabase | SdcNoOptimization

	var pathPtr, modePtr unsafe.Pointer
	if len(paths) > 0 {
		pathPtr = unsafe.Pointer(&paths[0])
	}
	if len(modes) > 0 {
		modePtr = unsafe.Pointer(&modes[0])
	}

	ret, _, _ := procSetDisplayConfig.Call(
		uintptr(len(paths)), uintptr(pathPtr),
		uintptr(len(modes)), uintptr(modePtr),
		uintptr(flags),
	)
	if ret == 0 {
		return nil
	}

	ret, _, _ = procSetDisplayConfig.Call(
		uintptr(len(paths)), uintptr(pathPtr),
		uintptr(len(modes)), uintptr(modePtr),
		uintptr(flags|SdcAllowChanges),
	)
	if ret != 0 {
		return syscall.Errno(ret)
	}
	return nil
}

type deviceInfoHeader struct {
	InfoType  uint32
	Size      uint32
	AdapterID LUID
	ID        uint32
}

type targetDeviceNameInfo struct {
	Header                    deviceInfoHeader
	Flags                     uint32
	OutputTechnology          uint32
	EdidManufactureID         uint16
	EdidProductCodeID         uint16
	ConnectorInstance         uint32
	MonitorFriendlyDeviceName [64]uint16
	MonitorDevicePath         [128]uint16
}

func (windowsAPI) GetDeviceTargetInfo(adapterID LUID, targetID uint32) (DeviceTargetInfo, error) {
	info := targetDeviceNameInfo{
		Header: deviceInfoHeader{
			InfoType:  DeviceInfoGetTargetName,
			AdapterID: adapterID,
			ID:        targetID,
		},
	}
	info.Header.Size = uint32(unsafe.Sizeof(info))

	ret, _, _ := procDisplayConfigGetDeviceInfo.Call(uintptr(unsafe.Pointer(&info)))
	if ret != 0 {
		return DeviceTargetInfo{}, syscall.Errno(ret)
	}

	return DeviceTargetInfo{
		EdidManufactureID: info.EdidManufactureID,
		EdidProductCodeID: info.EdidProductCodeID,
		ConnectorInstance: info.ConnectorInstance,
		FriendlyName:      utf16ToString(info.MonitorFriendlyDeviceName[:]),
		DevicePath:        utf16ToString(info.MonitorDevicePath[:]),
	}, nil
}

type sourceDeviceNameInfo struct {
	Header          deviceInfoHeader
	ViewGdiDeviceName [32]uint16
}

func (windowsAPI) GetSourceDisplayName(adapterID LUID, sourceID uint32) (string, error) {
	info := sourceDeviceNameInfo{
		Header: deviceInfoHeader{
			InfoType:  DeviceInfoGetSourceName,
			AdapterID: adapterID,
			ID:        sourceID,
		},
	}
	info.Header.Size = uint32(unsafe.Sizeof(info))

	ret, _, _ := procDisplayConfigGetDeviceInfo.Call(uintptr(unsafe.Pointer(&info)))
	if ret != 0 {
		return "", syscall.Errno(ret)
	}
	return utf16ToString(info.ViewGdiDeviceName[:]), nil
}

type advancedColorInfo struct {
	Header deviceInfoHeader
	Value  uint32
}

func (windowsAPI) GetAdvancedColorEnabled(adapterID LUID, targetID uint32) (bool, bool, error) {
	info := advancedColorInfo{
		Header: deviceInfoHeader{
			InfoType:  DeviceInfoGetAdvancedColorInfo,
			AdapterID: adapterID,
			ID:        targetID,
		},
	}
	info.Header.Size = uint32(unsafe.Sizeof(info))

	ret, _, _ := procDisplayConfigGetDeviceInfo.Call(uintptr(unsafe.Pointer(&info)))
	if ret != 0 {
		return false, false, syscall.Errno(ret)
	}

	const (
		advancedColorSupported = 1 << 0
		advancedColorEnabled   = 1 << 1
	)
	return info.Value&advancedColorEnabled != 0, info.Value&advancedColorSupported != 0, nil
}

func (windowsAPI) SetAdvancedColorEnabled(adapterID LUID, targetID uint32, enabled bool) error {
	info := advancedColorInfo{
		Header: deviceInfoHeader{
			InfoType:  DeviceInfoSetAdvancedColorInfo,
			AdapterID: adapterID,
			ID:        targetID,
		},
	}
	info.Header.Size = uint32(unsafe.Sizeof(info))
	if enabled {
		info.Value = 1
	}

	ret, _, _ := procDisplayConfigSetDeviceInfo.Call(uintptr(unsafe.Pointer(&info)))
	if ret != 0 {
		return syscall.Errno(ret)
	}
	return nil
}

// GetEDID reads the raw EDID block from the registry, keyed by the monitor's
// device instance path. CCD itself doesn't expose EDID bytes; this is the
// standard fallback every Windows display tool uses.
func (windowsAPI) GetEDID(devicePath string) ([]byte, error) {
	keyPath, err := deviceParametersKeyFromPath(devicePath)
	if err != nil {
		return nil, err
	}

	key, err := registry.OpenKey(registry.LOCAL_MACHINE, keyPath, registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("winapi: open registry key: %w", err)
	}
	defer key.Close()

	data, _, err := key.GetBinaryValue("EDID")
	if err != nil {
		return nil, fmt.Errorf("winapi: read EDID value: %w", err)
	}
	return data, nil
}

// deviceParametersKeyFromPath converts a monitor device path such as
// \\?\DISPLAY#GSM123#4&1a2b3c4d&0&UID0#{e6f07b5f-ee97-4a90-b076-33f57bf4eaa7}
// into the registry key that holds its EDID:
// SYSTEM\CurrentControlSet\Enum\DISPLAY\GSM123\4&1a2b3c4d&0&UID0\Device Parameters
func deviceParametersKeyFromPath(devicePath string) (string, error) {
	segments := splitHash(devicePath)
	if len(segments) < 3 {
		return "", fmt.Errorf("winapi: malformed device path %q", devicePath)
	}
	return fmt.Sprintf(`SYSTEM\CurrentControlSet\Enum\%s\%s\%s\Device Parameters`, segments[0], segments[1], segments[2]), nil
}

func splitHash(devicePath string) []string {
	trimmed := devicePath
	for len(trimmed) > 0 && (trimmed[0] == '\\' || trimmed[0] == '?') {
		trimmed = trimmed[1:]
	}
	var parts []string
	start := 0
	for i := 0; i <= len(trimmed); i++ {
		if i == len(trimmed) || trimmed[i] == '#' {
			parts = append(parts, trimmed[start:i])
			start = i + 1
		}
	}
	return parts
}

func (windowsAPI) ErrorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func utf16ToString(s []uint16) string {
	for i, v := range s {
		if v == 0 {
			return windows.UTF16ToString(s[:i])
		}
	}
	return windows.UTF16ToString(s)
}

// Package winapi wraps the Windows CCD (Connecting and Configuring Displays)
// API behind a small interface so the rest of the engine never calls into
// user32.dll directly and can be exercised on any platform through a fake
// implementation (see the winapitest package).
package winapi

// LUID is a locally unique adapter identifier. It changes across restarts,
// so callers must never persist it as a stable device key.
type LUID struct {
	LowPart  uint32
	HighPart int32
}

// Rational mirrors DISPLAYCONFIG_RATIONAL.
type Rational struct {
	Numerator   uint32
	Denominator uint32
}

// Point mirrors POINTL.
type Point struct {
	X int32
	Y int32
}

// Region2D mirrors DISPLAYCONFIG_2DREGION.
type Region2D struct {
	Cx uint32
	Cy uint32
}

const (
	QueryFlagsAllPaths        uint32 = 0x00000001
	QueryFlagsOnlyActivePaths uint32 = 0x00000002

	SdcTopologyInternal         uint32 = 0x00000001
	SdcTopologyClone            uint32 = 0x00000002
	SdcTopologyExtend           uint32 = 0x00000004
	SdcTopologyExternal         uint32 = 0x00000008
	SdcTopologySupplied         uint32 = 0x00000010
	SdcUseSuppliedDisplayConfig uint32 = 0x00000020
	SdcValidate                 uint32 = 0x00000040
	SdcApply                    uint32 = 0x00000080
	SdcNoOptimization           uint32 = 0x00000100
	SdcSaveToDatabase           uint32 = 0x00000200
	SdcAllowChanges             uint32 = 0x00000400
	SdcPathPersistIfRequired    uint32 = 0x00000800
	SdcAllowPathOrderChanges    uint32 = 0x00002000

	ModeInfoTypeSource uint32 = 1
	ModeInfoTypeTarget uint32 = 2

	DeviceInfoGetSourceName        uint32 = 1
	DeviceInfoGetTargetName        uint32 = 2
	DeviceInfoGetAdvancedColorInfo uint32 = 9
	DeviceInfoSetAdvancedColorInfo uint32 = 10
)

// PathSourceInfo mirrors DISPLAYCONFIG_PATH_SOURCE_INFO.
type PathSourceInfo struct {
	AdapterID   LUID
	ID          uint32
	ModeInfoIdx uint32
	StatusFlags uint32
}

// PathTargetInfo mirrors DISPLAYCONFIG_PATH_TARGET_INFO.
type PathTargetInfo struct {
	AdapterID        LUID
	ID               uint32
	ModeInfoIdx      uint32
	OutputTechnology uint32
	Rotation         uint32
	Scaling          uint32
	RefreshRate      Rational
	ScanLineOrdering uint32
	TargetAvailable  uint32
	StatusFlags      uint32
}

// PathInfo mirrors DISPLAYCONFIG_PATH_INFO: one source-to-target connection.
type PathInfo struct {
	SourceInfo PathSourceInfo
	TargetInfo PathTargetInfo
	Flags      uint32
}

const (
	pathActiveFlag uint32 = 0x00000001

	// invalidHalf is DISPLAYCONFIG_PATH_MODE_IDX_INVALID / _SOURCE_MODE_IDX_INVALID
	// / _TARGET_MODE_IDX_INVALID / _DESKTOP_MODE_IDX_INVALID / _CLONE_GROUP_INVALID:
	// each is the same sentinel, just applied to a different 16-bit half of the
	// packed 32-bit ModeInfoIdx union.
	invalidHalf uint32 = 0xFFFF
)

// IsAvailable reports whether the path's target is currently available
// (typically: physically connected).
func (p PathInfo) IsAvailable() bool {
	return p.TargetInfo.TargetAvailable != 0
}

// IsActive reports whether the path is marked active in the topology.
func (p PathInfo) IsActive() bool {
	return p.Flags&pathActiveFlag != 0
}

// SetActive marks the path as active.
func (p *PathInfo) SetActive() {
	p.Flags |= pathActiveFlag
}

// SetInactive clears the active flag.
func (p *PathInfo) SetInactive() {
	p.Flags &^= pathActiveFlag
}

// The real CCD structures pack two related indices into each side's 32-bit
// ModeInfoIdx field as two 16-bit halves:
//   source: cloneGroupId (low 16) | sourceModeInfoIdx (high 16)
//   target: desktopModeInfoIdx (low 16) | targetModeInfoIdx (high 16)
// packHalves/unpackHalves implement that layout.

func packHalves(low, high uint32) uint32 {
	return (low & 0xFFFF) | (high&0xFFFF)<<16
}

func unpackHalves(v uint32) (low, high uint32) {
	return v & 0xFFFF, (v >> 16) & 0xFFFF
}

func optionalHalf(v uint32) (uint32, bool) {
	if v == invalidHalf {
		return 0, false
	}
	return v, true
}

func setOptionalHalf(index *uint32, value *uint32) {
	if value == nil {
		*index = invalidHalf
		return
	}
	*index = *value
}

// SourceModeIndex returns the source mode index, or false if unset.
func (p PathInfo) SourceModeIndex() (uint32, bool) {
	_, high := unpackHalves(p.SourceInfo.ModeInfoIdx)
	return optionalHalf(high)
}

// SetSourceModeIndex sets or clears the source mode index, preserving the
// clone group id packed into the other half.
func (p *PathInfo) SetSourceModeIndex(index *uint32) {
	low, high := unpackHalves(p.SourceInfo.ModeInfoIdx)
	setOptionalHalf(&high, index)
	p.SourceInfo.ModeInfoIdx = packHalves(low, high)
}

// CloneGroupID returns the path's clone group id, or false if unset.
func (p PathInfo) CloneGroupID() (uint32, bool) {
	low, _ := unpackHalves(p.SourceInfo.ModeInfoIdx)
	return optionalHalf(low)
}

// SetCloneGroupID sets or clears the clone group id, preserving the source
// mode index packed into the other half.
func (p *PathInfo) SetCloneGroupID(id *uint32) {
	low, high := unpackHalves(p.SourceInfo.ModeInfoIdx)
	setOptionalHalf(&low, id)
	p.SourceInfo.ModeInfoIdx = packHalves(low, high)
}

// TargetModeIndex returns the target mode index, or false if unset.
func (p PathInfo) TargetModeIndex() (uint32, bool) {
	_, high := unpackHalves(p.TargetInfo.ModeInfoIdx)
	return optionalHalf(high)
}

// SetTargetModeIndex sets or clears the target mode index, preserving the
// desktop mode index packed into the other half.
func (p *PathInfo) SetTargetModeIndex(index *uint32) {
	low, high := unpackHalves(p.TargetInfo.ModeInfoIdx)
	setOptionalHalf(&high, index)
	p.TargetInfo.ModeInfoIdx = packHalves(low, high)
}

// DesktopModeIndex returns the desktop mode index, or false if unset.
func (p PathInfo) DesktopModeIndex() (uint32, bool) {
	low, _ := unpackHalves(p.TargetInfo.ModeInfoIdx)
	return optionalHalf(low)
}

// SetDesktopModeIndex sets or clears the desktop mode index, preserving the
// target mode index packed into the other half.
func (p *PathInfo) SetDesktopModeIndex(index *uint32) {
	low, high := unpackHalves(p.TargetInfo.ModeInfoIdx)
	setOptionalHalf(&low, index)
	p.TargetInfo.ModeInfoIdx = packHalves(low, high)
}

// VideoSignalInfo mirrors DISPLAYCONFIG_VIDEO_SIGNAL_INFO.
type VideoSignalInfo struct {
	PixelRate        uint64
	HSyncFreq        Rational
	VSyncFreq        Rational
	ActiveSize       Region2D
	TotalSize        Region2D
	VideoStandard    uint32
	ScanLineOrdering uint32
}

// TargetMode mirrors DISPLAYCONFIG_TARGET_MODE.
type TargetMode struct {
	VideoSignalInfo VideoSignalInfo
}

// SourceMode mirrors DISPLAYCONFIG_SOURCE_MODE.
type SourceMode struct {
	Width       uint32
	Height      uint32
	PixelFormat uint32
	Position    Point
}

// ModeInfo mirrors DISPLAYCONFIG_MODE_INFO, a union of TargetMode/SourceMode
// selected by InfoType.
type ModeInfo struct {
	InfoType  uint32
	ID        uint32
	AdapterID LUID
	data      [48]byte
}

// SourceMode interprets the stored union as a source mode. Only valid when
// InfoType == ModeInfoTypeSource.
func (m *ModeInfo) SourceMode() *SourceMode {
	return (*SourceMode)(ptrOf(&m.data[0]))
}

// TargetMode interprets the stored union as a target mode. Only valid when
// InfoType == ModeInfoTypeTarget.
func (m *ModeInfo) TargetMode() *TargetMode {
	return (*TargetMode)(ptrOf(&m.data[0]))
}

// SetSourceMode stores a source mode in the union and sets InfoType.
func (m *ModeInfo) SetSourceMode(sm SourceMode) {
	m.InfoType = ModeInfoTypeSource
	for i := range m.data {
		m.data[i] = 0
	}
	copyInto(m.data[:], sm)
}

// SetTargetMode stores a target mode in the union and sets InfoType.
func (m *ModeInfo) SetTargetMode(tm TargetMode) {
	m.InfoType = ModeInfoTypeTarget
	for i := range m.data {
		m.data[i] = 0
	}
	copyInto(m.data[:], tm)
}

// QueryResult is the result of a display config query.
type QueryResult struct {
	Paths []PathInfo
	Modes []ModeInfo
}

// DeviceTargetInfo is the subset of DisplayConfigGetDeviceInfo's target name
// response the engine needs.
type DeviceTargetInfo struct {
	EdidManufactureID uint16
	EdidProductCodeID uint16
	ConnectorInstance uint32
	FriendlyName      string
	DevicePath        string
}

// Interface abstracts the Windows CCD API calls so business logic can be
// tested without a real display attached. The sole production implementation
// lives in windows.go (build-tagged for GOOS=windows); winapitest provides a
// fake for unit tests on any platform.
type Interface interface {
	IsAPIAccessAvailable() bool
	QueryDisplayConfig(activeOnly bool) (QueryResult, error)
	SetDisplayConfig(paths []PathInfo, modes []ModeInfo) error
	GetDeviceTargetInfo(adapterID LUID, targetID uint32) (DeviceTargetInfo, error)
	// GetSourceDisplayName returns the OS-assigned logical display name
	// (e.g. "\\.\DISPLAY1") for a path's source.
	GetSourceDisplayName(adapterID LUID, sourceID uint32) (string, error)
	GetEDID(devicePath string) ([]byte, error)
	GetAdvancedColorEnabled(adapterID LUID, targetID uint32) (enabled bool, supported bool, err error)
	SetAdvancedColorEnabled(adapterID LUID, targetID uint32, enabled bool) error
	ErrorString(err error) string
}

package types

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes DevicePreparation as its spec-named string value.
func (p DevicePreparation) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes the spec-named string value for DevicePreparation.
func (p *DevicePreparation) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, ok := ParseDevicePreparation(str)
	if !ok {
		return fmt.Errorf("types: unknown DevicePreparation %q", str)
	}
	*p = parsed
	return nil
}

// ParseApplyResult parses the wire representation of ApplyResult.
func ParseApplyResult(s string) (ApplyResult, bool) {
	switch s {
	case "Ok":
		return ApplyOk, true
	case "ApiTemporarilyUnavailable":
		return ApplyApiTemporarilyUnavailable, true
	case "DevicePrepFailed":
		return ApplyDevicePrepFailed, true
	case "PrimaryDevicePrepFailed":
		return ApplyPrimaryDevicePrepFailed, true
	case "DisplayModePrepFailed":
		return ApplyDisplayModePrepFailed, true
	case "HdrStatePrepFailed":
		return ApplyHdrStatePrepFailed, true
	case "PersistenceSaveFailed":
		return ApplyPersistenceSaveFailed, true
	}
	return ApplyOk, false
}

// MarshalJSON encodes ApplyResult as its spec-named string value.
func (r ApplyResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes the spec-named string value for ApplyResult.
func (r *ApplyResult) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, ok := ParseApplyResult(str)
	if !ok {
		return fmt.Errorf("types: unknown ApplyResult %q", str)
	}
	*r = parsed
	return nil
}

// ParseRevertResult parses the wire representation of RevertResult.
func ParseRevertResult(s string) (RevertResult, bool) {
	switch s {
	case "Ok":
		return RevertOk, true
	case "ApiTemporarilyUnavailable":
		return RevertApiTemporarilyUnavailable, true
	case "TopologyIsInvalid":
		return RevertTopologyIsInvalid, true
	case "SwitchingTopologyFailed":
		return RevertSwitchingTopologyFailed, true
	case "RevertingPrimaryDeviceFailed":
		return RevertingPrimaryDeviceFailed, true
	case "RevertingDisplayModesFailed":
		return RevertingDisplayModesFailed, true
	case "RevertingHdrStatesFailed":
		return RevertingHdrStatesFailed, true
	case "PersistenceSaveFailed":
		return RevertPersistenceSaveFailed, true
	}
	return RevertOk, false
}

// MarshalJSON encodes RevertResult as its spec-named string value.
func (r RevertResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes the spec-named string value for RevertResult.
func (r *RevertResult) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, ok := ParseRevertResult(str)
	if !ok {
		return fmt.Errorf("types: unknown RevertResult %q", str)
	}
	*r = parsed
	return nil
}

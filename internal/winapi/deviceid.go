package winapi

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeDeviceID derives a stable device id from a device path and its
// EDID bytes. EDID is hashed in alongside the path so two identical
// displays connected through a passive splitter (same path prefix) still
// get distinct ids; when edid is empty the id degrades to a pure
// path-hash, which is what production code falls back to for EDID-less
// virtual displays.
func ComputeDeviceID(devicePath string, edid []byte) string {
	h := sha256.New()
	h.Write([]byte(devicePath))
	h.Write(edid)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

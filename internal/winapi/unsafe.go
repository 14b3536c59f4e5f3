package winapi

import "unsafe"

// ptrOf reinterprets a *byte as an unsafe.Pointer for union-style field
// access on ModeInfo's fixed-size payload.
func ptrOf(p *byte) unsafe.Pointer {
	return unsafe.Pointer(p)
}

// copyInto writes the raw bytes of v into dst, used to populate ModeInfo's
// union payload from a concrete SourceMode/TargetMode value.
func copyInto[T any](dst []byte, v T) {
	src := (*[1 << 20]byte)(unsafe.Pointer(&v))[:unsafe.Sizeof(v):unsafe.Sizeof(v)]
	copy(dst, src)
}

package main

import (
	"fmt"

	"github.com/LizardByte/libdisplaydevice-sub001"
)

// newService wires the real platform dependencies behind a
// displaydevice.DisplayDevice, using the on-disk config (DISPLAYDEVICE_*
// environment overrides and displaydevice.yaml, if present).
func newService() (*displaydevice.Service, error) {
	svc, err := displaydevice.New()
	if err != nil {
		return nil, fmt.Errorf("initialize display device service: %w", err)
	}
	return svc, nil
}

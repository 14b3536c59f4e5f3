package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every display device the platform reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		devices, err := svc.EnumAvailableDevices(context.Background())
		if err != nil {
			return fmt.Errorf("enumerate devices: %w", err)
		}

		for _, d := range devices {
			printDevice(d)
		}
		return nil
	},
}

func printDevice(d types.EnumeratedDevice) {
	fmt.Printf("%s  %s\n", d.DeviceID, d.FriendlyName)
	if d.DisplayName != "" {
		fmt.Printf("    display name:   %s\n", d.DisplayName)
	}
	if d.Edid != nil {
		fmt.Printf("    edid:           %s %s (serial %d)\n", d.Edid.ManufacturerID, d.Edid.ProductCode, d.Edid.SerialNumber)
	}
	if d.Info == nil {
		fmt.Println("    status:         inactive")
		return
	}
	fmt.Printf("    status:         active%s\n", primarySuffix(d.Info.Primary))
	fmt.Printf("    resolution:     %dx%d\n", d.Info.Resolution.Width, d.Info.Resolution.Height)
	fmt.Printf("    refresh rate:   %.3f Hz\n", d.Info.RefreshRate.Float())
	if d.Info.HdrState != nil {
		fmt.Printf("    hdr:            %s\n", d.Info.HdrState.String())
	}
}

func primarySuffix(primary bool) string {
	if primary {
		return " (primary)"
	}
	return ""
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
)

var (
	applyDeviceID string
	applyPrep     string
	applyWidth    uint32
	applyHeight   uint32
	applyRefresh  float64
	applyHdr      string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a single-display configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := buildConfiguration()
		if err != nil {
			return err
		}

		svc, err := newService()
		if err != nil {
			return err
		}

		result, err := svc.ApplySettings(context.Background(), config)
		fmt.Println(result.String())
		if err != nil {
			return fmt.Errorf("apply settings: %w", err)
		}
		if result != types.ApplyOk {
			return fmt.Errorf("apply settings did not succeed: %s", result)
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().StringVar(&applyDeviceID, "device", "", "device id to configure (defaults to the current primary)")
	applyCmd.Flags().StringVar(&applyPrep, "prep", "VerifyOnly", "device preparation: VerifyOnly, EnsureActive, EnsurePrimary, EnsureOnlyDisplay")
	applyCmd.Flags().Uint32Var(&applyWidth, "width", 0, "requested resolution width")
	applyCmd.Flags().Uint32Var(&applyHeight, "height", 0, "requested resolution height")
	applyCmd.Flags().Float64Var(&applyRefresh, "refresh", 0, "requested refresh rate in Hz")
	applyCmd.Flags().StringVar(&applyHdr, "hdr", "", "requested HDR state: Enabled or Disabled")
}

func buildConfiguration() (types.SingleDisplayConfiguration, error) {
	prep, ok := types.ParseDevicePreparation(applyPrep)
	if !ok {
		return types.SingleDisplayConfiguration{}, fmt.Errorf("unknown --prep value %q", applyPrep)
	}

	config := types.SingleDisplayConfiguration{
		DeviceID:   applyDeviceID,
		DevicePrep: prep,
	}

	if applyWidth != 0 || applyHeight != 0 {
		if applyWidth == 0 || applyHeight == 0 {
			return types.SingleDisplayConfiguration{}, fmt.Errorf("--width and --height must be given together")
		}
		config.Resolution = &types.Resolution{Width: applyWidth, Height: applyHeight}
	}

	if applyRefresh != 0 {
		rate := types.NewFloatingPointDouble(applyRefresh)
		config.RefreshRate = &rate
	}

	if applyHdr != "" {
		state, ok := types.ParseHdrState(applyHdr)
		if !ok {
			return types.SingleDisplayConfiguration{}, fmt.Errorf("unknown --hdr value %q", applyHdr)
		}
		config.HdrState = &state
	}

	return config, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LizardByte/libdisplaydevice-sub001"
	"github.com/LizardByte/libdisplaydevice-sub001/internal/types"
)

var revertWatch bool

var revertCmd = &cobra.Command{
	Use:   "revert",
	Short: "Revert the last applied configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		if !revertWatch {
			result, err := svc.RevertSettings(context.Background())
			fmt.Println(result.String())
			if err != nil {
				return fmt.Errorf("revert settings: %w", err)
			}
			if result != types.RevertOk {
				return fmt.Errorf("revert settings did not succeed: %s", result)
			}
			return nil
		}

		return revertWithWatch(svc)
	},
}

func init() {
	revertCmd.Flags().BoolVar(&revertWatch, "watch", false, "keep retrying the revert in the background until it succeeds or Ctrl-C is pressed")
}

// revertWithWatch wraps the engine in a retry.Scheduler (via
// displaydevice.ScheduledService) so a transient platform error keeps being
// retried in the background after this call returns, instead of failing
// outright. It reports the outcome of the first attempt and returns at once
// unless that outcome is RevertApiTemporarilyUnavailable; in that case it
// blocks until SIGINT or SIGTERM arrives, and the background retry is then
// stopped via Close.
func revertWithWatch(svc *displaydevice.Service) error {
	scheduled := displaydevice.NewScheduledService(svc.Engine())
	defer scheduled.Close()

	result, err := scheduled.RevertSettings(context.Background())
	fmt.Println(result.String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "first attempt failed: %v\n", err)
	}
	if result != types.RevertApiTemporarilyUnavailable {
		return nil
	}

	fmt.Println("retrying in the background; press Ctrl-C to stop watching")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return nil
}

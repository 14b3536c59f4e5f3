package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard persisted state, accepting the current display configuration as the new baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}

		ok, err := svc.ResetPersistence(context.Background())
		if err != nil {
			return fmt.Errorf("reset persistence: %w", err)
		}
		if !ok {
			return fmt.Errorf("reset persistence did not succeed")
		}
		fmt.Println("persisted state cleared")
		return nil
	},
}

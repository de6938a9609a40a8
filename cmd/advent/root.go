package main

import (
	"github.com/arnavshah/advent-allocator/pkg/config"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "advent",
		Short:        "Distribute names across the advent calendar",
		SilenceUsage: true,
	}
	root.AddCommand(newAllocateCmd(), newPickupCmd())
	return root
}

// loadConfig reads the same settings the server uses
func loadConfig() (*config.Config, error) {
	return config.Load()
}

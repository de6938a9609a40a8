package main

import (
	"fmt"

	"github.com/arnavshah/advent-allocator/pkg/allocator"
	"github.com/spf13/cobra"
)

func newPickupCmd() *cobra.Command {
	var day, year int
	cmd := &cobra.Command{
		Use:   "pickup",
		Short: "Print when the bag for a December day is collected",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if year == 0 {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				year = cfg.Year
			}
			p, err := allocator.PickupRule(day, year)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Message)
			return nil
		},
	}
	cmd.Flags().IntVar(&day, "day", 0, "day of December")
	cmd.Flags().IntVar(&year, "year", 0, "calendar year (defaults to configuration)")
	_ = cmd.MarkFlagRequired("day")
	return cmd
}

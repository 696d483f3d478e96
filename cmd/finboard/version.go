package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/finboard/internal/common"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			common.LoadVersionFromBuildInfo()
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), common.GetVersion())
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), common.GetFullVersion())
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "only print version number")
	return cmd
}

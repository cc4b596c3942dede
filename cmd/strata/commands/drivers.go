package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/strata/pkg/vfd"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List the registered storage drivers",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range vfd.RegisteredDrivers() {
			fmt.Println(name)
		}
	},
}

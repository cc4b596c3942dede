package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/marmos91/strata/pkg/vfd"
)

var infoCmd = &cobra.Command{
	Use:   "info [path]",
	Short: "Show the address-space state of a container file",
	Long: `Info opens a file through a storage driver and prints the state of
its address space: the backing size and the end-of-allocated-address
mark for every allocation class.

Driver selection follows the same rules as probe.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringVar(&targetDriver, "driver", "", "driver to open the file with (default from config, or mmap with a path argument)")
	infoCmd.Flags().Uint64Var(&targetBaseAddr, "base-addr", 0, "byte offset of address zero inside the backing storage")
}

func runInfo(cmd *cobra.Command, args []string) error {
	file, closeFile, err := openTarget(args)
	if err != nil {
		return err
	}
	defer closeFile()

	eof, err := file.EOF()
	if err != nil {
		return fmt.Errorf("query end of file: %w", err)
	}
	fmt.Printf("end of file: %d bytes\n\n", eof)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Class", "End of Allocation"})
	table.SetBorder(false)
	for class := vfd.AllocClass(0); int(class) < vfd.NumAllocClasses; class++ {
		eoa, err := file.EOA(class)
		switch {
		case errors.Is(err, vfd.ErrBackendUnavailable):
			table.Append([]string{class.String(), "undefined"})
		case err != nil:
			return fmt.Errorf("query end of allocation for class %s: %w", class, err)
		default:
			table.Append([]string{class.String(), strconv.FormatUint(uint64(eoa), 10)})
		}
	}
	table.Render()
	return nil
}

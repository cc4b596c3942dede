package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/strata/internal/logger"
	vfdprom "github.com/marmos91/strata/pkg/metrics/prometheus"
	"github.com/marmos91/strata/pkg/vfd"
	"github.com/marmos91/strata/pkg/vfd/mmap"
	"github.com/marmos91/strata/pkg/vfd/sig"
	"github.com/marmos91/strata/pkg/vfd/transfer"
)

var (
	targetDriver   string
	targetBaseAddr uint64
)

var probeCmd = &cobra.Command{
	Use:   "probe [path]",
	Short: "Search a file for an embedded container signature",
	Long: `Probe searches a file for the container signature. The signature is
looked for at byte offset 0 and at every power of two at or above 512,
up to the end of the backing storage.

With a path argument the file is opened read-only through the mmap
driver. Without one the driver and its options come from the
configuration file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&targetDriver, "driver", "", "driver to open the file with (default from config, or mmap with a path argument)")
	probeCmd.Flags().Uint64Var(&targetBaseAddr, "base-addr", 0, "byte offset of address zero inside the backing storage")
}

func runProbe(cmd *cobra.Command, args []string) error {
	file, closeFile, err := openTarget(args)
	if err != nil {
		return err
	}
	defer closeFile()

	addr, found, err := sig.Locate(cmd.Context(), file, transfer.Default())
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	if !found {
		fmt.Println("no container signature found")
		os.Exit(1)
	}
	fmt.Printf("container signature found at address %d\n", addr)
	return nil
}

// openTarget resolves the driver name and options from the positional
// path argument, the --driver flag and the configuration, opens the
// driver and wraps it in a dispatch handle.
func openTarget(args []string) (*vfd.File, func(), error) {
	name := cfg.Driver.Name
	options := cfg.Driver.Options
	if targetDriver != "" {
		name = targetDriver
	}
	if len(args) == 1 {
		if targetDriver == "" {
			name = mmap.DriverName
		}
		options = map[string]any{"path": args[0]}
	}

	driver, err := vfd.OpenDriver(name, options)
	if err != nil {
		return nil, nil, err
	}
	closeDriver := func() {
		if c, ok := driver.(vfd.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close driver", logger.KeyDriver, name, logger.KeyError, err)
			}
		}
	}

	baseAddr := vfd.Addr(cfg.Driver.BaseAddr)
	if targetBaseAddr != 0 {
		baseAddr = vfd.Addr(targetBaseAddr)
	}
	fileCfg := vfd.FileConfig{
		BaseAddr: baseAddr,
		Metrics:  vfdprom.NewVFDMetrics(),
	}
	if cfg.Driver.MaxAddr != 0 {
		fileCfg.MaxAddr = vfd.Addr(cfg.Driver.MaxAddr)
	}
	file, err := vfd.NewFile(driver, fileCfg)
	if err != nil {
		closeDriver()
		return nil, nil, err
	}
	return file, closeDriver, nil
}

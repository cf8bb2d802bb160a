// Command linecover 维护树上线路的覆盖计数，提供批处理（run）与 HTTP 服务（serve）两种模式。
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	exitSuccess = 0
	exitError   = 1
)

var (
	version = "dev"

	configPath string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "linecover",
		Short:         "Track line coverage on a tree and answer path coverage queries",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	root.AddCommand(newRunCmd(), newServeCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "linecover:", err)
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}

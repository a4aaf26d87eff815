package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/meshlink/cmd/gen"
)

// Path of the TOML config file, see env.LoadConfig
var configPath string

var RootCmd = &cobra.Command{
	Use:   "meshlink",
	Short: "Talk to XBee style mesh radio modules in API mode",
	Long: `Talk to XBee style mesh radio modules in API mode

The module is reached over a local serial port or a serial to TCP bridge,
see the MESHLINK_PORT and MESHLINK_ADDRESS environment variables.`,
	SilenceUsage: true,
}

func init() {
	flags := RootCmd.PersistentFlags()

	flags.StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")

	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(DiscoverCmd)
	RootCmd.AddCommand(SendCmd)
	RootCmd.AddCommand(InfoCmd)
	RootCmd.AddCommand(SetCmd)
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

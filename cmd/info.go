package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var InfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what the module reports about itself",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		conn := sess.conn
		hw, _ := conn.HardwareVersion()

		address, err := conn.Address(ctx)
		if err != nil {
			return err
		}

		network, err := conn.NetworkAddress(ctx)
		if err != nil {
			return err
		}

		identifier, err := conn.NodeIdentifier(ctx)
		if err != nil {
			return err
		}

		role, err := conn.Role(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Hardware version: %s (legacy: %t)\n", hw, hw.IsLegacy())
		fmt.Fprintf(out, "Address:          %s\n", address)
		fmt.Fprintf(out, "Network address:  %s\n", network)
		fmt.Fprintf(out, "Identifier:       %s\n", identifier)
		fmt.Fprintf(out, "Role:             %s\n", role)

		return nil
	},
}

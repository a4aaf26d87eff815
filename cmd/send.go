package cmd

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luma/meshlink/protocol"
)

// Treat the payload argument as hex
var payloadHex bool

func init() {
	SendCmd.Flags().BoolVarP(&payloadHex, "hex", "x", false, "The payload is hex encoded")
}

var SendCmd = &cobra.Command{
	Use:   "send <address> <payload>",
	Short: "Send data to a node",
	Long: `Send data to a node

The address is the node's 64-bit address in hex. The command waits for the
module to report whether the data was delivered.

Usage
	meshlink send 0013A20040A1B2C3 hello
	meshlink send --hex 0013A20040A1B2C3 68656c6c6f
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest, err := protocol.ParseAddress64(args[0])
		if err != nil {
			return err
		}

		payload := []byte(args[1])
		if payloadHex {
			if payload, err = hex.DecodeString(args[1]); err != nil {
				return fmt.Errorf("Failed to decode payload: %w", err)
			}
		}

		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.conn.Transmit(ctx, dest, payload); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Delivered %d bytes to %s\n", len(payload), dest)
		return nil
	},
}

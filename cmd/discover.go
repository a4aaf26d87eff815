package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luma/meshlink/client"
)

var DiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover the nodes in range of the module",
	Long: `Discover the nodes in range of the module

Every node that answers within the discovery window is printed as a line
of JSON. The window is set with MESHLINK_DISCOVERY_WINDOW.

Usage
	meshlink discover
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())

		sub := sess.conn.OnNodeDiscovered(func(n client.Node) {
			_ = enc.Encode(n)
		})
		defer sub.Unsubscribe()

		stream, err := sess.conn.Discover(ctx)
		if err != nil {
			return err
		}

		<-stream.Done()

		return ctx.Err()
	},
}

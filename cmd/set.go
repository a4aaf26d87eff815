package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	identifier  string
	coordinator bool
	persist     bool
)

func init() {
	flags := SetCmd.Flags()

	flags.StringVar(&identifier, "identifier", "", "Set the node identifier")
	flags.BoolVar(&coordinator, "coordinator", false, "Enable or disable the coordinator role")
	flags.BoolVarP(&persist, "write", "w", false, "Save the settings to non-volatile memory")
}

var SetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the module's settings",
	Long: `Change the module's settings

Only the flags that are given are changed. Without --write the changes are
lost when the module resets.

Usage
	meshlink set --identifier kitchen --coordinator=false --write
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()

		if !flags.Changed("identifier") && !flags.Changed("coordinator") && !persist {
			return errors.New("Nothing to set")
		}

		ctx := context.Background()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		if flags.Changed("identifier") {
			if err := sess.conn.SetNodeIdentifier(ctx, identifier); err != nil {
				return err
			}

			sess.log.Info("Set node identifier", zap.String("identifier", identifier))
		}

		if flags.Changed("coordinator") {
			if err := sess.conn.SetCoordinator(ctx, coordinator); err != nil {
				return err
			}

			sess.log.Info("Set coordinator", zap.Bool("coordinator", coordinator))
		}

		if persist {
			if err := sess.conn.WriteChanges(ctx); err != nil {
				return err
			}

			sess.log.Info("Saved settings")
		}

		return nil
	},
}

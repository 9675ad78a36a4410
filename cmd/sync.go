package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize user profiles",
	Long:  `Manually runs the profile projection for one user or the whole population.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// syncOneCmd represents the sync one command
var syncOneCmd = &cobra.Command{
	Use:   "one <user-id>",
	Short: "Project one user's identity record onto its profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}

		o, err := newOps()
		if err != nil {
			return err
		}
		defer o.close()

		if err := o.engine.SyncOne(cmd.Context(), id); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		o.logger.Info("Profile synchronized", zap.Uint("user_id", id))
		return nil
	},
}

// syncBulkCmd represents the sync bulk command
var syncBulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Force a resync of every user",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOps()
		if err != nil {
			return err
		}
		defer o.close()

		res, err := o.auditor.BulkSync(cmd.Context())
		if err != nil {
			return fmt.Errorf("bulk sync failed: %w", err)
		}
		return json.NewEncoder(os.Stdout).Encode(res)
	},
}

// syncReverseCmd represents the sync reverse command
var syncReverseCmd = &cobra.Command{
	Use:   "reverse <user-id>",
	Short: "Copy drifted mirrored fields from the profile back onto the identity record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}

		o, err := newOps()
		if err != nil {
			return err
		}
		defer o.close()

		if err := o.engine.ReverseSync(cmd.Context(), id); err != nil {
			return fmt.Errorf("reverse sync failed: %w", err)
		}
		o.logger.Info("Reverse sync finished", zap.Uint("user_id", id))
		return nil
	},
}

// syncReconcileCmd represents the sync reconcile command
var syncReconcileCmd = &cobra.Command{
	Use:   "reconcile <user-id>",
	Short: "Copy identity values over every mirrored mismatch for one user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}

		o, err := newOps()
		if err != nil {
			return err
		}
		defer o.close()

		changed, err := o.auditor.ValidateAndSyncConsistency(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("reconcile failed: %w", err)
		}
		o.logger.Info("Reconcile finished",
			zap.Uint("user_id", id),
			zap.Strings("fields", changed))
		return nil
	},
}

func parseUserID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return uint(id), nil
}

func init() {
	syncCmd.AddCommand(syncOneCmd)
	syncCmd.AddCommand(syncBulkCmd)
	syncCmd.AddCommand(syncReverseCmd)
	syncCmd.AddCommand(syncReconcileCmd)
	RootCmd.AddCommand(syncCmd)
}

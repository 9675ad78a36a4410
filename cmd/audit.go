package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit profile consistency",
	Long:  `Checks that every user's profile projection matches its identity record.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// auditFullCmd represents the audit full command
var auditFullCmd = &cobra.Command{
	Use:   "full",
	Short: "Audit the whole population, report only",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOps()
		if err != nil {
			return err
		}
		defer o.close()

		report, err := o.auditor.AuditFull(cmd.Context())
		if err != nil {
			return fmt.Errorf("full audit failed: %w", err)
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(report)
		}
		o.logger.Info("Audit finished",
			zap.Int("scanned", report.Scanned),
			zap.Int("issues", report.Count()))
		for _, issue := range report.Issues {
			o.logger.Warn("Inconsistency",
				zap.String("type", string(issue.Type)),
				zap.Uint("user_id", issue.UserID),
				zap.String("field", issue.Field),
				zap.String("user_value", issue.UserValue),
				zap.String("profile_value", issue.ProfileValue))
		}
		return nil
	},
}

// auditOneCmd represents the audit one command
var auditOneCmd = &cobra.Command{
	Use:   "one <user-id>",
	Short: "Audit a single user",
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

		report, err := o.auditor.AuditOne(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("audit failed: %w", err)
		}
		return json.NewEncoder(os.Stdout).Encode(report)
	},
}

// auditOrphansCmd represents the audit orphans command
var auditOrphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List profiles whose user no longer exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOps()
		if err != nil {
			return err
		}
		defer o.close()

		ids, err := o.auditor.FindOrphanProfiles(cmd.Context())
		if err != nil {
			return fmt.Errorf("orphan scan failed: %w", err)
		}
		if ids == nil {
			ids = []uint{}
		}
		return json.NewEncoder(os.Stdout).Encode(ids)
	},
}

// auditIntegrityCmd represents the audit integrity command
var auditIntegrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Count mirrored-field mismatches across the whole population",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := newOps()
		if err != nil {
			return err
		}
		defer o.close()

		res, err := o.auditor.CheckIntegrity(cmd.Context())
		if err != nil {
			return fmt.Errorf("integrity check failed: %w", err)
		}
		return json.NewEncoder(os.Stdout).Encode(res)
	},
}

func init() {
	auditFullCmd.Flags().Bool("json", false, "Output the full report as JSON")
	auditCmd.AddCommand(auditFullCmd)
	auditCmd.AddCommand(auditOneCmd)
	auditCmd.AddCommand(auditOrphansCmd)
	auditCmd.AddCommand(auditIntegrityCmd)
	RootCmd.AddCommand(auditCmd)
}

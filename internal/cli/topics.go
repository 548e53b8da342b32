package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/drfirst/dental-claims/internal/infrastructure/redpanda"
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Manage the claim event topics",
}

var topicsEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the claims topic if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		brokers := cfg.Brokers()
		if len(brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is not set")
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if err := redpanda.HealthCheck(ctx, brokers); err != nil {
			return fmt.Errorf("brokers unreachable: %w", err)
		}
		admin, err := redpanda.NewAdmin(brokers, logger)
		if err != nil {
			return err
		}
		defer admin.Close()

		if err := admin.EnsureTopics(ctx, redpanda.ClaimsTopicConfig(cfg.ClaimsTopic)); err != nil {
			return err
		}
		topics, err := admin.ListTopics(ctx)
		if err != nil {
			return err
		}
		for _, t := range topics {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

func init() {
	topicsCmd.AddCommand(topicsEnsureCmd)
	rootCmd.AddCommand(topicsCmd)
}

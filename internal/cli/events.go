package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/drfirst/dental-claims/internal/domain/claim"
	"github.com/drfirst/dental-claims/internal/infrastructure/redpanda"
	"github.com/drfirst/dental-claims/internal/observability/metrics"
)

var (
	tailGroup       string
	tailFromStart   bool
	tailMetricsAddr string
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect claim submission events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print claim submission events as they arrive",
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

		ccfg := redpanda.DefaultConsumerConfig(brokers, cfg.ClaimsTopic)
		ccfg.GroupID = tailGroup
		if tailFromStart {
			ccfg.StartOffset = "earliest"
		}
		m := metrics.New(nil)
		consumer, err := redpanda.NewConsumer(ccfg, printEvent(cmd.OutOrStdout(), m, logger), logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if tailMetricsAddr != "" {
			srv := &http.Server{Addr: tailMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("metrics server error", zap.Error(err))
				}
			}()
			defer srv.Close()
		}
		logger.Info("tailing claim events", zap.String("topic", cfg.ClaimsTopic))
		return consumer.Run(ctx)
	},
}

// printEvent writes one line per ClaimSubmitted event.
func printEvent(w io.Writer, m *metrics.Metrics, logger *zap.Logger) redpanda.MessageHandler {
	return func(_ context.Context, msg *redpanda.ConsumedMessage) error {
		m.EventsConsumed.Inc()
		evt, err := claim.DecodeEvent(msg.Value)
		if err != nil {
			return fmt.Errorf("decode event at offset %d: %w", msg.Offset, err)
		}
		if evt.EventType != claim.EventClaimSubmitted {
			logger.Debug("skipping event", zap.String("type", string(evt.EventType)))
			return nil
		}
		var data claim.ClaimSubmittedData
		if err := json.Unmarshal(evt.EventData, &data); err != nil {
			return fmt.Errorf("decode event data: %w", err)
		}
		fmt.Fprintf(w, "%s\tclaim=%s\tcode=%s\tpatient=%s\tfields=%d\n",
			data.SubmittedAt.Format("2006-01-02T15:04:05Z07:00"),
			data.ClaimID, data.Code, data.PatientID, len(data.Fields))
		return nil
	}
}

func init() {
	eventsTailCmd.Flags().StringVar(&tailGroup, "group", "", "consumer group (default: none)")
	eventsTailCmd.Flags().BoolVar(&tailFromStart, "from-start", false, "read the topic from the earliest offset")
	eventsTailCmd.Flags().StringVar(&tailMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while tailing")

	eventsCmd.AddCommand(eventsTailCmd)
	rootCmd.AddCommand(eventsCmd)
}

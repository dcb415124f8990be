/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/viajesoeste/apiserver/config"
	"github.com/viajesoeste/apiserver/internal/mq"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Logs travel request events from the configured broker",
	Long: `Subscribes to the travel request channel (MQ_CHANNEL) on the broker
selected by MQ_DRIVER and logs every event until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_DRIVER is none; configure rabbitmq or pubsub to consume events")
		}
		defer broker.Close()

		log.WithField("channel", cfg.MQ.Channel).Info("listening for travel request events")
		err = broker.Subscribe(ctx, cfg.MQ.Channel, logEvent(log))
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}

func logEvent(log logrus.FieldLogger) mq.Handler {
	return func(ctx context.Context, msg mq.Message) error {
		ev, err := mq.DecodeEvent(msg)
		if err != nil {
			log.WithError(err).WithField("message_id", msg.ID).Warn("discarding malformed event")
			return nil
		}
		log.WithFields(logrus.Fields{
			"type":        ev.Type,
			"id":          ev.ID,
			"status":      ev.Status,
			"occurred_at": ev.OccurredAt,
		}).Info("travel request event")
		return nil
	}
}

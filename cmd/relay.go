/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/janj3143/careertrojan-bridge/internal/bootstrap"
	"github.com/janj3143/careertrojan-bridge/internal/config"
	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
	"github.com/janj3143/careertrojan-bridge/internal/infra/messaging"
	"github.com/janj3143/careertrojan-bridge/internal/infra/persistence"
)

var relayPortal string

// relayCmd runs the ingest side of a split deployment: it consumes the
// notification mirror stream for one portal and writes the notifications
// into that portal's local store.
var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Ingest mirrored notifications from JetStream into the local store",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config error:", err)
			os.Exit(1)
		}
		log, err := bootstrap.BuildLogger(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "log error:", err)
			os.Exit(1)
		}

		portal := entity.Portal(relayPortal)
		if !portal.Valid() {
			fmt.Fprintln(os.Stderr, "relay error: --portal must be admin or user")
			os.Exit(1)
		}

		client, err := messaging.NewNATS(ctx, cfg.NATS)
		if err != nil {
			fmt.Fprintln(os.Stderr, "nats error:", err)
			os.Exit(1)
		}
		if client == nil {
			fmt.Fprintln(os.Stderr, "nats error: nats url is required")
			os.Exit(1)
		}
		defer client.Close()

		db, err := persistence.New(ctx, persistence.Config{
			Driver:          cfg.Database.Driver,
			Path:            cfg.Database.Path,
			DSN:             cfg.Database.DSN,
			BusyTimeout:     cfg.Database.BusyTimeout,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "db error:", err)
			os.Exit(1)
		}
		defer db.Close()
		notifications := persistence.NewNotificationRepository(db)

		if err := client.EnsureConsumer(ctx, portal); err != nil {
			fmt.Fprintln(os.Stderr, "consumer config error:", err)
			os.Exit(1)
		}

		subject := client.NotificationSubject(portal)
		durable := client.ConsumerDurable(portal)
		log.Infof("relay: listening on %s (durable=%s)", subject, durable)

		sub, err := client.JetStream().PullSubscribe(
			subject,
			durable,
			nats.Bind(cfg.NATS.Stream, durable),
		)
		if err != nil {
			fmt.Fprintln(os.Stderr, "subscribe error:", err)
			os.Exit(1)
		}

		for {
			if ctx.Err() != nil {
				return
			}
			msgs, err := sub.Fetch(32, nats.Context(ctx))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				log.WithError(err).Warn("relay: fetch failed")
				continue
			}
			for _, msg := range msgs {
				var n entity.PortalNotification
				if err := json.Unmarshal(msg.Data, &n); err != nil {
					log.WithError(err).Warn("relay: malformed notification message")
					handleRelayError(ctx, cfg, client, msg, log)
					continue
				}
				inserted, err := notifications.InsertIgnoreDuplicate(ctx, &n)
				if err != nil {
					log.WithError(err).Warn("relay: notification insert failed")
					handleRelayError(ctx, cfg, client, msg, log)
					continue
				}
				if inserted {
					log.Infof("relay: ingested notification %s for %s", n.NotificationID, n.UserID)
				}
				_ = msg.Ack()
			}
		}
	},
}

func init() {
	relayCmd.Flags().StringVar(&relayPortal, "portal", string(entity.PortalUser), "portal whose notifications to ingest (admin or user)")
	rootCmd.AddCommand(relayCmd)
}

func handleRelayError(ctx context.Context, cfg config.Config, client *messaging.NATSClient, msg *nats.Msg, log *logrus.Logger) {
	md, err := msg.Metadata()
	if err != nil {
		log.WithError(err).Warn("relay: metadata missing")
		_ = msg.Nak()
		return
	}
	maxDeliver := cfg.NATS.ConsumerMaxDeliver
	if maxDeliver <= 0 {
		maxDeliver = 10
	}
	if int(md.NumDelivered) >= maxDeliver {
		if cfg.NATS.DLQSubject != "" {
			if err := client.Publish(ctx, cfg.NATS.DLQSubject, msg.Data, fmt.Sprintf("dlq-%d", md.Sequence.Stream)); err != nil {
				log.WithError(err).Warn("relay: dlq publish failed")
				_ = msg.Nak()
				return
			}
		} else {
			log.Warn("relay: dlq subject not configured")
		}
		_ = msg.Ack()
		return
	}
	delay := messaging.BackoffForAttempt(cfg.NATS.ConsumerBackoff, md.NumDelivered)
	if delay > 0 {
		_ = msg.NakWithDelay(delay)
		return
	}
	_ = msg.Nak()
}

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/janj3143/careertrojan-bridge/internal/config"
	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
)

// NATSClient mirrors portal notifications onto a JetStream stream so a
// remotely deployed portal can ingest them through the relay command.
// Publishing uses the notification id as the JetStream message id, which
// makes redelivery after a handler retry a dedupe no-op.
type NATSClient struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	cfg  config.NATS
}

func NewNATS(ctx context.Context, cfg config.NATS) (*NATSClient, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	if cfg.Stream == "" || cfg.SubjectPrefix == "" {
		return nil, errors.New("nats: stream and subject_prefix are required")
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("careertrojan-bridge"))
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ensureStream(ctx, js, cfg); err != nil {
		conn.Close()
		return nil, err
	}

	return &NATSClient{conn: conn, js: js, cfg: cfg}, nil
}

func (c *NATSClient) Close() {
	if c == nil || c.conn == nil {
		return
	}
	c.conn.Close()
}

func (c *NATSClient) JetStream() nats.JetStreamContext {
	if c == nil {
		return nil
	}
	return c.js
}

// NotificationSubject returns the mirror subject for one portal.
func (c *NATSClient) NotificationSubject(portal entity.Portal) string {
	return c.cfg.SubjectPrefix + "." + string(portal)
}

func (c *NATSClient) PublishNotification(ctx context.Context, n entity.PortalNotification) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return c.Publish(ctx, c.NotificationSubject(n.PortalTarget), data, n.NotificationID.String())
}

func (c *NATSClient) Publish(ctx context.Context, subject string, payload []byte, msgID string) error {
	if c == nil {
		return nil
	}
	if c.js == nil {
		return errors.New("nats: jetstream not initialized")
	}
	msg := nats.NewMsg(subject)
	msg.Data = payload
	if msgID != "" {
		msg.Header.Set(nats.MsgIdHdr, msgID)
	}
	_, err := c.js.PublishMsg(msg, nats.Context(ctx))
	return err
}

func streamSubjects(cfg config.NATS) []string {
	subjects := []string{
		cfg.SubjectPrefix + "." + string(entity.PortalAdmin),
		cfg.SubjectPrefix + "." + string(entity.PortalUser),
	}
	if cfg.DLQSubject != "" {
		subjects = append(subjects, cfg.DLQSubject)
	}
	return subjects
}

func ensureStream(ctx context.Context, js nats.JetStreamContext, cfg config.NATS) error {
	subjects := streamSubjects(cfg)

	info, err := js.StreamInfo(cfg.Stream, nats.Context(ctx))
	if err == nil {
		if !sameSubjects(info.Config.Subjects, subjects) {
			info.Config.Subjects = subjects
			_, err = js.UpdateStream(&info.Config, nats.Context(ctx))
		}
		return err
	}

	if errors.Is(err, nats.ErrStreamNotFound) {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      cfg.Stream,
			Subjects:  subjects,
			Storage:   nats.FileStorage,
			Retention: nats.LimitsPolicy,
		}, nats.Context(ctx))
		return err
	}
	return err
}

// EnsureConsumer creates (or reconciles) the durable pull consumer the
// relay binds to for one portal's mirror subject.
func (c *NATSClient) EnsureConsumer(ctx context.Context, portal entity.Portal) error {
	cfg := c.cfg
	if cfg.Stream == "" {
		return errors.New("nats: stream is required")
	}
	if cfg.ConsumerDurable == "" {
		return errors.New("nats: consumer durable is required")
	}

	durable := fmt.Sprintf("%s-%s", cfg.ConsumerDurable, portal)
	subject := c.NotificationSubject(portal)

	info, err := c.js.ConsumerInfo(cfg.Stream, durable, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrConsumerNotFound) {
		return err
	}

	maxDeliver := cfg.ConsumerMaxDeliver
	if maxDeliver <= 0 {
		maxDeliver = -1
	}

	if info != nil {
		if info.Config.MaxDeliver != maxDeliver || !sameBackoff(info.Config.BackOff, cfg.ConsumerBackoff) {
			if err := c.js.DeleteConsumer(cfg.Stream, durable, nats.Context(ctx)); err != nil {
				return err
			}
			info = nil
		}
	}

	if info == nil {
		consumerCfg := &nats.ConsumerConfig{
			Durable:       durable,
			AckPolicy:     nats.AckExplicitPolicy,
			AckWait:       cfg.AckWait,
			MaxAckPending: cfg.MaxAckPending,
			MaxDeliver:    maxDeliver,
			FilterSubject: subject,
		}
		if len(cfg.ConsumerBackoff) > 0 {
			consumerCfg.BackOff = cfg.ConsumerBackoff
		}
		if _, err := c.js.AddConsumer(cfg.Stream, consumerCfg, nats.Context(ctx)); err != nil {
			return err
		}
	}
	return nil
}

// ConsumerDurable returns the durable name used for one portal's relay.
func (c *NATSClient) ConsumerDurable(portal entity.Portal) string {
	return fmt.Sprintf("%s-%s", c.cfg.ConsumerDurable, portal)
}

func sameBackoff(a, b []time.Duration) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// BackoffForAttempt returns the NAK delay for the given delivery count,
// clamping to the last configured step.
func BackoffForAttempt(backoff []time.Duration, delivered uint64) time.Duration {
	if len(backoff) == 0 {
		return 0
	}
	idx := int(delivered) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(backoff) {
		idx = len(backoff) - 1
	}
	return backoff[idx]
}

func sameSubjects(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	for _, v := range seen {
		if v != 0 {
			return false
		}
	}
	return true
}

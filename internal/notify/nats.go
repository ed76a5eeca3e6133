package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"jobfinder-engine/internal/domain"
	"jobfinder-engine/internal/errors"
	"jobfinder-engine/internal/telemetry"
)

// DefaultSubject is where the chat bot listens for new-job messages.
const DefaultSubject = "jobs.notify"

const connectTimeout = 10 * time.Second

// NATS publishes notifications as JSON messages.
type NATS struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

func NewNATS(url, subject string, logger *zap.Logger) (*NATS, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	opts := []nats.Option{
		nats.Name("jobfinder-engine"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, errors.Unavailable("connecting to NATS", err)
	}
	return &NATS{conn: conn, subject: subject, logger: logger}, nil
}

func (p *NATS) Notify(ctx context.Context, n domain.Notification) error {
	_, span := telemetry.GetTracer().Start(ctx, "notify.nats")
	defer span.End()

	data, err := json.Marshal(NewMessage(n))
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling notification", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", p.subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(p.subject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish notification",
			zap.Int64("user_id", n.UserID),
			zap.String("job_id", n.Job.UniqueID),
			zap.Error(err))
		return errors.Unavailable("publishing to NATS", err)
	}

	p.logger.Debug("published notification",
		zap.Int64("user_id", n.UserID),
		zap.String("job_id", n.Job.UniqueID),
		zap.String("subject", p.subject))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATS) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	err := p.conn.FlushTimeout(2 * time.Second)
	p.conn.Close()
	if err != nil && err != nats.ErrConnectionClosed {
		return err
	}
	return nil
}

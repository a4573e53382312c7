package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/frontdeskhq/receptionist-core/internal/config"
	"github.com/frontdeskhq/receptionist-core/internal/model"
	"github.com/frontdeskhq/receptionist-core/pkg/logger"
	"github.com/frontdeskhq/receptionist-core/pkg/utils"
)

// JobEnvelope is the wire form of a dispatched job. External workers consume
// these from the job stream and call back into the claim/settle operations.
type JobEnvelope struct {
	JobID          string    `json:"job_id"`
	OrganizationID string    `json:"organization_id"`
	ContactID      string    `json:"contact_id,omitempty"`
	Type           string    `json:"type"`
	ScheduledFor   time.Time `json:"scheduled_for"`
	PublishedAt    time.Time `json:"published_at"`
}

// JobPublisher pushes scheduled jobs onto a JetStream work queue. A nil
// publisher is valid and drops publishes silently, so dispatch stays optional.
type JobPublisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
}

// NewJobPublisher connects to NATS and ensures the job stream exists.
func NewJobPublisher(cfg *config.Config) (*JobPublisher, error) {
	nc, err := nats.Connect(cfg.NATS.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Log.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	streamCfg := &nats.StreamConfig{
		Name:      cfg.NATS.JobStream,
		Subjects:  []string{cfg.NATS.JobSubject + ".>"},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    time.Duration(cfg.NATS.JobMaxAgeDays) * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	_, err = js.StreamInfo(cfg.NATS.JobStream)
	if err != nil {
		if _, err := js.AddStream(streamCfg); err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create job stream %s: %w", cfg.NATS.JobStream, err)
		}
		logger.Log.Info("Created job stream", zap.String("stream", cfg.NATS.JobStream))
	}

	return &JobPublisher{nc: nc, js: js, subject: cfg.NATS.JobSubject}, nil
}

// PublishJob publishes a job envelope keyed by job ID for stream-level
// deduplication. Returns the queue-side message ID.
func (p *JobPublisher) PublishJob(ctx context.Context, job *model.ScheduledJob) (string, error) {
	if p == nil {
		return "", nil
	}

	envelope := JobEnvelope{
		JobID:          job.ID,
		OrganizationID: job.OrganizationID,
		ContactID:      job.ContactID,
		Type:           job.Type,
		ScheduledFor:   job.ScheduledFor,
		PublishedAt:    utils.Now(),
	}

	subject := fmt.Sprintf("%s.%s", p.subject, job.Type)
	msg := nats.NewMsg(subject)
	msg.Data = utils.MustMarshalJSON(envelope)
	msg.Header.Set(nats.MsgIdHdr, job.ID)

	ack, err := p.js.PublishMsg(msg, nats.Context(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to publish job %s to %s: %w", job.ID, subject, err)
	}

	queueID := fmt.Sprintf("%s:%d", ack.Stream, ack.Sequence)
	logger.FromContext(ctx).Info("Dispatched job",
		zap.String("job_id", job.ID),
		zap.String("job_type", job.Type),
		zap.String("subject", subject),
		zap.String("queue_id", queueID),
	)
	return queueID, nil
}

// Close drains the connection.
func (p *JobPublisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		logger.Log.Warn("Failed to drain NATS connection", zap.Error(err))
	}
}

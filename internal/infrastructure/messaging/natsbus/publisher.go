package natsbus

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/riskibarqy/prode/internal/usecase"
)

const defaultSubject = "prode.refresh"

type Config struct {
	URL           string
	Subject       string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher broadcasts refresh events on a core NATS subject so other
// instances can drop their caches.
type Publisher struct {
	conn    Conn
	subject string
	clock   clockwork.Clock
	logger  *logging.Logger
}

func Connect(cfg Config, logger *logging.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("natsbus")

	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = nats.DefaultURL
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	opts := []nats.Option{
		nats.Name(firstNonEmpty(cfg.Name, "prode")),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error("nats error", "error", err)
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return NewPublisher(nc, cfg.Subject, clockwork.NewRealClock(), logger), nil
}

func NewPublisher(conn Conn, subject string, clock clockwork.Clock, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Publisher{
		conn:    conn,
		subject: firstNonEmpty(subject, defaultSubject),
		clock:   clock,
		logger:  logger,
	}
}

// PublishRefresh skips empty flag sets.
func (p *Publisher) PublishRefresh(ctx context.Context, flags usecase.RefreshFlags) error {
	if !flags.Any() {
		return nil
	}

	data, err := sonic.Marshal(usecase.NewRefreshEvent(flags, p.clock.Now()))
	if err != nil {
		return fmt.Errorf("marshal refresh event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish refresh event subject=%s: %w", p.subject, err)
	}

	p.logger.DebugContext(ctx, "refresh event published", "subject", p.subject)
	return nil
}

func (p *Publisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

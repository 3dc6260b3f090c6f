package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/ledring/internal/logging"
)

// Publisher hands commands to a running daemon over NATS.
type Publisher struct {
	conn   *nats.Conn
	logger logging.Logger
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url string, logger logging.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logging.GetLogger("nats")
	}

	conn, err := nats.Connect(url,
		nats.Name("ledring-cli"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, err
	}

	return &Publisher{conn: conn, logger: logger}, nil
}

// Send publishes cmd and waits for the daemon to accept or reject it.
func (p *Publisher) Send(ctx context.Context, cmd string) error {
	data, err := CommandMessage{Command: cmd}.Marshal()
	if err != nil {
		return err
	}

	msg, err := p.conn.RequestWithContext(ctx, SubjectCommands, data)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return fmt.Errorf("no ledring daemon is listening on %s: %w", SubjectCommands, err)
		}
		return err
	}

	reply, err := UnmarshalReply(msg.Data)
	if err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	if !reply.OK {
		return errors.New(reply.Error)
	}

	p.logger.Debug("Command accepted by daemon", "command", cmd)
	return nil
}

// Close closes the publisher connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

package queue

import (
	"context"
	"fmt"

	"github.com/go-zeromq/zmq4"
	"go.uber.org/zap"
)

// Publisher is the producer side of the delivery job queue. The web tier
// (and the manual retry action) pushes email ids through it. Delivery is
// at-most-once: if no worker is bound when a job is pushed, the job is lost
// and must be re-enqueued by hand.
type Publisher interface {
	Publish(emailID int32) error
	Close() error
}

type zmqPublisher struct {
	sock zmq4.Socket
	log  *zap.Logger
}

// NewPublisher connects a PUSH socket to the worker's PULL endpoint.
func NewPublisher(ctx context.Context, address string, log *zap.Logger) (Publisher, error) {
	sock := zmq4.NewPush(ctx)
	if err := sock.Dial(address); err != nil {
		return nil, fmt.Errorf("failed to connect to queue at %s: %w", address, err)
	}
	return &zmqPublisher{sock: sock, log: log}, nil
}

func (p *zmqPublisher) Publish(emailID int32) error {
	if err := p.sock.Send(zmq4.NewMsg(EncodeJobID(emailID))); err != nil {
		return fmt.Errorf("failed to publish job for email %d: %w", emailID, err)
	}
	p.log.Info("queued email for delivery", zap.Int32("email_id", emailID))
	return nil
}

func (p *zmqPublisher) Close() error {
	return p.sock.Close()
}

package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-zeromq/zmq4"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// JobHandler processes one delivery job. Handlers run on their own
// goroutine so the receive loop can immediately pull the next frame.
type JobHandler func(ctx context.Context, emailID int32)

// Consumer is the worker side of the delivery job queue: a PULL socket
// bound to the queue address, fanning received jobs out to the handler.
// The semaphore caps in-flight jobs so SMTP and DB connection counts stay
// bounded under burst load.
type Consumer struct {
	sock zmq4.Socket
	sem  *semaphore.Weighted
	log  *zap.Logger
}

// NewConsumer binds a PULL socket to the queue address. A bind failure is
// fatal at process start.
func NewConsumer(ctx context.Context, address string, maxJobs int64, log *zap.Logger) (*Consumer, error) {
	sock := zmq4.NewPull(ctx)
	if err := sock.Listen(address); err != nil {
		return nil, fmt.Errorf("failed to bind queue socket at %s: %w", address, err)
	}
	if maxJobs < 1 {
		maxJobs = 1
	}
	return &Consumer{
		sock: sock,
		sem:  semaphore.NewWeighted(maxJobs),
		log:  log,
	}, nil
}

// Run receives jobs until the context is cancelled. Receive errors and
// malformed frames are logged and the loop continues; nothing short of
// cancellation stops the worker.
func (c *Consumer) Run(ctx context.Context, handler JobHandler) error {
	for {
		msg, err := c.sock.Recv()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			c.log.Error("error receiving queue message", zap.Error(err))
			continue
		}

		emailID, err := DecodeJobID(msg.Bytes())
		if err != nil {
			c.log.Error("dropping malformed queue message", zap.Error(err))
			continue
		}

		if err := c.sem.Acquire(ctx, 1); err != nil {
			return err
		}

		go func(id int32) {
			defer c.sem.Release(1)
			handler(ctx, id)
		}(emailID)
	}
}

func (c *Consumer) Close() error {
	return c.sock.Close()
}

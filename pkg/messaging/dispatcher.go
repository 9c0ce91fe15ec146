package messaging

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Message is one text addressed to a person.
type Message struct {
	PersonID string
	To       string
	Body     string
}

// Outcome reports the delivery attempt for one Message.
type Outcome struct {
	PersonID string
	To       string
	SID      string
	Err      error
}

func (o Outcome) OK() bool { return o.Err == nil }

// Dispatcher sends messages with bounded concurrency. Every message is
// attempted; one failure never stops the others.
type Dispatcher struct {
	sender Sender
	limit  int
	logger *zap.Logger

	// OnDone, when set, is called after each attempt. It may be called concurrently.
	OnDone func(Outcome)
}

func NewDispatcher(sender Sender, limit int, logger *zap.Logger) *Dispatcher {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sender: sender, limit: limit, logger: logger}
}

// Dispatch returns one outcome per message, in input order.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs []Message) []Outcome {
	outcomes := make([]Outcome, len(msgs))

	var g errgroup.Group
	g.SetLimit(d.limit)
	for i, m := range msgs {
		i, m := i, m
		g.Go(func() error {
			out := Outcome{PersonID: m.PersonID, To: m.To}
			if err := ctx.Err(); err != nil {
				out.Err = err
			} else {
				out.SID, out.Err = d.sender.Send(ctx, m.To, m.Body)
			}
			outcomes[i] = out
			if d.OnDone != nil {
				d.OnDone(out)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if !o.OK() {
			failed++
			d.logger.Warn("message not delivered",
				zap.String("person_id", o.PersonID),
				zap.Error(o.Err),
			)
		}
	}
	d.logger.Info("dispatch finished",
		zap.Int("messages", len(msgs)),
		zap.Int("failed", failed),
	)
	return outcomes
}

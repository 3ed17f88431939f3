package syncx

import (
	"context"
	"fmt"
	"time"

	"github.com/mind-engage/mockprep/internal/logging"
)

// Source is the durable side of a relay: the event log plus a per-relay cursor.
type Source interface {
	ListAfter(ctx context.Context, after int64, limit int) ([]Event, error)
	Cursor(ctx context.Context, name string) (int64, error)
	SetCursor(ctx context.Context, name string, seq int64) error
}

// Relay forwards logged events to a sink in seq order. Delivery is at least
// once: the cursor only moves past events the sink accepted.
type Relay struct {
	Name  string
	Src   Source
	Sink  Publisher
	Batch int
	Log   *logging.Logger
}

func NewRelay(name string, src Source, sink Publisher, log *logging.Logger) *Relay {
	if log == nil {
		log = logging.Discard()
	}
	return &Relay{Name: name, Src: src, Sink: sink, Batch: 100, Log: log}
}

// RunOnce delivers one batch and returns how many events were forwarded.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	after, err := r.Src.Cursor(ctx, r.Name)
	if err != nil {
		return 0, fmt.Errorf("read cursor: %w", err)
	}
	events, err := r.Src.ListAfter(ctx, after, r.Batch)
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}

	sent := 0
	var deliverErr error
	for _, e := range events {
		if err := r.Sink.Publish(ctx, e); err != nil {
			deliverErr = fmt.Errorf("deliver seq %d: %w", e.Seq, err)
			break
		}
		after = e.Seq
		sent++
	}
	if sent > 0 {
		if err := r.Src.SetCursor(ctx, r.Name, after); err != nil {
			return sent, fmt.Errorf("store cursor: %w", err)
		}
	}
	return sent, deliverErr
}

// Run polls until ctx is done. Drained batches are retried on the next tick.
func (r *Relay) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		for {
			n, err := r.RunOnce(ctx)
			if err != nil {
				r.Log.WithError(err).WithField("relay", r.Name).Warn("relay batch failed")
				break
			}
			if n < r.Batch {
				break
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

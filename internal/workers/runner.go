package workers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/benvon/rewrite/internal/queue"
)

// JobProcessor handles one delivered message, acking or nacking it itself
type JobProcessor interface {
	ProcessJob(ctx context.Context, msg queue.MessageInterface) error
}

// Run dispatches messages to processor with at most concurrency jobs in flight.
// It returns when ctx is cancelled or msgs is closed, after in-flight jobs finish.
func Run[M queue.MessageInterface](ctx context.Context, processor JobProcessor, msgs <-chan M, errs <-chan error, concurrency int, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Error("queue_consume_error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				if nackErr := msg.Nack(true); nackErr != nil {
					log.Warn("job_nack_failed", zap.Error(nackErr))
				}
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				if err := processor.ProcessJob(ctx, msg); err != nil {
					log.Warn("job_processing_failed", zap.Error(err))
				}
			}()
		}
	}
}

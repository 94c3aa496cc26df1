// Package workers processes queued background jobs.
package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/rewrite/internal/logger"
	"github.com/benvon/rewrite/internal/queue"
	"github.com/benvon/rewrite/internal/services/ai"
	"github.com/benvon/rewrite/internal/services/evaluation"
)

// ErrInvalidJob marks jobs that can never succeed and go straight to the DLQ
var ErrInvalidJob = errors.New("invalid job")

// Reviewer evaluates an essay and stores the located edits for a session
type Reviewer interface {
	Review(ctx context.Context, sessionID uuid.UUID, essay, sourceText string) (*evaluation.ReviewResult, error)
}

// Enqueuer re-publishes jobs that should run again later
type Enqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// EvaluationProcessor processes evaluation jobs
type EvaluationProcessor struct {
	reviewer Reviewer
	jobQueue Enqueuer // For re-enqueueing jobs with delays
	logger   *zap.Logger
	now      func() time.Time
}

// NewEvaluationProcessor creates a new evaluation processor. jobQueue may be nil,
// in which case failed jobs are dead-lettered instead of retried.
func NewEvaluationProcessor(reviewer Reviewer, jobQueue Enqueuer, log *zap.Logger) *EvaluationProcessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &EvaluationProcessor{
		reviewer: reviewer,
		jobQueue: jobQueue,
		logger:   log,
		now:      time.Now,
	}
}

// ProcessEvaluationJob runs one stored review. Category failures are returned
// as an error after the successful categories have been stored.
func (p *EvaluationProcessor) ProcessEvaluationJob(ctx context.Context, job *queue.Job) error {
	if job.SessionID == uuid.Nil {
		return fmt.Errorf("%w: session_id is required", ErrInvalidJob)
	}
	essay := job.MetadataString(queue.MetadataEssay)
	if essay == "" {
		return fmt.Errorf("%w: essay is required", ErrInvalidJob)
	}

	result, err := p.reviewer.Review(ctx, job.SessionID, essay, job.MetadataString(queue.MetadataSourceText))
	if err != nil {
		return fmt.Errorf("failed to review essay: %w", err)
	}

	p.logger.Info("evaluation_job_completed",
		zap.String("job_id", job.ID.String()),
		zap.String("session_id", logger.SanitizeSessionID(job.SessionID.String())),
		zap.Int("located", result.Located),
		zap.Int("stored", len(result.Stored)),
		zap.Int("retry_count", job.RetryCount),
	)
	if result.Err != nil {
		return fmt.Errorf("categories failed: %w", result.Err)
	}
	return nil
}

// ProcessJob processes a job based on its type
func (p *EvaluationProcessor) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	if job == nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("%w: empty message", ErrInvalidJob)
	}

	if job.IsExpired() {
		p.logger.Info("job_expired", zap.String("job_id", job.ID.String()))
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack expired job: %w", ackErr)
		}
		return nil
	}

	// Without the delayed exchange a job can arrive early; publish it again
	if !job.ShouldProcess() && p.jobQueue != nil {
		if err := p.jobQueue.Enqueue(ctx, job); err != nil {
			if nackErr := msg.Nack(true); nackErr != nil {
				p.logger.Warn("job_nack_failed", zap.Error(nackErr))
			}
			return fmt.Errorf("failed to defer job: %w", err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack deferred job: %w", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeEvaluateEssay:
		if err := p.ProcessEvaluationJob(ctx, job); err != nil {
			return p.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			p.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError retries transient failures with backoff and dead-letters the rest
func (p *EvaluationProcessor) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.String("error", logger.SanitizeError(err)),
	}

	// A retry count only survives a re-publish
	if p.jobQueue == nil || errors.Is(err, ErrInvalidJob) || (ai.IsPermanentError(err) && !ai.IsQuotaError(err)) || !job.CanRetry() {
		p.logger.Error("job_dead_lettered", fields...)
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed permanently: %w", err)
	}

	delay := ai.GetRetryDelay(err, job.RetryCount)
	notBefore := p.now().Add(delay)
	retry := *job
	retry.NotBefore = &notBefore
	retry.IncrementRetry()

	if enqueueErr := p.jobQueue.Enqueue(ctx, &retry); enqueueErr != nil {
		p.logger.Error("job_reenqueue_failed", append(fields, zap.Error(enqueueErr))...)
		if nackErr := msg.Nack(true); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("failed to re-enqueue job: %w", enqueueErr)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Warn("job_ack_failed", zap.Error(ackErr))
	}

	p.logger.Warn("job_retry_scheduled", append(fields,
		zap.Duration("delay", delay),
		zap.Bool("rate_limited", ai.IsRateLimitError(err)),
		zap.Bool("quota_exceeded", ai.IsQuotaError(err)),
	)...)
	return nil
}

package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/atvirokodosprendimai/actionlog/internal/core/callctx"
)

// JobFunc is the unit of background work. It runs with a fresh call context
// already attached, carrying the submitter's identity and the scheduled
// event's id as the start of the action chain.
type JobFunc func(ctx context.Context) error

// JobRunner executes work asynchronously while recording the full action
// lifecycle around it: a Scheduled event at submission, a Started event when
// the goroutine picks the job up, and a Completed event (INFO or ERROR) when
// the job returns. All three share the scheduled event's id as their startId,
// so readers can reconstruct the chain.
type JobRunner struct {
	recorder *Recorder
	logger   *slog.Logger

	wg sync.WaitGroup
}

func NewJobRunner(recorder *Recorder, logger *slog.Logger) *JobRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRunner{recorder: recorder, logger: logger}
}

// Submit records the Scheduled event synchronously and starts the job in the
// background. It returns the scheduled event's id, which is the startId of
// every subsequent event in the chain. The submitted context's call context
// supplies entity parameters for enrichment; the job itself runs detached
// from the caller's context lifetime.
func (r *JobRunner) Submit(ctx context.Context, eventType, description string, job JobFunc) (int64, error) {
	cc, err := callctx.Current(ctx)
	if err != nil {
		return 0, err
	}
	userID, accountID := cc.UserID(), cc.AccountID()

	scheduledID, err := r.recorder.RecordScheduled(ctx, userID, accountID, eventType, description, 0)
	if err != nil {
		return 0, err
	}

	jobCC := callctx.New(userID, accountID)
	jobCC.SetStartEventID(scheduledID)
	for k, v := range cc.Parameters() {
		jobCC.PutParameter(k, v)
	}
	jobCtx := callctx.With(context.Background(), jobCC)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(jobCtx, userID, accountID, eventType, description, scheduledID, job)
	}()

	return scheduledID, nil
}

func (r *JobRunner) run(ctx context.Context, userID, accountID int64, eventType, description string, scheduledID int64, job JobFunc) {
	if _, err := r.recorder.RecordStarted(ctx, userID, accountID, eventType, description, scheduledID); err != nil {
		r.logger.Error("failed to record job start", "event_type", eventType, "error", err)
	}

	level := "INFO"
	if err := job(ctx); err != nil {
		level = "ERROR"
		description = description + ": " + err.Error()
		r.logger.Error("background job failed", "event_type", eventType, "error", err)
	}

	if _, err := r.recorder.RecordCompletedAsync(ctx, userID, accountID, level, eventType, description, scheduledID); err != nil {
		r.logger.Error("failed to record job completion", "event_type", eventType, "error", err)
	}
}

// Close waits for all in-flight jobs to finish.
func (r *JobRunner) Close() {
	r.wg.Wait()
}

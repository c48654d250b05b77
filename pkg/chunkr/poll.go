package chunkr

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultPollInterval = 500 * time.Millisecond

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the
// latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	interval time.Duration
	sleep    Sleeper
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		interval: defaultPollInterval,
		sleep:    sleepContext,
	}
}

// WithPollInterval overrides the fixed delay between status checks.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithSleeper replaces the timer used between status checks.
func WithSleeper(s Sleeper) PollOption {
	return func(c *pollConfig) {
		if s != nil {
			c.sleep = s
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type pollAction int

const (
	actionWait  pollAction = iota // task still running
	actionRetry                   // status check failed, try again
	actionDone
	actionFail
)

type pollStep struct {
	action pollAction
	task   *Task
	err    error
}

// nextStep decides what to do with one status observation.
func nextStep(taskID string, task *Task, err error) pollStep {
	if err != nil {
		return pollStep{action: actionRetry, err: err}
	}
	if task == nil {
		return pollStep{action: actionRetry, err: eris.Errorf("chunkr: empty status response for task %s", taskID)}
	}

	status, ok := ParseTaskStatus(task.Status)
	if !ok {
		return pollStep{action: actionFail, err: &UnknownStatusError{TaskID: taskID, Status: task.Status}}
	}

	switch status {
	case StatusSucceeded:
		return pollStep{action: actionDone, task: task}
	case StatusFailed, StatusCancelled:
		return pollStep{action: actionFail, err: &TaskFailedError{TaskID: taskID, Status: status, Message: task.Message}}
	default:
		return pollStep{action: actionWait}
	}
}

// PollTask checks the task every interval until it reaches a terminal state.
// Failed status checks are logged and retried without limit; Failed and
// Cancelled return *TaskFailedError and an unrecognized status returns
// *UnknownStatusError. There is no built-in timeout: cancel ctx to stop.
func PollTask(ctx context.Context, client Client, taskID string, opts ...PollOption) (*Task, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrapf(err, "chunkr: poll task %s abandoned", taskID)
		}

		task, err := client.GetTask(ctx, taskID)
		step := nextStep(taskID, task, err)

		switch step.action {
		case actionDone:
			return step.task, nil
		case actionFail:
			return nil, step.err
		case actionRetry:
			if ctx.Err() == nil {
				logPollFailure(taskID, attempt, step.err)
			}
		}

		if err := cfg.sleep(ctx, cfg.interval); err != nil {
			return nil, eris.Wrapf(err, "chunkr: poll task %s abandoned", taskID)
		}
	}
}

func logPollFailure(taskID string, attempt int, err error) {
	fields := []zap.Field{
		zap.String("task_id", taskID),
		zap.Int("attempt", attempt),
		zap.Error(err),
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, zap.Int("status_code", apiErr.StatusCode))
	}
	zap.L().Warn("chunkr: failed to poll task, retrying", fields...)
}

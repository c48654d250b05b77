package chunkr

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrInvalidPayload is returned by Flatten when the task has no output.
	ErrInvalidPayload = eris.New("chunkr: invalid payload: missing output")
	// ErrNoChunks is returned by Flatten when the output carries no chunks.
	ErrNoChunks = eris.New("chunkr: no chunks found in output")
	// ErrTaskCancelled matches a TaskFailedError for a cancelled task.
	ErrTaskCancelled = eris.New("chunkr: task cancelled")
)

// SubmissionError is returned when a task could not be created.
type SubmissionError struct {
	StatusCode int // 0 when the request never got a response
	Message    string
	Err        error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("chunkr: failed to create task: %s", e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode reports the response status for error classification.
func (e *SubmissionError) HTTPStatusCode() int {
	return e.StatusCode
}

// TaskFailedError is returned when a task reaches Failed or Cancelled.
type TaskFailedError struct {
	TaskID  string
	Status  TaskStatus
	Message string
}

func (e *TaskFailedError) Error() string {
	if e.Status == StatusCancelled {
		return fmt.Sprintf("chunkr: task %s cancelled: %s", e.TaskID, e.Message)
	}
	return fmt.Sprintf("chunkr: task %s failed: %s", e.TaskID, e.Message)
}

// Is lets errors.Is(err, ErrTaskCancelled) match cancelled tasks.
func (e *TaskFailedError) Is(target error) bool {
	return target == ErrTaskCancelled && e.Status == StatusCancelled
}

// UnknownStatusError is returned when the service reports a status this
// client does not know. It is not retried.
type UnknownStatusError struct {
	TaskID string
	Status string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("chunkr: unknown status %q for task %s", e.Status, e.TaskID)
}

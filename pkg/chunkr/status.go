package chunkr

// TaskStatus is the lifecycle state of a remote task.
type TaskStatus int

const (
	// StatusUnknown is any value the service sends that this client does not recognize.
	StatusUnknown TaskStatus = iota
	StatusStarting
	StatusProcessing
	StatusSucceeded
	StatusFailed
	StatusCancelled
)

var statusNames = map[string]TaskStatus{
	"Starting":   StatusStarting,
	"Processing": StatusProcessing,
	"Succeeded":  StatusSucceeded,
	"Failed":     StatusFailed,
	"Cancelled":  StatusCancelled,
}

func (s TaskStatus) String() string {
	switch s {
	case StatusStarting:
		return "Starting"
	case StatusProcessing:
		return "Processing"
	case StatusSucceeded:
		return "Succeeded"
	case StatusFailed:
		return "Failed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ParseTaskStatus maps the wire value to a TaskStatus. The bool is false for
// unrecognized values, which map to StatusUnknown.
func ParseTaskStatus(raw string) (TaskStatus, bool) {
	s, ok := statusNames[raw]
	return s, ok
}

// IsTerminal reports whether no further transition can occur.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}
